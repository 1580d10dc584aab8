package domain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveSegment_Canonicalization(t *testing.T) {
	seg := ResolveSegment("sp", "116", 523.4)

	assert.Equal(t, "SP", seg.Region)
	assert.Equal(t, "116", seg.Highway)
	assert.Equal(t, 520, seg.Bucket)
	assert.Equal(t, "SP_116_520", seg.Key())
}

func TestResolveSegment_PadsShortHighwayIDs(t *testing.T) {
	seg := ResolveSegment("RJ", "40", 125)

	assert.Equal(t, "040", seg.Highway)
	assert.Equal(t, "RJ_040_120", seg.Key())
}

func TestResolveSegment_Idempotent(t *testing.T) {
	first := ResolveSegment("  sp ", "40", 523.4)
	second := ResolveSegment(first.Region, first.Highway, float64(first.Bucket))

	assert.Equal(t, first, second)
}

func TestResolveSegment_BucketBoundaries(t *testing.T) {
	assert.Equal(t, 520, ResolveSegment("SP", "116", 520).Bucket)
	assert.Equal(t, 520, ResolveSegment("SP", "116", 529.999).Bucket)
	assert.Equal(t, 530, ResolveSegment("SP", "116", 530).Bucket)
	assert.Equal(t, 0, ResolveSegment("SP", "116", 9.9).Bucket)
}

func TestResolveSegment_MalformedInputCoercesToZero(t *testing.T) {
	assert.Equal(t, 0, ResolveSegment("SP", "116", -5).Bucket)
	assert.Equal(t, 0, ResolveSegment("SP", "116", math.NaN()).Bucket)
	assert.Equal(t, 0, ResolveSegment("SP", "116", math.Inf(1)).Bucket)
	assert.Equal(t, "000", ResolveSegment("SP", "not-a-number", 10).Highway)
	assert.Equal(t, "000", ResolveSegment("SP", "-7", 10).Highway)
}

func TestSegment_Shifted(t *testing.T) {
	seg := ResolveSegment("SP", "116", 520)

	assert.Equal(t, "SP_116_510", seg.Shifted(-10).Key())
	assert.Equal(t, "SP_116_540", seg.Shifted(20).Key())
}

func TestSegment_Location(t *testing.T) {
	assert.Equal(t, "SP-116 km 520", ResolveSegment("SP", "116", 523.4).Location())
}

func TestParseSegmentKey_RoundTrip(t *testing.T) {
	seg := ResolveSegment("MG", "381", 444)

	parsed, ok := ParseSegmentKey(seg.Key())
	require.True(t, ok)
	assert.Equal(t, seg, parsed)
}

func TestParseSegmentKey_RejectsMalformedKeys(t *testing.T) {
	for _, key := range []string{"", "SP_116", "SP_116_520_9", "SP_116_abc"} {
		_, ok := ParseSegmentKey(key)
		assert.False(t, ok, "key %q should not parse", key)
	}
}
