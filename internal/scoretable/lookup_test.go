package scoretable

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viaseguro/roadrisk/internal/domain"
)

func dayClear() domain.ContextLabel {
	return domain.ContextLabel{Phase: domain.PhaseDay, Weather: domain.WeatherClear}
}

func nightRainy() domain.ContextLabel {
	return domain.ContextLabel{Phase: domain.PhaseNight, Weather: domain.WeatherRainy}
}

func TestLookup_ExactMatch(t *testing.T) {
	table := newTestTable(t, map[string]map[string]float64{
		"SP_116_520": {"day_clear": 72, "night_rainy": 88},
	})

	seg := domain.ResolveSegment("SP", "116", 523.4)
	res := table.Lookup(seg, dayClear(), DefaultParams())

	assert.True(t, res.Found)
	assert.Equal(t, 72.0, res.Score)
	assert.Equal(t, dayClear(), res.ContextUsed)
}

func TestLookup_DefaultContextFallback(t *testing.T) {
	table := newTestTable(t, map[string]map[string]float64{
		"SP_116_520": {"day_clear": 72},
	})

	seg := domain.ResolveSegment("SP", "116", 520)
	res := table.Lookup(seg, nightRainy(), DefaultParams())

	assert.True(t, res.Found)
	assert.Equal(t, 72.0, res.Score)
	assert.Equal(t, dayClear(), res.ContextUsed, "should report the context that resolved")
}

func TestLookup_SpatialFallbackPrefersBackwardNeighbor(t *testing.T) {
	table := newTestTable(t, map[string]map[string]float64{
		"SP_116_520": {"night_rainy": 65},
		"SP_116_540": {"night_rainy": 90},
	})

	// Bucket 530 has no score; 520 (backward) and 540 (forward) are both
	// 10 km away, backward wins.
	seg := domain.ResolveSegment("SP", "116", 530)
	res := table.Lookup(seg, nightRainy(), DefaultParams())

	assert.True(t, res.Found)
	assert.Equal(t, 65.0, res.Score)
}

func TestLookup_SpatialFallbackRespectsRadius(t *testing.T) {
	table := newTestTable(t, map[string]map[string]float64{
		"SP_116_520": {"night_rainy": 65},
	})

	params := DefaultParams()
	seg := domain.ResolveSegment("SP", "116", 550) // 30 km away, outside the 20 km radius

	res := table.Lookup(seg, nightRainy(), params)
	assert.False(t, res.Found)
	assert.Equal(t, float64(NeutralDefaultScore), res.Score)

	params.ScalarRadiusKm = 30
	res = table.Lookup(seg, nightRainy(), params)
	assert.True(t, res.Found)
	assert.Equal(t, 65.0, res.Score)
}

func TestLookup_NeutralDefaultWhenNothingFound(t *testing.T) {
	table := newTestTable(t, map[string]map[string]float64{
		"RJ_101_100": {"day_clear": 50},
	})

	res := table.Lookup(domain.ResolveSegment("SP", "116", 520), nightRainy(), DefaultParams())

	assert.False(t, res.Found)
	assert.Equal(t, float64(NeutralDefaultScore), res.Score)
	assert.Empty(t, res.Nearby)
}

func TestLookup_EmptyTable(t *testing.T) {
	table := newTestTable(t, map[string]map[string]float64{})

	res := table.Lookup(domain.ResolveSegment("SP", "116", 520), dayClear(), DefaultParams())

	assert.False(t, res.Found)
	assert.Equal(t, float64(NeutralDefaultScore), res.Score)
}

func TestLookup_NearbyListSortedAndLimited(t *testing.T) {
	table := newTestTable(t, map[string]map[string]float64{
		"SP_116_490": {"day_clear": 40},
		"SP_116_500": {"day_clear": 55},
		"SP_116_510": {"day_clear": 60},
		"SP_116_530": {"day_clear": 70},
		"SP_116_520": {"day_clear": 72},
	})

	res := table.Lookup(domain.ResolveSegment("SP", "116", 520), dayClear(), DefaultParams())
	require.True(t, res.Found)
	require.Len(t, res.Nearby, 3)

	assert.Equal(t, 10, res.Nearby[0].DistanceKm)
	assert.Equal(t, 10, res.Nearby[1].DistanceKm)
	assert.Equal(t, 20, res.Nearby[2].DistanceKm)
	assert.Equal(t, "SP_116_510", res.Nearby[0].SegmentKey)
	assert.Equal(t, "SP_116_530", res.Nearby[1].SegmentKey)
}

func TestLookup_ScoreAlwaysInRange(t *testing.T) {
	table := newTestTable(t, map[string]map[string]float64{
		"SP_116_520": {"day_clear": 100},
		"SP_116_530": {"day_clear": 0},
	})

	for _, km := range []float64{0, 520, 530, 555, 9999} {
		res := table.Lookup(domain.ResolveSegment("SP", "116", km), dayClear(), DefaultParams())
		assert.GreaterOrEqual(t, res.Score, 0.0)
		assert.LessOrEqual(t, res.Score, 100.0)
	}
}

func TestLookup_Deterministic(t *testing.T) {
	table := newTestTable(t, map[string]map[string]float64{
		"SP_116_520": {"day_clear": 72},
	})

	seg := domain.ResolveSegment("SP", "116", 530)
	first := table.Lookup(seg, dayClear(), DefaultParams())
	second := table.Lookup(seg, dayClear(), DefaultParams())

	assert.Equal(t, first, second)
}
