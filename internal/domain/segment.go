package domain

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// BucketWidthKm is the fixed spatial granularity of the score table: every
// highway is divided into 10 km buckets and scores are keyed by bucket start.
const BucketWidthKm = 10

// highwayIDWidth is the zero-padded width of federal highway identifiers
// ("116" stays "116", "40" becomes "040").
const highwayIDWidth = 3

// Segment identifies one kilometer bucket of a highway within a region.
// Segments are derived keys into the score table, not stored entities.
type Segment struct {
	Region  string // upper-cased region code, e.g. "SP"
	Highway string // zero-padded highway identifier, e.g. "116"
	Bucket  int    // bucket start km, always a multiple of BucketWidthKm
}

// ResolveSegment canonicalizes a raw (region, highway, km) triple.
// Region is upper-cased, the highway identifier is left-zero-padded, and the
// kilometer is floored to its bucket start. Malformed numeric input coerces
// to zero rather than failing; validation of plausible ranges is the
// geography validator's job, not this one's.
func ResolveSegment(region, highway string, km float64) Segment {
	if math.IsNaN(km) || math.IsInf(km, 0) || km < 0 {
		km = 0
	}
	bucket := int(math.Floor(km/BucketWidthKm)) * BucketWidthKm

	return Segment{
		Region:  strings.ToUpper(strings.TrimSpace(region)),
		Highway: padHighway(highway),
		Bucket:  bucket,
	}
}

// Key renders the canonical score-table key, e.g. "SP_116_520".
func (s Segment) Key() string {
	return fmt.Sprintf("%s_%s_%d", s.Region, s.Highway, s.Bucket)
}

// Location renders a human-readable position, e.g. "SP-116 km 520".
func (s Segment) Location() string {
	return fmt.Sprintf("%s-%s km %d", s.Region, s.Highway, s.Bucket)
}

// Shifted returns the segment offset by the given number of kilometers.
// The offset must be a multiple of BucketWidthKm for the result to be canonical.
func (s Segment) Shifted(offsetKm int) Segment {
	return Segment{Region: s.Region, Highway: s.Highway, Bucket: s.Bucket + offsetKm}
}

// ParseSegmentKey splits a stored key back into its components. Used when
// ranking table entries; returns false for keys that do not match the
// canonical three-part shape.
func ParseSegmentKey(key string) (Segment, bool) {
	parts := strings.Split(key, "_")
	if len(parts) != 3 {
		return Segment{}, false
	}
	bucket, err := strconv.Atoi(parts[2])
	if err != nil {
		return Segment{}, false
	}
	return Segment{Region: parts[0], Highway: parts[1], Bucket: bucket}, true
}

// padHighway normalizes a highway identifier to its zero-padded form.
// Non-numeric identifiers coerce to 0, mirroring the numeric coercion rule.
func padHighway(highway string) string {
	highway = strings.TrimSpace(highway)
	n, err := strconv.Atoi(highway)
	if err != nil || n < 0 {
		n = 0
	}
	return fmt.Sprintf("%0*d", highwayIDWidth, n)
}
