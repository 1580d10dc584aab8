package scoretable

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHighRiskSegments_FiltersAndRanks(t *testing.T) {
	table := newTestTable(t, map[string]map[string]float64{
		"SP_116_520": {"day_clear": 90, "night_rainy": 70}, // mean 80
		"MG_381_440": {"day_clear": 95, "night_rainy": 95}, // mean 95
		"RJ_101_100": {"day_clear": 50},                    // below threshold
	})

	ranked := table.HighRiskSegments(10)
	require.Len(t, ranked, 2)

	assert.Equal(t, "MG_381_440", ranked[0].SegmentKey)
	assert.Equal(t, 95.0, ranked[0].AvgScore)
	assert.Equal(t, 95.0, ranked[0].MaxScore)
	assert.Equal(t, "MG", ranked[0].Region)
	assert.Equal(t, "381", ranked[0].Highway)
	assert.Equal(t, 440, ranked[0].Km)

	assert.Equal(t, "SP_116_520", ranked[1].SegmentKey)
	assert.Equal(t, 80.0, ranked[1].AvgScore)
	assert.Equal(t, 90.0, ranked[1].MaxScore)
}

func TestHighRiskSegments_RespectsLimit(t *testing.T) {
	table := newTestTable(t, map[string]map[string]float64{
		"SP_116_500": {"day_clear": 75},
		"SP_116_510": {"day_clear": 85},
		"SP_116_520": {"day_clear": 95},
	})

	ranked := table.HighRiskSegments(2)
	require.Len(t, ranked, 2)
	assert.Equal(t, "SP_116_520", ranked[0].SegmentKey)
	assert.Equal(t, "SP_116_510", ranked[1].SegmentKey)
}

func TestHighRiskSegments_TiesBreakByKey(t *testing.T) {
	table := newTestTable(t, map[string]map[string]float64{
		"SP_116_520": {"day_clear": 85},
		"MG_381_440": {"day_clear": 85},
	})

	ranked := table.HighRiskSegments(10)
	require.Len(t, ranked, 2)
	assert.Equal(t, "MG_381_440", ranked[0].SegmentKey)
	assert.Equal(t, "SP_116_520", ranked[1].SegmentKey)
}

func TestHighRiskSegments_NoneQualify(t *testing.T) {
	table := newTestTable(t, map[string]map[string]float64{
		"SP_116_500": {"day_clear": 30},
	})

	ranked := table.HighRiskSegments(10)
	assert.NotNil(t, ranked, "empty result must serialize as a JSON array, not null")
	assert.Empty(t, ranked)
}

func TestStatistics_Distribution(t *testing.T) {
	table := newTestTable(t, map[string]map[string]float64{
		"SP_116_500": {"day_clear": 20},                    // low
		"SP_116_510": {"day_clear": 45},                    // moderate
		"SP_116_520": {"day_clear": 60, "night_rainy": 70}, // high (mean 65)
		"SP_116_530": {"day_clear": 90},                    // critical
	})

	stats := table.Statistics()

	assert.Equal(t, 4, stats.TotalSegments)
	assert.Equal(t, 1, stats.Distribution.Low)
	assert.Equal(t, 1, stats.Distribution.Moderate)
	assert.Equal(t, 1, stats.Distribution.High)
	assert.Equal(t, 1, stats.Distribution.Critical)
	assert.Equal(t, "segment-context-frequency", stats.ModelInfo.ModelType)
}
