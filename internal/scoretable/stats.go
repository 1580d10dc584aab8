package scoretable

import (
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/viaseguro/roadrisk/internal/domain"
)

// highRiskThreshold is the minimum mean context score for a segment to count
// as high risk in the ranking.
const highRiskThreshold = 70

// RankedSegment summarizes one segment's scores across all contexts.
type RankedSegment struct {
	SegmentKey string  `json:"segment_key"`
	Region     string  `json:"region"`
	Highway    string  `json:"highway"`
	Km         int     `json:"km"`
	AvgScore   float64 `json:"avg_risk_score"`
	MaxScore   float64 `json:"max_risk_score"`
}

// Distribution counts segments per risk level, classified by mean score.
type Distribution struct {
	Low      int `json:"low"`
	Moderate int `json:"moderate"`
	High     int `json:"high"`
	Critical int `json:"critical"`
}

// Statistics is the table-wide summary exposed by the engine.
type Statistics struct {
	TotalSegments int          `json:"total_segments"`
	ModelInfo     Metadata     `json:"model_info"`
	Distribution  Distribution `json:"risk_distribution"`
}

// HighRiskSegments returns up to limit segments whose mean context score is
// at least 70, ranked by mean descending.
func (t *Table) HighRiskSegments(limit int) []RankedSegment {
	snap := t.current.Load()

	ranked := []RankedSegment{}
	for key, contexts := range snap.scores {
		seg, ok := domain.ParseSegmentKey(key)
		if !ok {
			continue
		}

		mean, maxScore := summarize(contexts)
		if mean < highRiskThreshold {
			continue
		}

		ranked = append(ranked, RankedSegment{
			SegmentKey: key,
			Region:     seg.Region,
			Highway:    seg.Highway,
			Km:         seg.Bucket,
			AvgScore:   mean,
			MaxScore:   maxScore,
		})
	}

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].AvgScore != ranked[j].AvgScore {
			return ranked[i].AvgScore > ranked[j].AvgScore
		}
		return ranked[i].SegmentKey < ranked[j].SegmentKey
	})

	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

// Statistics summarizes the loaded snapshot: total segments and how their
// mean scores distribute across risk levels.
func (t *Table) Statistics() Statistics {
	snap := t.current.Load()

	stats := Statistics{
		TotalSegments: len(snap.scores),
		ModelInfo:     snap.meta,
	}

	for _, contexts := range snap.scores {
		mean, _ := summarize(contexts)
		switch domain.LevelForScore(mean) {
		case domain.LevelCritical:
			stats.Distribution.Critical++
		case domain.LevelHigh:
			stats.Distribution.High++
		case domain.LevelModerate:
			stats.Distribution.Moderate++
		default:
			stats.Distribution.Low++
		}
	}

	return stats
}

// summarize reduces a segment's per-context scores to (mean, max).
func summarize(contexts map[string]float64) (float64, float64) {
	if len(contexts) == 0 {
		return 0, 0
	}

	values := make([]float64, 0, len(contexts))
	maxScore := 0.0
	for _, score := range contexts {
		values = append(values, score)
		if score > maxScore {
			maxScore = score
		}
	}
	return stat.Mean(values, nil), maxScore
}
