package scoretable

import (
	"sort"

	"github.com/viaseguro/roadrisk/internal/domain"
)

// NeutralDefaultScore is returned when nothing is found within the bounded
// search radius. Historical data is sparse; a fixed low-moderate default is
// more useful to callers than refusing to answer.
const NeutralDefaultScore = 30

// Params bounds the spatial fallback search. The defaults mirror the
// constants the snapshot was generated with; they are policy, not physics,
// so they are configurable.
type Params struct {
	ScalarRadiusKm int // search radius for the scalar fallback score
	NearbyRadiusKm int // wider radius for the diagnostic nearby list
	StepKm         int // probe stride, normally the bucket width
	NearbyLimit    int // max entries in the nearby list
}

// DefaultParams returns the snapshot-native search policy.
func DefaultParams() Params {
	return Params{
		ScalarRadiusKm: 20,
		NearbyRadiusKm: 50,
		StepKm:         domain.BucketWidthKm,
		NearbyLimit:    3,
	}
}

// Result is the outcome of one lookup: the resolved score, whether any table
// entry backed it, the context that actually resolved it, and the nearby
// diagnostic list.
type Result struct {
	Score       float64
	Found       bool
	ContextUsed domain.ContextLabel
	Nearby      []domain.NearbySegment
}

// Lookup resolves a score for the segment and context through the fallback
// chain: exact match, default context on the same segment, expanding spatial
// search, fixed neutral default. It never fails; for a fixed snapshot and
// fixed inputs the result is always identical.
func (t *Table) Lookup(seg domain.Segment, ctx domain.ContextLabel, p Params) Result {
	snap := t.current.Load()
	res := Result{ContextUsed: ctx, Nearby: t.nearbySegments(snap, seg, ctx, p)}

	// Exact match.
	if score, ok := contextScore(snap, seg.Key(), ctx); ok {
		res.Score = score
		res.Found = true
		return res
	}

	// Same segment, default context.
	if def := domain.DefaultContext(); def != ctx {
		if score, ok := contextScore(snap, seg.Key(), def); ok {
			t.metrics.LookupFallbacks.WithLabelValues("default_context").Inc()
			res.Score = score
			res.Found = true
			res.ContextUsed = def
			return res
		}
	}

	// Expanding spatial search, alternating backward/forward probes.
	if score, ok := nearestScore(snap, seg, ctx, p); ok {
		t.metrics.LookupFallbacks.WithLabelValues("spatial").Inc()
		res.Score = score
		res.Found = true
		return res
	}

	t.metrics.LookupFallbacks.WithLabelValues("none").Inc()
	res.Score = NeutralDefaultScore
	return res
}

// contextScore reads one cell of the snapshot.
func contextScore(snap *snapshot, key string, ctx domain.ContextLabel) (float64, bool) {
	contexts, ok := snap.scores[key]
	if !ok {
		return 0, false
	}
	score, ok := contexts[ctx.String()]
	return score, ok
}

// nearestScore probes outward from the segment in StepKm increments up to
// ScalarRadiusKm, trying the backward neighbor before the forward one at each
// distance, and returns the first score found for the requested context.
func nearestScore(snap *snapshot, seg domain.Segment, ctx domain.ContextLabel, p Params) (float64, bool) {
	for offset := p.StepKm; offset <= p.ScalarRadiusKm; offset += p.StepKm {
		if score, ok := contextScore(snap, seg.Shifted(-offset).Key(), ctx); ok {
			return score, true
		}
		if score, ok := contextScore(snap, seg.Shifted(offset).Key(), ctx); ok {
			return score, true
		}
	}
	return 0, false
}

// nearbySegments collects up to NearbyLimit neighboring scores within
// NearbyRadiusKm for the requested context, sorted by increasing distance.
// Purely diagnostic; it does not influence the scalar result.
func (t *Table) nearbySegments(snap *snapshot, seg domain.Segment, ctx domain.ContextLabel, p Params) []domain.NearbySegment {
	var nearby []domain.NearbySegment

	for offset := p.StepKm; offset <= p.NearbyRadiusKm && len(nearby) < p.NearbyLimit; offset += p.StepKm {
		for _, neighbor := range []domain.Segment{seg.Shifted(-offset), seg.Shifted(offset)} {
			if len(nearby) >= p.NearbyLimit {
				break
			}
			if score, ok := contextScore(snap, neighbor.Key(), ctx); ok {
				nearby = append(nearby, domain.NearbySegment{
					SegmentKey: neighbor.Key(),
					RiskScore:  score,
					DistanceKm: offset,
				})
			}
		}
	}

	sort.SliceStable(nearby, func(i, j int) bool {
		return nearby[i].DistanceKm < nearby[j].DistanceKm
	})
	return nearby
}
