package engine

import (
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/viaseguro/roadrisk/internal/domain"
)

// RouteStop is one point along a planned route.
type RouteStop struct {
	Region  string  `json:"region"`
	Highway string  `json:"highway"`
	Km      float64 `json:"km"`
}

// RouteRequest asks for an aggregated risk picture over an ordered list of
// stops sharing one travel context.
type RouteRequest struct {
	Stops   []RouteStop `json:"stops"`
	Hour    *int        `json:"hour,omitempty"`
	Weather string      `json:"weather,omitempty"`
}

// RouteVerdict is the aggregate answer for a route.
type RouteVerdict struct {
	OverallLevel    domain.RiskLevel     `json:"overall_level"`
	AverageScore    float64              `json:"average_score"`
	MaxScore        float64              `json:"max_score"`
	CriticalStops   int                  `json:"critical_stops"`
	HighStops       int                  `json:"high_stops"`
	Stops           []domain.RiskVerdict `json:"stops"`
	WorstSegments   []domain.RiskVerdict `json:"worst_segments"`
	Recommendations []string             `json:"recommendations"`
}

const worstSegmentLimit = 3

// LookupRisk answers one location from the historical table alone, without
// consulting the remote models. This is the cheap path route aggregation and
// diagnostic callers use.
func (e *Engine) LookupRisk(req domain.PredictionRequest) (domain.RiskVerdict, error) {
	if err := validateRequest(req); err != nil {
		return domain.RiskVerdict{}, err
	}

	hour := e.clock.Now().Hour()
	if req.Hour != nil {
		hour = *req.Hour
	}

	seg := domain.ResolveSegment(req.Region, req.Highway, req.Km)
	ctx := domain.NormalizeContext(&hour, req.Weather)
	lookup := e.table.Lookup(seg, ctx, e.params)

	level := domain.LevelForScore(lookup.Score)
	verdict := domain.RiskVerdict{
		SegmentKey:     seg.Key(),
		RiskScore:      lookup.Score,
		RiskLevel:      level,
		ContextUsed:    lookup.ContextUsed.String(),
		Found:          lookup.Found,
		NearbySegments: lookup.Nearby,
		Recommendations: lookupRecommendations(level, normalized{
			segment:   seg,
			context:   lookup.ContextUsed,
			hour:      hour,
			dayOfWeek: int(e.clock.Now().Weekday()),
		}),
	}
	return verdict, nil
}

// PredictRoute resolves every stop from the historical table under the shared
// context and aggregates. Stop-level failures are validation failures only,
// and any one fails the whole route: a partial route picture is misleading.
func (e *Engine) PredictRoute(req RouteRequest) (RouteVerdict, error) {
	if len(req.Stops) == 0 {
		return RouteVerdict{}, &ValidationError{Field: "stops", Message: "at least one stop required"}
	}

	stops := make([]domain.RiskVerdict, 0, len(req.Stops))
	scores := make([]float64, 0, len(req.Stops))
	verdict := RouteVerdict{}

	for _, stop := range req.Stops {
		sv, err := e.LookupRisk(domain.PredictionRequest{
			Region:  stop.Region,
			Highway: stop.Highway,
			Km:      stop.Km,
			Hour:    req.Hour,
			Weather: req.Weather,
		})
		if err != nil {
			return RouteVerdict{}, err
		}

		stops = append(stops, sv)
		scores = append(scores, sv.RiskScore)
		if sv.RiskScore > verdict.MaxScore {
			verdict.MaxScore = sv.RiskScore
		}
		switch sv.RiskLevel {
		case domain.LevelCritical:
			verdict.CriticalStops++
		case domain.LevelHigh:
			verdict.HighStops++
		}
	}

	verdict.Stops = stops
	verdict.AverageScore = stat.Mean(scores, nil)
	verdict.OverallLevel = routeLevel(verdict)
	verdict.WorstSegments = worstSegments(stops)
	verdict.Recommendations = routeRecommendations(verdict)

	e.metrics.PredictionsTotal.WithLabelValues("route").Inc()
	return verdict, nil
}

// routeLevel derives the overall level: a single critical stop makes the
// route critical, a single high stop makes it at least high, and the average
// decides between the remaining bands.
func routeLevel(v RouteVerdict) domain.RiskLevel {
	switch {
	case v.CriticalStops > 0 || v.AverageScore >= 80:
		return domain.LevelCritical
	case v.HighStops > 0 || v.AverageScore >= 60:
		return domain.LevelHigh
	case v.AverageScore >= 40:
		return domain.LevelModerate
	default:
		return domain.LevelLow
	}
}

func worstSegments(stops []domain.RiskVerdict) []domain.RiskVerdict {
	worst := make([]domain.RiskVerdict, len(stops))
	copy(worst, stops)
	sort.SliceStable(worst, func(i, j int) bool {
		return worst[i].RiskScore > worst[j].RiskScore
	})
	if len(worst) > worstSegmentLimit {
		worst = worst[:worstSegmentLimit]
	}
	return worst
}

func routeRecommendations(v RouteVerdict) []string {
	var recs []string

	switch v.OverallLevel {
	case domain.LevelCritical:
		recs = append(recs, "Route crosses critical risk areas: consider rescheduling or rerouting")
	case domain.LevelHigh:
		recs = append(recs, "Route includes high risk stretches: plan extra travel time and breaks")
	case domain.LevelModerate:
		recs = append(recs, "Moderate overall route risk: stay alert through the flagged segments")
	default:
		recs = append(recs, "Relatively low overall route risk")
	}

	if v.CriticalStops > 0 {
		recs = append(recs, "Reduce speed well below the limit through the critical segments")
	}
	if v.CriticalStops+v.HighStops > 0 {
		recs = append(recs, "Review the worst segments list before departure")
	}

	return recs
}
