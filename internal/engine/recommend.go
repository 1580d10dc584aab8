package engine

import (
	"github.com/viaseguro/roadrisk/internal/domain"
)

// ensembleRecommendations builds driver-facing guidance from the combined
// verdict and the normalized request context. Rules are ordered from most to
// least severe so the first lines carry the headline.
func ensembleRecommendations(v domain.EnsembleVerdict, in normalized) []string {
	recs := levelRecommendations(v.RiskLevel)

	switch v.AccidentClassification {
	case domain.LabelFatalities:
		recs = append(recs, "Accidents on this stretch have a high probability of fatal outcomes")
	case domain.LabelInjuries:
		recs = append(recs, "Accidents on this stretch commonly involve injuries; check safety equipment")
	}

	recs = append(recs, contextRecommendations(in)...)

	if v.Ensemble.ModelsAgree {
		recs = append(recs, "Both models agree on the severity, increasing reliability")
	} else if len(v.Ensemble.Inconsistencies) > 0 {
		recs = append(recs, "Models diverge on severity; treat the estimate with extra caution")
	}

	return recs
}

// lookupRecommendations is the guidance for the historical-lookup-only path.
func lookupRecommendations(level domain.RiskLevel, in normalized) []string {
	return append(levelRecommendations(level), contextRecommendations(in)...)
}

func levelRecommendations(level domain.RiskLevel) []string {
	switch level {
	case domain.LevelCritical:
		return []string{
			"Critical risk area: consider an alternative route",
			"If travel is necessary, reduce speed by at least 30%",
			"Keep double the usual following distance",
		}
	case domain.LevelHigh:
		return []string{
			"High risk area: reduce speed by around 20%",
			"Avoid overtaking on this stretch",
		}
	case domain.LevelModerate:
		return []string{
			"Moderate risk: stay alert and respect the speed limit",
		}
	default:
		return []string{
			"Relatively low risk for this stretch",
			"Maintain defensive driving habits",
		}
	}
}

func contextRecommendations(in normalized) []string {
	var recs []string

	if in.context.Phase == domain.PhaseNight {
		recs = append(recs, "Night period: use high beams where allowed and watch for fatigue")
	}
	if in.context.Weather == domain.WeatherRainy {
		recs = append(recs, "Wet conditions: increase following distance and reduce speed")
	}
	if in.dayOfWeek == 0 || in.dayOfWeek == 6 {
		recs = append(recs, "Weekend traffic: expect more recreational vehicles and variable speeds")
	}

	return recs
}
