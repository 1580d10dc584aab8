package engine

import (
	"fmt"

	"github.com/viaseguro/roadrisk/internal/domain"
)

// sourceLiveModel marks a risk slot produced by the live severity model.
// Lookup-sourced slots score and rank normally but do not count as a second
// model for agreement purposes.
const sourceLiveModel = "live_model"

// weightsFor maps an agreement score to the risk/classification weight pair.
// Agreement strictly above 80 evens the weights, agreement in [50,80] keeps
// the base 0.6/0.4 split, and anything below 50 leans on the more
// conservative risk score. The pair always sums to 1.
func weightsFor(agreement float64) (riskWeight, classifierWeight float64) {
	switch {
	case agreement > 80:
		return 0.5, 0.5
	case agreement >= 50:
		return 0.6, 0.4
	default:
		return 0.75, 0.25
	}
}

// agreementScore compares the coarse severity classes of the two models.
// Same class scores 100, adjacent classes 65, divergent 30. If fewer than two
// live models responded the score is the neutral 50.
func agreementScore(risk *domain.RiskModelResult, class *domain.ClassificationResult) float64 {
	if risk == nil || class == nil || risk.Source != sourceLiveModel {
		return 50
	}
	diff := int(risk.PredictedClass) - int(class.SeverityIndex)
	if diff < 0 {
		diff = -diff
	}
	switch diff {
	case 0:
		return 100
	case 1:
		return 65
	default:
		return 30
	}
}

// confidenceFor averages the agreement score with the classifier's confidence
// (scaled to [0,100]) and buckets the result.
func confidenceFor(agreement, classifierConfidence float64) domain.ConfidenceLevel {
	avg := (agreement + classifierConfidence*100) / 2
	switch {
	case avg >= 85:
		return domain.ConfidenceVeryHigh
	case avg >= 70:
		return domain.ConfidenceHigh
	case avg >= 50:
		return domain.ConfidenceMedium
	default:
		return domain.ConfidenceLow
	}
}

// detectInconsistencies flags contradictions between the two sub-results.
func detectInconsistencies(risk *domain.RiskModelResult, class *domain.ClassificationResult) []string {
	inconsistencies := []string{}
	if class == nil {
		return inconsistencies
	}

	if risk.PredictedClass != class.SeverityIndex {
		inconsistencies = append(inconsistencies, fmt.Sprintf(
			"severity classes diverge: risk model predicts %s, classifier indicates %s",
			labelForClass(risk.PredictedClass), class.Label))
	}
	if risk.Score > 70 && class.SeverityIndex == domain.ClassNoInjuries {
		inconsistencies = append(inconsistencies, "high risk score but classification indicates no injuries")
	}
	if risk.Score < 40 && class.SeverityIndex == domain.ClassFatalities {
		inconsistencies = append(inconsistencies, "low risk score but classification indicates fatalities")
	}
	return inconsistencies
}

// scoreToClass derives a coarse severity class from a numeric score. Used
// when the risk slot comes from the lookup table and has no model-reported
// class.
func scoreToClass(score float64) domain.SeverityClass {
	switch {
	case score < 40:
		return domain.ClassNoInjuries
	case score < 70:
		return domain.ClassInjuries
	default:
		return domain.ClassFatalities
	}
}

// estimateProbabilities produces a plausible probability vector for a
// lookup-derived score. The buckets mirror scoreToClass.
func estimateProbabilities(score float64) domain.ClassProbabilities {
	switch {
	case score < 40:
		return domain.ClassProbabilities{NoInjuries: 0.7, Injuries: 0.25, Fatalities: 0.05}
	case score < 70:
		return domain.ClassProbabilities{NoInjuries: 0.3, Injuries: 0.5, Fatalities: 0.2}
	default:
		return domain.ClassProbabilities{NoInjuries: 0.1, Injuries: 0.4, Fatalities: 0.5}
	}
}

func labelForClass(c domain.SeverityClass) string {
	switch c {
	case domain.ClassFatalities:
		return domain.LabelFatalities
	case domain.ClassInjuries:
		return domain.LabelInjuries
	default:
		return domain.LabelNoInjuries
	}
}

func clampScore(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// combine folds the per-model sub-results into one calibrated verdict. It is
// total: a nil risk slot yields the neutral default verdict rather than an
// error, so every request gets an answer.
func combine(risk *domain.RiskModelResult, class *domain.ClassificationResult, in normalized) domain.EnsembleVerdict {
	if risk == nil {
		return neutralVerdict(class)
	}

	agreement := agreementScore(risk, class)
	riskWeight, classifierWeight := weightsFor(agreement)

	classifierConfidence := 0.0
	label := labelForClass(risk.PredictedClass)
	if class != nil {
		classifierConfidence = class.Confidence
		label = class.Label
	}

	weighted := clampScore(risk.Score*riskWeight + classifierConfidence*100*classifierWeight)
	level := domain.LevelForScore(weighted)

	verdict := domain.EnsembleVerdict{
		RiskScore:                weighted,
		RiskLevel:                level,
		AccidentClassification:   label,
		ClassificationConfidence: classifierConfidence,
		RiskModel:                risk,
		ClassificationModel:      class,
		Ensemble: domain.EnsembleDiagnostics{
			ModelsAgree:     agreement == 100,
			AgreementScore:  agreement,
			ConfidenceLevel: confidenceFor(agreement, classifierConfidence),
			WeightedScore:   weighted,
			Inconsistencies: detectInconsistencies(risk, class),
		},
	}

	verdict.ModelsUsed = modelsUsed(risk, class)
	verdict.Recommendations = ensembleRecommendations(verdict, in)
	return verdict
}

// neutralVerdict is the answer of last resort when no sub-result exists at
// all. A fixed mid-scale score with low confidence tells the caller "drive
// carefully, we genuinely do not know".
func neutralVerdict(class *domain.ClassificationResult) domain.EnsembleVerdict {
	verdict := domain.EnsembleVerdict{
		RiskScore:              50,
		RiskLevel:              domain.LevelModerate,
		AccidentClassification: domain.LabelInjuries,
		ClassificationModel:    class,
		Ensemble: domain.EnsembleDiagnostics{
			ModelsAgree:     false,
			AgreementScore:  50,
			ConfidenceLevel: domain.ConfidenceLow,
			WeightedScore:   50,
			Inconsistencies: []string{"no model produced a result; neutral default applied"},
		},
		Recommendations: []string{
			"Risk could not be estimated for this location",
			"Drive defensively and observe posted limits",
		},
	}
	if class != nil {
		verdict.AccidentClassification = class.Label
		verdict.ClassificationConfidence = class.Confidence
		verdict.ModelsUsed = []string{"classification_model"}
	}
	return verdict
}

func modelsUsed(risk *domain.RiskModelResult, class *domain.ClassificationResult) []string {
	used := make([]string, 0, 2)
	if risk.Source == sourceLiveModel {
		used = append(used, "severity_model")
	} else {
		used = append(used, "historical_lookup")
	}
	if class != nil {
		used = append(used, "classification_model")
	}
	return used
}
