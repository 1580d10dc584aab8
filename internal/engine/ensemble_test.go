package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viaseguro/roadrisk/internal/domain"
)

func liveRisk(score float64, class domain.SeverityClass) *domain.RiskModelResult {
	return &domain.RiskModelResult{
		Score:          score,
		PredictedClass: class,
		Probabilities:  estimateProbabilities(score),
		Source:         sourceLiveModel,
	}
}

func lookupRisk(score float64) *domain.RiskModelResult {
	return &domain.RiskModelResult{
		Score:          score,
		PredictedClass: scoreToClass(score),
		Probabilities:  estimateProbabilities(score),
		Source:         "lookup",
	}
}

func classification(label string, class domain.SeverityClass, confidence float64) *domain.ClassificationResult {
	return &domain.ClassificationResult{
		Label:         label,
		Confidence:    confidence,
		SeverityIndex: class,
	}
}

func TestAgreementScore(t *testing.T) {
	fatal := classification(domain.LabelFatalities, domain.ClassFatalities, 0.9)

	assert.Equal(t, 100.0, agreementScore(liveRisk(80, domain.ClassFatalities), fatal))
	assert.Equal(t, 65.0, agreementScore(liveRisk(60, domain.ClassInjuries), fatal))
	assert.Equal(t, 30.0, agreementScore(liveRisk(20, domain.ClassNoInjuries), fatal))

	assert.Equal(t, 50.0, agreementScore(liveRisk(80, domain.ClassFatalities), nil))
	assert.Equal(t, 50.0, agreementScore(nil, fatal))
	assert.Equal(t, 50.0, agreementScore(lookupRisk(80), fatal),
		"lookup-sourced risk is not a second model")
}

func TestWeightsFor(t *testing.T) {
	tests := []struct {
		agreement        float64
		risk, classifier float64
	}{
		{100, 0.5, 0.5},
		{81, 0.5, 0.5},
		{80.5, 0.5, 0.5},
		{80, 0.6, 0.4},
		{65, 0.6, 0.4},
		{50, 0.6, 0.4},
		{49.5, 0.75, 0.25},
		{49, 0.75, 0.25},
		{30, 0.75, 0.25},
		{0, 0.75, 0.25},
	}

	for _, tt := range tests {
		riskWeight, classifierWeight := weightsFor(tt.agreement)
		assert.Equal(t, tt.risk, riskWeight, "agreement %v", tt.agreement)
		assert.Equal(t, tt.classifier, classifierWeight, "agreement %v", tt.agreement)
		assert.InDelta(t, 1.0, riskWeight+classifierWeight, 1e-9, "weights must sum to 1")
	}
}

func TestConfidenceFor(t *testing.T) {
	assert.Equal(t, domain.ConfidenceVeryHigh, confidenceFor(100, 0.9)) // avg 95
	assert.Equal(t, domain.ConfidenceVeryHigh, confidenceFor(80, 0.9))  // avg 85
	assert.Equal(t, domain.ConfidenceHigh, confidenceFor(65, 0.8))      // avg 72.5
	assert.Equal(t, domain.ConfidenceHigh, confidenceFor(50, 0.9))      // avg 70
	assert.Equal(t, domain.ConfidenceMedium, confidenceFor(50, 0.5))    // avg 50
	assert.Equal(t, domain.ConfidenceLow, confidenceFor(30, 0.2))       // avg 25
}

func TestScoreToClass(t *testing.T) {
	assert.Equal(t, domain.ClassNoInjuries, scoreToClass(0))
	assert.Equal(t, domain.ClassNoInjuries, scoreToClass(39.9))
	assert.Equal(t, domain.ClassInjuries, scoreToClass(40))
	assert.Equal(t, domain.ClassInjuries, scoreToClass(69.9))
	assert.Equal(t, domain.ClassFatalities, scoreToClass(70))
	assert.Equal(t, domain.ClassFatalities, scoreToClass(100))
}

func TestEstimateProbabilities_SumToOne(t *testing.T) {
	for _, score := range []float64{10, 50, 90} {
		p := estimateProbabilities(score)
		assert.InDelta(t, 1.0, p.NoInjuries+p.Injuries+p.Fatalities, 1e-9, "score %.0f", score)
	}
}

func TestEstimateProbabilities_DominantClassMatchesScoreToClass(t *testing.T) {
	low := estimateProbabilities(20)
	assert.Greater(t, low.NoInjuries, low.Injuries)

	mid := estimateProbabilities(55)
	assert.Greater(t, mid.Injuries, mid.NoInjuries)
	assert.Greater(t, mid.Injuries, mid.Fatalities)

	high := estimateProbabilities(85)
	assert.Greater(t, high.Fatalities, high.Injuries)
}

func TestDetectInconsistencies(t *testing.T) {
	t.Run("no classification means no flags", func(t *testing.T) {
		assert.Empty(t, detectInconsistencies(liveRisk(90, domain.ClassFatalities), nil))
	})

	t.Run("matching classes are consistent", func(t *testing.T) {
		flags := detectInconsistencies(
			liveRisk(85, domain.ClassFatalities),
			classification(domain.LabelFatalities, domain.ClassFatalities, 0.9))
		assert.Empty(t, flags)
	})

	t.Run("class divergence is flagged", func(t *testing.T) {
		flags := detectInconsistencies(
			lookupRisk(45),
			classification(domain.LabelFatalities, domain.ClassFatalities, 0.9))
		require.Len(t, flags, 1)
		assert.Contains(t, flags[0], "fatalities")
	})

	t.Run("high score with no injuries", func(t *testing.T) {
		flags := detectInconsistencies(
			liveRisk(85, domain.ClassNoInjuries),
			classification(domain.LabelNoInjuries, domain.ClassNoInjuries, 0.9))
		require.Len(t, flags, 1)
		assert.Contains(t, flags[0], "no injuries")
	})

	t.Run("low score with fatalities", func(t *testing.T) {
		flags := detectInconsistencies(
			liveRisk(30, domain.ClassFatalities),
			classification(domain.LabelFatalities, domain.ClassFatalities, 0.9))
		require.Len(t, flags, 1)
		assert.Contains(t, flags[0], "fatalities")
	})
}

func TestClampScore(t *testing.T) {
	assert.Equal(t, 0.0, clampScore(-3))
	assert.Equal(t, 42.0, clampScore(42))
	assert.Equal(t, 100.0, clampScore(140))
}

func TestCombine_BothLiveModelsAgree(t *testing.T) {
	risk := liveRisk(75, domain.ClassFatalities)
	class := classification(domain.LabelFatalities, domain.ClassFatalities, 0.8)

	verdict := combine(risk, class, normalized{})

	// agreement 100, equal weights: 75*0.5 + 80*0.5 = 77.5
	assert.InDelta(t, 77.5, verdict.RiskScore, 1e-9)
	assert.Equal(t, domain.LevelHigh, verdict.RiskLevel)
	assert.True(t, verdict.Ensemble.ModelsAgree)
	assert.Equal(t, 100.0, verdict.Ensemble.AgreementScore)
	assert.Equal(t, domain.ConfidenceVeryHigh, verdict.Ensemble.ConfidenceLevel)
	assert.Empty(t, verdict.Ensemble.Inconsistencies)
	assert.Equal(t, domain.LabelFatalities, verdict.AccidentClassification)
	assert.Equal(t, []string{"severity_model", "classification_model"}, verdict.ModelsUsed)
}

func TestCombine_LookupRiskWithClassifier(t *testing.T) {
	risk := lookupRisk(45)
	class := classification(domain.LabelFatalities, domain.ClassFatalities, 0.9)

	verdict := combine(risk, class, normalized{})

	// One live model only: neutral agreement, default weights.
	// 45*0.6 + 90*0.4 = 63
	assert.Equal(t, 50.0, verdict.Ensemble.AgreementScore)
	assert.InDelta(t, 63.0, verdict.RiskScore, 1e-9)
	assert.Equal(t, domain.LevelHigh, verdict.RiskLevel)
	assert.Equal(t, domain.ConfidenceHigh, verdict.Ensemble.ConfidenceLevel)
	assert.NotEmpty(t, verdict.Ensemble.Inconsistencies)
	assert.Contains(t, verdict.Ensemble.Inconsistencies[0], "fatalities")
	assert.Equal(t, []string{"historical_lookup", "classification_model"}, verdict.ModelsUsed)
}

func TestCombine_RiskOnly(t *testing.T) {
	verdict := combine(lookupRisk(72), nil, normalized{})

	// No classifier: its confidence contributes zero to the weighted score.
	assert.InDelta(t, 43.2, verdict.RiskScore, 1e-9)
	assert.Equal(t, domain.LevelModerate, verdict.RiskLevel)
	assert.Equal(t, 50.0, verdict.Ensemble.AgreementScore)
	assert.Equal(t, []string{"historical_lookup"}, verdict.ModelsUsed)
	assert.Empty(t, verdict.Ensemble.Inconsistencies)
}

func TestCombine_NothingAvailable(t *testing.T) {
	verdict := combine(nil, nil, normalized{})

	assert.Equal(t, 50.0, verdict.RiskScore)
	assert.Equal(t, domain.LevelModerate, verdict.RiskLevel)
	assert.Equal(t, domain.ConfidenceLow, verdict.Ensemble.ConfidenceLevel)
	assert.NotEmpty(t, verdict.Ensemble.Inconsistencies)
	assert.NotEmpty(t, verdict.Recommendations)
	assert.Empty(t, verdict.ModelsUsed)
}

func TestCombine_ScoreClampedToRange(t *testing.T) {
	verdict := combine(liveRisk(100, domain.ClassFatalities),
		classification(domain.LabelFatalities, domain.ClassFatalities, 1.0), normalized{})

	assert.LessOrEqual(t, verdict.RiskScore, 100.0)
	assert.GreaterOrEqual(t, verdict.RiskScore, 0.0)
}
