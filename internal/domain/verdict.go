package domain

import "time"

// RiskLevel is the ordinal classification of a numeric risk score.
type RiskLevel string

const (
	LevelLow      RiskLevel = "low"
	LevelModerate RiskLevel = "moderate"
	LevelHigh     RiskLevel = "high"
	LevelCritical RiskLevel = "critical"
)

// LevelForScore maps a score in [0,100] to its risk level. The thresholds
// 40, 60 and 80 are inclusive lower bounds of the next class, so every score
// maps to exactly one level.
func LevelForScore(score float64) RiskLevel {
	switch {
	case score >= 80:
		return LevelCritical
	case score >= 60:
		return LevelHigh
	case score >= 40:
		return LevelModerate
	default:
		return LevelLow
	}
}

// WeatherProvenance records where the weather condition used for a
// prediction came from.
type WeatherProvenance string

const (
	WeatherFromUser     WeatherProvenance = "user-supplied"
	WeatherFromLiveAPI  WeatherProvenance = "live-weather-api"
	WeatherFromFallback WeatherProvenance = "fallback-default"
)

// PredictionRequest is the engine's input. Region, Highway and Km are
// required; the remaining fields default from the request clock when nil.
type PredictionRequest struct {
	Region          string  `json:"region"`
	Highway         string  `json:"highway"`
	Km              float64 `json:"km"`
	Hour            *int    `json:"hour,omitempty"`        // [0,23]
	DayOfWeek       *int    `json:"day_of_week,omitempty"` // [0,6], 0 = Sunday
	Month           *int    `json:"month,omitempty"`       // [1,12]
	Weather         string  `json:"weather,omitempty"`
	PreferLiveModel bool    `json:"prefer_live_model,omitempty"`
}

// NearbySegment is one entry of the diagnostic list returned when the exact
// segment/context had no score and neighbors were consulted.
type NearbySegment struct {
	SegmentKey string  `json:"segment_key"`
	RiskScore  float64 `json:"risk_score"`
	DistanceKm int     `json:"distance_km"`
}

// RiskVerdict is the historical-lookup half of a prediction: the resolved
// segment, the score actually found (or the neutral default), and enough
// provenance for the caller to judge trust.
type RiskVerdict struct {
	SegmentKey      string            `json:"segment_key"`
	RiskScore       float64           `json:"risk_score"`
	RiskLevel       RiskLevel         `json:"risk_level"`
	ContextUsed     string            `json:"context_used"`
	Found           bool              `json:"found"`
	WeatherSource   WeatherProvenance `json:"weather_source,omitempty"`
	WeatherUsed     string            `json:"weather_used,omitempty"`
	NearbySegments  []NearbySegment   `json:"nearby_segments,omitempty"`
	Recommendations []string          `json:"recommendations,omitempty"`
}

// SeverityClass is the coarse three-way severity shared by both models:
// 0 = no injuries, 1 = injuries, 2 = fatalities.
type SeverityClass int

const (
	ClassNoInjuries SeverityClass = 0
	ClassInjuries   SeverityClass = 1
	ClassFatalities SeverityClass = 2
)

// Classification labels produced by the classification model.
const (
	LabelNoInjuries = "no_injuries"
	LabelInjuries   = "injuries"
	LabelFatalities = "fatalities"
)

// ClassProbabilities is the per-class probability vector reported (or
// estimated) for a severity prediction.
type ClassProbabilities struct {
	NoInjuries float64 `json:"no_injuries"`
	Injuries   float64 `json:"injuries"`
	Fatalities float64 `json:"fatalities"`
}

// RiskModelResult is the severity model's contribution to the ensemble.
// Source records whether it came from the live model or the lookup table.
type RiskModelResult struct {
	Score          float64            `json:"score"`
	PredictedClass SeverityClass      `json:"predicted_class"`
	Probabilities  ClassProbabilities `json:"probabilities"`
	Source         string             `json:"source"` // "live_model" or "lookup"
}

// ClassificationResult is the classification model's contribution.
type ClassificationResult struct {
	Label         string             `json:"label"`
	Confidence    float64            `json:"confidence"` // [0,1]
	Probabilities ClassProbabilities `json:"probabilities"`
	SeverityIndex SeverityClass      `json:"severity_index"`
}

// ConfidenceLevel is the qualitative confidence of an ensemble verdict.
type ConfidenceLevel string

const (
	ConfidenceLow      ConfidenceLevel = "low"
	ConfidenceMedium   ConfidenceLevel = "medium"
	ConfidenceHigh     ConfidenceLevel = "high"
	ConfidenceVeryHigh ConfidenceLevel = "very-high"
)

// EnsembleDiagnostics carries the agreement and consistency analysis of a
// combined prediction.
type EnsembleDiagnostics struct {
	ModelsAgree     bool            `json:"models_agree"`
	AgreementScore  float64         `json:"agreement_score"` // [0,100]
	ConfidenceLevel ConfidenceLevel `json:"confidence_level"`
	WeightedScore   float64         `json:"weighted_score"`
	Inconsistencies []string        `json:"inconsistencies"`
}

// EnsembleVerdict is the engine's final answer: one calibrated score with
// per-model sub-results and diagnostics. Computed fresh per request, never
// persisted by the engine.
type EnsembleVerdict struct {
	RiskScore                float64   `json:"risk_score"`
	RiskLevel                RiskLevel `json:"risk_level"`
	AccidentClassification   string    `json:"accident_classification"`
	ClassificationConfidence float64   `json:"classification_confidence"`

	RiskModel           *RiskModelResult      `json:"risk_model,omitempty"`
	ClassificationModel *ClassificationResult `json:"classification_model,omitempty"`

	Ensemble        EnsembleDiagnostics `json:"ensemble"`
	Recommendations []string            `json:"recommendations"`

	Location      string            `json:"location"`
	Timestamp     time.Time         `json:"timestamp"`
	ModelsUsed    []string          `json:"models_used"`
	FallbackUsed  bool              `json:"fallback_used"`
	WeatherSource WeatherProvenance `json:"weather_source,omitempty"`
	WeatherUsed   string            `json:"weather_used,omitempty"`
}
