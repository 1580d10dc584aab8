package domain

import "strings"

// DayPhase is the coarse time-of-day half of a context label.
type DayPhase string

// WeatherCategory is the coarse weather half of a context label.
type WeatherCategory string

const (
	PhaseDay   DayPhase = "day"
	PhaseNight DayPhase = "night"

	WeatherClear  WeatherCategory = "clear"
	WeatherCloudy WeatherCategory = "cloudy"
	WeatherRainy  WeatherCategory = "rainy"
)

// ContextLabel selects among the precomputed scores for a segment. Exactly
// one day phase and one weather category per label.
type ContextLabel struct {
	Phase   DayPhase
	Weather WeatherCategory
}

// String renders the score-table context key, e.g. "day_clear".
func (c ContextLabel) String() string {
	return string(c.Phase) + "_" + string(c.Weather)
}

// DefaultContext is the fallback context tried when a segment has no score
// for the requested one.
func DefaultContext() ContextLabel {
	return ContextLabel{Phase: PhaseDay, Weather: WeatherClear}
}

// rainyTerms and cloudyTerms are the fixed substring rule table used to fold
// free-form weather text into the three categories the score table was built
// with. Both the provider's English vocabulary and the Portuguese vocabulary
// of the source accident records are listed. Mist and fog map to rainy here
// because the precomputed table groups low-visibility conditions with rain;
// the live-provider mapping in MapProviderCondition differs deliberately.
var (
	rainyTerms  = []string{"rain", "drizzle", "storm", "chuva", "chuvoso", "garoa", "neblina", "nevoeiro"}
	cloudyTerms = []string{"cloud", "nublado", "overcast"}
)

// NormalizeContext maps an optional hour and free-form weather text into a
// canonical context label. Hour in [6,18) is day, anything else night. When
// hour is nil the current wall-clock hour is used; callers wanting
// determinism should always supply it. Unrecognized weather text defaults to
// clear, so no unmapped value escapes.
func NormalizeContext(hour *int, weatherText string) ContextLabel {
	h := clock.Now().Hour()
	if hour != nil {
		h = *hour
	}

	phase := PhaseNight
	if h >= 6 && h < 18 {
		phase = PhaseDay
	}

	return ContextLabel{Phase: phase, Weather: CategorizeWeatherText(weatherText)}
}

// CategorizeWeatherText applies the substring rule table to free-form
// weather text. The mapping is intentionally coarse and lossy.
func CategorizeWeatherText(text string) WeatherCategory {
	text = strings.ToLower(strings.TrimSpace(text))
	if text == "" {
		return WeatherClear
	}
	for _, term := range rainyTerms {
		if strings.Contains(text, term) {
			return WeatherRainy
		}
	}
	for _, term := range cloudyTerms {
		if strings.Contains(text, term) {
			return WeatherCloudy
		}
	}
	return WeatherClear
}

// MapProviderCondition folds the weather provider's categorical condition
// (the "main" field of a current-weather response) into a category. Unlike
// the free-text rule table, mist and fog count as cloudy here: this mapping
// follows the provider's own condition taxonomy.
func MapProviderCondition(condition string) WeatherCategory {
	c := strings.ToLower(condition)
	switch {
	case strings.Contains(c, "rain"), strings.Contains(c, "drizzle"), strings.Contains(c, "thunderstorm"):
		return WeatherRainy
	case strings.Contains(c, "cloud"), strings.Contains(c, "mist"), strings.Contains(c, "fog"):
		return WeatherCloudy
	default:
		return WeatherClear
	}
}
