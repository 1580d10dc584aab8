package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Score table snapshot. Absence is non-fatal: the engine starts in
	// "no historical data" mode and every lookup returns the neutral default.
	ScoresPath string

	// Highway geography extents. Optional; built-in defaults are used when
	// unset or unreadable.
	HighwaysPath string

	// Weather provider configuration.
	WeatherAPIKey    string
	WeatherEnabled   bool
	WeatherTimeout   time.Duration
	WeatherCacheTTL  time.Duration
	WeatherCacheSize int

	// Model-serving endpoints.
	SeverityAPIURL    string
	SeverityTimeout   time.Duration
	ClassifierAPIURL  string
	ClassifierTimeout time.Duration

	// Spatial fallback search policy. These were embedded constants in the
	// model-training pipeline; exposed here so operators can tune them.
	LookupScalarRadiusKm int
	LookupNearbyRadiusKm int
	LookupStepKm         int
	LookupNearbyLimit    int
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := parseDuration("SHUTDOWN_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	weatherTimeout, err := parseDuration("WEATHER_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	weatherCacheTTL, err := parseDuration("WEATHER_CACHE_TTL", "30m")
	if err != nil {
		return nil, err
	}
	severityTimeout, err := parseDuration("SEVERITY_API_TIMEOUT", "5s")
	if err != nil {
		return nil, err
	}
	classifierTimeout, err := parseDuration("CLASSIFIER_API_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}

	weatherKey := os.Getenv("WEATHER_API_KEY")
	weatherEnabled := weatherKey != ""
	if v := os.Getenv("WEATHER_ENABLED"); v != "" {
		weatherEnabled = v == "true"
	}

	cfg := &Config{
		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		ScoresPath:   envOrDefault("RISK_SCORES_PATH", "data/risk_scores.json"),
		HighwaysPath: os.Getenv("HIGHWAYS_PATH"),

		WeatherAPIKey:    weatherKey,
		WeatherEnabled:   weatherEnabled,
		WeatherTimeout:   weatherTimeout,
		WeatherCacheTTL:  weatherCacheTTL,
		WeatherCacheSize: envIntOrDefault("WEATHER_CACHE_SIZE", 100),

		SeverityAPIURL:    envOrDefault("SEVERITY_API_URL", "http://localhost:5000"),
		SeverityTimeout:   severityTimeout,
		ClassifierAPIURL:  envOrDefault("CLASSIFIER_API_URL", "http://localhost:5001"),
		ClassifierTimeout: classifierTimeout,

		LookupScalarRadiusKm: envIntOrDefault("LOOKUP_SCALAR_RADIUS_KM", 20),
		LookupNearbyRadiusKm: envIntOrDefault("LOOKUP_NEARBY_RADIUS_KM", 50),
		LookupStepKm:         envIntOrDefault("LOOKUP_STEP_KM", 10),
		LookupNearbyLimit:    envIntOrDefault("LOOKUP_NEARBY_LIMIT", 3),
	}

	if cfg.WeatherEnabled && cfg.WeatherAPIKey == "" {
		return nil, errors.New("WEATHER_ENABLED is true but WEATHER_API_KEY is not set")
	}
	if cfg.SeverityAPIURL == "" {
		return nil, errors.New("SEVERITY_API_URL is required")
	}
	if cfg.ClassifierAPIURL == "" {
		return nil, errors.New("CLASSIFIER_API_URL is required")
	}
	if cfg.LookupStepKm <= 0 {
		return nil, errors.New("LOOKUP_STEP_KM must be positive")
	}
	if cfg.LookupScalarRadiusKm < cfg.LookupStepKm {
		return nil, errors.New("LOOKUP_SCALAR_RADIUS_KM must be at least LOOKUP_STEP_KM")
	}
	if cfg.WeatherCacheSize <= 0 {
		return nil, errors.New("WEATHER_CACHE_SIZE must be positive")
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOrDefault(key string, fallback int) int {
	if s := os.Getenv(key); s != "" {
		if n, err := strconv.Atoi(s); err == nil {
			return n
		}
	}
	return fallback
}

func parseDuration(key, fallback string) (time.Duration, error) {
	s := envOrDefault(key, fallback)
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, s)
	}
	return d, nil
}
