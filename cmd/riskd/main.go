package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jonboulle/clockwork"

	"github.com/viaseguro/roadrisk/internal/adapter/httpadapter"
	"github.com/viaseguro/roadrisk/internal/adapter/model"
	"github.com/viaseguro/roadrisk/internal/config"
	"github.com/viaseguro/roadrisk/internal/engine"
	"github.com/viaseguro/roadrisk/internal/geography"
	"github.com/viaseguro/roadrisk/internal/observability"
	"github.com/viaseguro/roadrisk/internal/scoretable"
	"github.com/viaseguro/roadrisk/internal/weather"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()
	clk := clockwork.NewRealClock()

	table := scoretable.NewTable(cfg.ScoresPath, logger, metrics)

	geo := geography.NewValidator(cfg.HighwaysPath, logger)

	// Weather resolution is feature-flagged via WEATHER_API_KEY / WEATHER_ENABLED.
	var provider weather.Provider
	if cfg.WeatherEnabled {
		provider = weather.NewClient(cfg.WeatherAPIKey, cfg.WeatherTimeout)
		logger.Info("live weather resolution enabled",
			"cache_size", cfg.WeatherCacheSize, "cache_ttl", cfg.WeatherCacheTTL, "timeout", cfg.WeatherTimeout)
	} else {
		logger.Info("live weather resolution disabled, using fallback conditions")
	}
	resolver := weather.NewResolver(provider, cfg.WeatherEnabled, cfg.WeatherCacheTTL,
		cfg.WeatherCacheSize, cfg.WeatherTimeout, clk, logger, metrics)

	severity := model.NewSeverityClient(cfg.SeverityAPIURL, cfg.SeverityTimeout)
	classifier := model.NewClassificationClient(cfg.ClassifierAPIURL, cfg.ClassifierTimeout)

	params := scoretable.Params{
		ScalarRadiusKm: cfg.LookupScalarRadiusKm,
		NearbyRadiusKm: cfg.LookupNearbyRadiusKm,
		StepKm:         cfg.LookupStepKm,
		NearbyLimit:    cfg.LookupNearbyLimit,
	}

	eng := engine.New(table, geo, resolver, severity, classifier, params, clk, logger, metrics)

	srv := httpadapter.NewServer(cfg.HTTPAddr, eng, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Probe model availability once at startup; the status endpoint re-probes
	// on demand after that.
	eng.RefreshAvailability(ctx)

	// Watch the highways file for edits when one is configured.
	if cfg.HighwaysPath != "" {
		go func() {
			if err := geo.Watch(ctx, cfg.HighwaysPath); err != nil {
				logger.Error("highways watcher error", "error", err)
			}
		}()
	}

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}

	logger.Info("shutdown complete")
}
