// Package weather resolves a best-effort current weather condition for an
// approximate highway location. Resolution is a terminal, always-successful
// degradation chain: cache, live provider, fixed fallback. It never errors.
package weather

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/viaseguro/roadrisk/internal/domain"
	"github.com/viaseguro/roadrisk/internal/observability"
)

// Resolution sources.
const (
	SourceLive     = "live"
	SourceCached   = "cached"
	SourceFallback = "fallback"
)

// Resolution is the outcome of a weather lookup.
type Resolution struct {
	Condition domain.WeatherCategory
	Source    string // live, cached, or fallback
	Station   string
}

// refPoint is a coarse per-region reference coordinate. This is a deliberate
// approximation, not geocoding: conditions vary slowly enough at the 10 km
// bucket scale that the regional capital plus a kilometer-proportional shift
// is good enough for context selection.
type refPoint struct {
	lat, lon float64
}

var regionRefPoints = map[string]refPoint{
	"SP": {-23.5505, -46.6333},
	"RJ": {-22.9068, -43.1729},
	"MG": {-19.9167, -43.9345},
	"RS": {-30.0346, -51.2177},
	"PR": {-25.4284, -49.2733},
	"SC": {-27.5954, -48.5480},
	"BA": {-12.9777, -38.5016},
	"PE": {-8.0476, -34.8770},
	"CE": {-3.7319, -38.5267},
	"DF": {-15.7801, -47.9292},
	"GO": {-16.6869, -49.2648},
}

// Resolver answers "what is the weather near this highway location" with a
// bounded cache in front of the live provider. Disabled resolvers (no API
// key) short-circuit straight to the fallback condition.
type Resolver struct {
	provider Provider
	cache    *conditionCache
	enabled  bool
	timeout  time.Duration
	logger   *slog.Logger
	metrics  *observability.Metrics
}

// NewResolver wires a Resolver. provider may be nil when disabled.
func NewResolver(provider Provider, enabled bool, ttl time.Duration, cacheSize int, timeout time.Duration, clk clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics) *Resolver {
	return &Resolver{
		provider: provider,
		cache:    newConditionCache(ttl, cacheSize, clk),
		enabled:  enabled && provider != nil,
		timeout:  timeout,
		logger:   logger,
		metrics:  metrics,
	}
}

// Resolve returns the current weather category for the location. The chain is
// cache, then live provider, then the fixed fallback "clear"; every failure
// path lands on the fallback, so the method never returns an error.
func (r *Resolver) Resolve(ctx context.Context, region, highway string, km float64) Resolution {
	if !r.enabled {
		return r.fallback()
	}

	ref, ok := regionRefPoints[domain.ResolveSegment(region, highway, km).Region]
	if !ok {
		r.logger.Debug("no reference coordinate for region", "region", region)
		return r.fallback()
	}

	lat, lon := approximateCoordinate(ref, km)
	key := fmt.Sprintf("%.2f,%.2f", lat, lon)

	if e, ok := r.cache.get(key); ok {
		r.metrics.WeatherLookups.WithLabelValues(SourceCached).Inc()
		return Resolution{Condition: e.condition, Source: SourceCached, Station: e.station}
	}

	callCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	obs, err := r.provider.Current(callCtx, lat, lon)
	if err != nil {
		r.logger.Warn("weather provider unavailable, using fallback condition",
			"region", region, "highway", highway, "km", km, "error", err)
		return r.fallback()
	}

	condition := domain.MapProviderCondition(obs.Condition)
	r.cache.put(key, condition, obs.Station)
	r.metrics.WeatherLookups.WithLabelValues(SourceLive).Inc()

	return Resolution{Condition: condition, Source: SourceLive, Station: obs.Station}
}

// Enabled reports whether live resolution is configured.
func (r *Resolver) Enabled() bool {
	return r.enabled
}

// CacheSize returns the current number of cached conditions.
func (r *Resolver) CacheSize() int {
	return r.cache.size()
}

func (r *Resolver) fallback() Resolution {
	r.metrics.WeatherLookups.WithLabelValues(SourceFallback).Inc()
	return Resolution{Condition: domain.WeatherClear, Source: SourceFallback}
}

// approximateCoordinate shifts the regional reference point proportionally to
// the kilometer marker. The shift is deterministic so that repeated requests
// for the same location hit the same cache key.
func approximateCoordinate(ref refPoint, km float64) (float64, float64) {
	if km < 0 {
		km = 0
	}
	// Roughly 0.01 degree per 10 km of highway, southward.
	offset := (km / 10) * 0.01
	return ref.lat - offset, ref.lon
}
