package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the risk engine.
type Metrics struct {
	PredictionsTotal   *prometheus.CounterVec // labels: kind={single,batch,route}
	PredictionDuration prometheus.Histogram

	// Model client metrics.
	ModelRequests  *prometheus.CounterVec // labels: model={severity,classification}, outcome={success,error}
	ModelAvailable *prometheus.GaugeVec   // labels: model={severity,classification}

	// Weather resolver metrics.
	WeatherLookups *prometheus.CounterVec // labels: source={live,cached,fallback}

	// Score table metrics.
	LookupFallbacks *prometheus.CounterVec // labels: stage={default_context,spatial,none}
	TableSegments   prometheus.Gauge
	TableReloads    prometheus.Counter

	// Ensemble metrics.
	AgreementScore prometheus.Histogram
}

// NewMetrics creates and registers all engine metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()

	prometheus.MustRegister(
		m.PredictionsTotal,
		m.PredictionDuration,
		m.ModelRequests,
		m.ModelAvailable,
		m.WeatherLookups,
		m.LookupFallbacks,
		m.TableSegments,
		m.TableReloads,
		m.AgreementScore,
	)

	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		PredictionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "roadrisk",
			Name:      "predictions_total",
			Help:      "Total predictions served, by request kind.",
		}, []string{"kind"}),
		PredictionDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "roadrisk",
			Name:      "prediction_duration_seconds",
			Help:      "End-to-end duration of a single ensemble prediction.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
		}),
		ModelRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "roadrisk",
			Name:      "model_requests_total",
			Help:      "Remote model calls by model and outcome.",
		}, []string{"model", "outcome"}),
		ModelAvailable: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "roadrisk",
			Name:      "model_available",
			Help:      "1 when the model's last health probe succeeded, 0 otherwise.",
		}, []string{"model"}),
		WeatherLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "roadrisk",
			Name:      "weather_lookups_total",
			Help:      "Weather resolutions by source.",
		}, []string{"source"}),
		LookupFallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "roadrisk",
			Name:      "lookup_fallbacks_total",
			Help:      "Historical lookups that fell through to a degraded stage.",
		}, []string{"stage"}),
		TableSegments: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "roadrisk",
			Name:      "score_table_segments",
			Help:      "Number of segments in the loaded score table.",
		}),
		TableReloads: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "roadrisk",
			Name:      "score_table_reloads_total",
			Help:      "Successful administrative score table reloads.",
		}),
		AgreementScore: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "roadrisk",
			Name:      "ensemble_agreement_score",
			Help:      "Agreement score between the two models per prediction.",
			Buckets:   []float64{30, 50, 65, 80, 100},
		}),
	}
}
