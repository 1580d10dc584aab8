// Package engine is the risk resolution core: it normalizes a prediction
// request, resolves weather context, fans out to the historical lookup and
// the two remote models, and combines whatever answered into one verdict.
// Degraded downstreams never surface as errors; only malformed input does.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/viaseguro/roadrisk/internal/adapter/model"
	"github.com/viaseguro/roadrisk/internal/domain"
	"github.com/viaseguro/roadrisk/internal/geography"
	"github.com/viaseguro/roadrisk/internal/observability"
	"github.com/viaseguro/roadrisk/internal/scoretable"
	"github.com/viaseguro/roadrisk/internal/weather"
)

// SeverityModel is the engine's view of the severity-class predictor.
type SeverityModel interface {
	Available() bool
	CheckAvailability(ctx context.Context) bool
	Predict(ctx context.Context, in model.Input) (domain.RiskModelResult, error)
}

// ClassificationModel is the engine's view of the accident classifier.
type ClassificationModel interface {
	Available() bool
	CheckAvailability(ctx context.Context) bool
	Classify(ctx context.Context, in model.Input) (domain.ClassificationResult, error)
}

// WeatherResolver is the engine's view of the weather component.
type WeatherResolver interface {
	Resolve(ctx context.Context, region, highway string, km float64) weather.Resolution
	Enabled() bool
}

// Engine wires the risk components together. All dependencies are injected
// once at construction; the engine itself holds no mutable state.
type Engine struct {
	table      *scoretable.Table
	geo        *geography.Validator
	weather    WeatherResolver
	severity   SeverityModel
	classifier ClassificationModel
	params     scoretable.Params
	clock      clockwork.Clock
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// New constructs the Engine.
func New(table *scoretable.Table, geo *geography.Validator, w WeatherResolver, severity SeverityModel, classifier ClassificationModel, params scoretable.Params, clk clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics) *Engine {
	return &Engine{
		table:      table,
		geo:        geo,
		weather:    w,
		severity:   severity,
		classifier: classifier,
		params:     params,
		clock:      clk,
		logger:     logger,
		metrics:    metrics,
	}
}

// ValidationError marks a request rejected before reaching the resolution
// chain. It is the only error class the engine's public contract returns.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

func validateRequest(req domain.PredictionRequest) error {
	if strings.TrimSpace(req.Region) == "" {
		return &ValidationError{Field: "region", Message: "required"}
	}
	if strings.TrimSpace(req.Highway) == "" {
		return &ValidationError{Field: "highway", Message: "required"}
	}
	if req.Km < 0 {
		return &ValidationError{Field: "km", Message: "must be non-negative"}
	}
	if req.Hour != nil && (*req.Hour < 0 || *req.Hour > 23) {
		return &ValidationError{Field: "hour", Message: "must be in [0,23]"}
	}
	if req.DayOfWeek != nil && (*req.DayOfWeek < 0 || *req.DayOfWeek > 6) {
		return &ValidationError{Field: "day_of_week", Message: "must be in [0,6]"}
	}
	if req.Month != nil && (*req.Month < 1 || *req.Month > 12) {
		return &ValidationError{Field: "month", Message: "must be in [1,12]"}
	}
	return nil
}

// normalized is the standardized per-request input all components consume.
type normalized struct {
	segment     domain.Segment
	context     domain.ContextLabel
	modelIn     model.Input
	provenance  domain.WeatherProvenance
	weatherUsed string
	hour        int
	dayOfWeek   int
}

// standardize fills defaults from the clock, resolves weather when the
// request did not carry it, and derives the canonical segment and context.
func (e *Engine) standardize(ctx context.Context, req domain.PredictionRequest) normalized {
	now := e.clock.Now()

	hour := now.Hour()
	if req.Hour != nil {
		hour = *req.Hour
	}
	dayOfWeek := int(now.Weekday())
	if req.DayOfWeek != nil {
		dayOfWeek = *req.DayOfWeek
	}
	month := int(now.Month())
	if req.Month != nil {
		month = *req.Month
	}

	weatherText := strings.TrimSpace(req.Weather)
	provenance := domain.WeatherFromUser
	if weatherText == "" {
		res := e.weather.Resolve(ctx, req.Region, req.Highway, req.Km)
		weatherText = string(res.Condition)
		if res.Source == weather.SourceFallback {
			provenance = domain.WeatherFromFallback
		} else {
			provenance = domain.WeatherFromLiveAPI
		}
	}

	category := domain.CategorizeWeatherText(weatherText)
	seg := domain.ResolveSegment(req.Region, req.Highway, req.Km)

	return normalized{
		segment: seg,
		context: domain.NormalizeContext(&hour, weatherText),
		modelIn: model.Input{
			Region:    seg.Region,
			Highway:   seg.Highway,
			Km:        req.Km,
			Hour:      hour,
			DayOfWeek: dayOfWeek,
			Month:     month,
			Weather:   string(category),
		},
		provenance:  provenance,
		weatherUsed: weatherText,
		hour:        hour,
		dayOfWeek:   dayOfWeek,
	}
}

// Predict runs the full ensemble chain for one location. It only errors on
// malformed input; every downstream failure degrades into the verdict.
func (e *Engine) Predict(ctx context.Context, req domain.PredictionRequest) (domain.EnsembleVerdict, error) {
	if err := validateRequest(req); err != nil {
		return domain.EnsembleVerdict{}, err
	}

	start := e.clock.Now()
	in := e.standardize(ctx, req)

	riskRes, classRes := e.gatherModelResults(ctx, in, req.PreferLiveModel)

	// The risk slot falls back to the historical table whenever the live
	// severity model did not answer. The lookup never fails, so the slot is
	// only absent if the table itself produced nothing usable.
	fallbackUsed := false
	if riskRes == nil {
		lookup := e.table.Lookup(in.segment, in.context, e.params)
		riskRes = &domain.RiskModelResult{
			Score:          lookup.Score,
			PredictedClass: scoreToClass(lookup.Score),
			Probabilities:  estimateProbabilities(lookup.Score),
			Source:         "lookup",
		}
		in.context = lookup.ContextUsed
		fallbackUsed = true
	}

	verdict := combine(riskRes, classRes, in)
	verdict.Location = in.segment.Location()
	verdict.Timestamp = e.clock.Now()
	verdict.FallbackUsed = fallbackUsed
	verdict.WeatherSource = in.provenance
	verdict.WeatherUsed = in.weatherUsed

	e.metrics.PredictionsTotal.WithLabelValues("single").Inc()
	e.metrics.PredictionDuration.Observe(e.clock.Since(start).Seconds())
	e.metrics.AgreementScore.Observe(verdict.Ensemble.AgreementScore)

	return verdict, nil
}

// gatherModelResults issues the severity and classification calls
// concurrently with independent timeouts, folding every failure into a nil
// slot with a logged side channel.
func (e *Engine) gatherModelResults(ctx context.Context, in normalized, preferLive bool) (*domain.RiskModelResult, *domain.ClassificationResult) {
	var (
		wg       sync.WaitGroup
		riskRes  *domain.RiskModelResult
		classRes *domain.ClassificationResult
	)

	if e.severity != nil && (e.severity.Available() || preferLive) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := e.severity.Predict(ctx, in.modelIn)
			if err != nil {
				e.metrics.ModelRequests.WithLabelValues("severity", "error").Inc()
				e.logger.Warn("severity model degraded to absent", "segment", in.segment.Key(), "error", err)
				return
			}
			e.metrics.ModelRequests.WithLabelValues("severity", "success").Inc()
			riskRes = &res
		}()
	}

	if e.classifier != nil && e.classifier.Available() {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := e.classifier.Classify(ctx, in.modelIn)
			if err != nil {
				e.metrics.ModelRequests.WithLabelValues("classification", "error").Inc()
				e.logger.Warn("classification model degraded to absent", "segment", in.segment.Key(), "error", err)
				return
			}
			e.metrics.ModelRequests.WithLabelValues("classification", "success").Inc()
			classRes = &res
		}()
	}

	wg.Wait()
	return riskRes, classRes
}

// BatchItem is one slot of a batch response: a verdict or the validation
// error that poisoned only this slot.
type BatchItem struct {
	Verdict *domain.EnsembleVerdict `json:"verdict,omitempty"`
	Error   string                  `json:"error,omitempty"`
}

// PredictBatch runs independent predictions for each request. Elements
// degrade independently.
func (e *Engine) PredictBatch(ctx context.Context, reqs []domain.PredictionRequest) []BatchItem {
	items := make([]BatchItem, len(reqs))
	for i, req := range reqs {
		verdict, err := e.Predict(ctx, req)
		if err != nil {
			items[i] = BatchItem{Error: err.Error()}
			continue
		}
		v := verdict
		items[i] = BatchItem{Verdict: &v}
	}
	e.metrics.PredictionsTotal.WithLabelValues("batch").Inc()
	return items
}

// RefreshAvailability re-probes both model health endpoints. Called at
// startup and from the status endpoint; never on the prediction path.
func (e *Engine) RefreshAvailability(ctx context.Context) {
	probeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if e.severity != nil {
		up := e.severity.CheckAvailability(probeCtx)
		e.metrics.ModelAvailable.WithLabelValues("severity").Set(boolToGauge(up))
	}
	if e.classifier != nil {
		up := e.classifier.CheckAvailability(probeCtx)
		e.metrics.ModelAvailable.WithLabelValues("classification").Set(boolToGauge(up))
	}
}

// Status reports the engine's degradation state.
type Status struct {
	ScoreTableReady       bool                `json:"score_table_ready"`
	ScoreTableSegments    int                 `json:"score_table_segments"`
	SeverityModelUp       bool                `json:"severity_model_up"`
	ClassificationModelUp bool                `json:"classification_model_up"`
	WeatherEnabled        bool                `json:"weather_enabled"`
	ModelInfo             scoretable.Metadata `json:"model_info"`
}

func (e *Engine) Status() Status {
	s := Status{
		ScoreTableReady:    e.table.Ready(),
		ScoreTableSegments: e.table.SegmentCount(),
		WeatherEnabled:     e.weather.Enabled(),
		ModelInfo:          e.table.Metadata(),
	}
	if e.severity != nil {
		s.SeverityModelUp = e.severity.Available()
	}
	if e.classifier != nil {
		s.ClassificationModelUp = e.classifier.Available()
	}
	return s
}

// HighRiskSegments and Statistics expose the table-wide views.
func (e *Engine) HighRiskSegments(limit int) []scoretable.RankedSegment {
	return e.table.HighRiskSegments(limit)
}

func (e *Engine) Statistics() scoretable.Statistics {
	return e.table.Statistics()
}

// ReloadScores is the administrative trigger for an atomic snapshot swap.
func (e *Engine) ReloadScores() error {
	return e.table.Reload()
}

// ValidateLocation exposes the geography check for the HTTP layer.
func (e *Engine) ValidateLocation(region, highway string, km float64) geography.ValidationResult {
	return e.geo.Validate(region, highway, km)
}

// HighwayOptions lists known highways for a region.
func (e *Engine) HighwayOptions(region string) []geography.Highway {
	return e.geo.Options(region)
}

func boolToGauge(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
