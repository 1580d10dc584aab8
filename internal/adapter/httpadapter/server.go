// Package httpadapter is the thin HTTP surface over the engine. Handlers
// translate between wire shapes and engine calls; no risk logic lives here.
package httpadapter

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/viaseguro/roadrisk/internal/domain"
	"github.com/viaseguro/roadrisk/internal/engine"
)

const maxBatchSize = 50

// Server exposes the prediction API plus health, readiness, and metrics.
type Server struct {
	httpServer *http.Server
	engine     *engine.Engine
	logger     *slog.Logger
}

// envelope is the uniform response wrapper. Exactly one of Data and Error is
// set.
type envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// NewServer wires all routes onto a fresh mux.
func NewServer(addr string, eng *engine.Engine, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		engine: eng,
		logger: logger,
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("POST /api/v1/risk/predict", s.handlePredict)
	mux.HandleFunc("POST /api/v1/risk/predict-batch", s.handlePredictBatch)
	mux.HandleFunc("POST /api/v1/risk/predict-route", s.handlePredictRoute)
	mux.HandleFunc("GET /api/v1/risk/high-risk", s.handleHighRisk)
	mux.HandleFunc("GET /api/v1/risk/statistics", s.handleStatistics)
	mux.HandleFunc("GET /api/v1/ensemble/status", s.handleStatus)
	mux.HandleFunc("GET /api/v1/highways/validate", s.handleValidateLocation)
	mux.HandleFunc("GET /api/v1/highways/{region}", s.handleHighways)
	mux.HandleFunc("POST /api/v1/ops/reload-scores", s.handleReloadScores)

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// handleReady reports ready once the score table has loaded. The engine can
// serve degraded answers without it, but readiness gates traffic on having
// real data behind the lookups.
func (s *Server) handleReady(w http.ResponseWriter, _ *http.Request) {
	status := s.engine.Status()
	if !status.ScoreTableReady {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not ready",
			"error":  "score table not loaded",
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	var req domain.PredictionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body: expected JSON with region, highway and km")
		return
	}

	verdict, err := s.engine.Predict(r.Context(), req)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{Success: true, Data: verdict})
}

func (s *Server) handlePredictBatch(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Locations []domain.PredictionRequest `json:"locations"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body: expected JSON with a locations array")
		return
	}
	if len(req.Locations) == 0 {
		s.writeError(w, http.StatusBadRequest, "locations must contain at least one entry")
		return
	}
	if len(req.Locations) > maxBatchSize {
		s.writeError(w, http.StatusBadRequest, "locations exceeds the batch limit of "+strconv.Itoa(maxBatchSize))
		return
	}

	items := s.engine.PredictBatch(r.Context(), req.Locations)
	writeJSON(w, http.StatusOK, envelope{Success: true, Data: items})
}

func (s *Server) handlePredictRoute(w http.ResponseWriter, r *http.Request) {
	var req engine.RouteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body: expected JSON with a stops array")
		return
	}

	verdict, err := s.engine.PredictRoute(req)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{Success: true, Data: verdict})
}

func (s *Server) handleHighRisk(w http.ResponseWriter, r *http.Request) {
	limit := 10
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			s.writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = parsed
	}
	writeJSON(w, http.StatusOK, envelope{Success: true, Data: s.engine.HighRiskSegments(limit)})
}

func (s *Server) handleStatistics(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, envelope{Success: true, Data: s.engine.Statistics()})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.engine.RefreshAvailability(r.Context())
	writeJSON(w, http.StatusOK, envelope{Success: true, Data: s.engine.Status()})
}

// handleValidateLocation bounds-checks a (region, highway, km) triple. An
// out-of-range location is a successful answer with valid=false, not an
// error; only malformed parameters are rejected.
func (s *Server) handleValidateLocation(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	region := q.Get("region")
	highway := q.Get("highway")
	if region == "" || highway == "" {
		s.writeError(w, http.StatusBadRequest, "region and highway query parameters are required")
		return
	}
	km, err := strconv.ParseFloat(q.Get("km"), 64)
	if err != nil || km < 0 {
		s.writeError(w, http.StatusBadRequest, "km must be a non-negative number")
		return
	}
	writeJSON(w, http.StatusOK, envelope{Success: true, Data: s.engine.ValidateLocation(region, highway, km)})
}

func (s *Server) handleHighways(w http.ResponseWriter, r *http.Request) {
	region := r.PathValue("region")
	options := s.engine.HighwayOptions(region)
	if len(options) == 0 {
		s.writeError(w, http.StatusNotFound, "no highways known for region "+region)
		return
	}
	writeJSON(w, http.StatusOK, envelope{Success: true, Data: options})
}

func (s *Server) handleReloadScores(w http.ResponseWriter, _ *http.Request) {
	if err := s.engine.ReloadScores(); err != nil {
		s.logger.Error("score table reload failed", "error", err)
		s.writeError(w, http.StatusInternalServerError, "reload failed: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, envelope{Success: true, Data: s.engine.Statistics()})
}

// writeEngineError maps engine errors onto status codes. Validation failures
// are the caller's fault; anything else is ours.
func (s *Server) writeEngineError(w http.ResponseWriter, err error) {
	var verr *engine.ValidationError
	if errors.As(err, &verr) {
		s.writeError(w, http.StatusBadRequest, verr.Error())
		return
	}
	s.logger.Error("prediction failed", "error", err)
	s.writeError(w, http.StatusInternalServerError, "internal error")
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, envelope{Success: false, Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response write
}
