// Package model holds the HTTP clients for the two external model-serving
// processes. Both clients share the same degradation contract: availability
// is probed explicitly and cached as a flag, and every transport, status, or
// decode failure is returned as an error for the engine to log and fold into
// "model absent". Nothing past this boundary ever panics or blocks beyond
// the client timeout.
package model

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/viaseguro/roadrisk/internal/domain"
)

// Input is the normalized request shape shared by both model APIs.
type Input struct {
	Region    string  `json:"region"`
	Highway   string  `json:"highway"`
	Km        float64 `json:"km"`
	Hour      int     `json:"hour"`
	DayOfWeek int     `json:"day_of_week"`
	Month     int     `json:"month"`
	Weather   string  `json:"weather"` // canonical category: clear/cloudy/rainy
}

// SeverityClient talks to the severity-class model service.
type SeverityClient struct {
	baseURL    string
	httpClient *http.Client
	available  atomic.Bool
}

// NewSeverityClient creates a severity model client with a bounded timeout.
func NewSeverityClient(baseURL string, timeout time.Duration) *SeverityClient {
	return &SeverityClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type severityHealthResponse struct {
	Status      string `json:"status"`
	ModelLoaded bool   `json:"model_loaded"`
}

type severityPredictResponse struct {
	Success bool `json:"success"`
	Data    struct {
		RiskScore          float64                   `json:"risk_score"`
		PredictedClass     int                       `json:"predicted_class"`
		ClassProbabilities domain.ClassProbabilities `json:"class_probabilities"`
	} `json:"data"`
}

// CheckAvailability probes /health and caches the result. The flag is only
// refreshed by explicit calls, never on the prediction path.
func (c *SeverityClient) CheckAvailability(ctx context.Context) bool {
	var health severityHealthResponse
	err := c.getJSON(ctx, "/health", &health)
	ok := err == nil && health.ModelLoaded
	c.available.Store(ok)
	return ok
}

// Available returns the cached availability flag.
func (c *SeverityClient) Available() bool {
	return c.available.Load()
}

// Predict requests a severity prediction. Any failure is returned as an
// error; the caller treats it as "model absent".
func (c *SeverityClient) Predict(ctx context.Context, in Input) (domain.RiskModelResult, error) {
	var resp severityPredictResponse
	if err := c.postJSON(ctx, "/predict", in, &resp); err != nil {
		return domain.RiskModelResult{}, err
	}
	if !resp.Success {
		return domain.RiskModelResult{}, fmt.Errorf("severity model rejected request")
	}

	return domain.RiskModelResult{
		Score:          resp.Data.RiskScore,
		PredictedClass: domain.SeverityClass(resp.Data.PredictedClass),
		Probabilities:  resp.Data.ClassProbabilities,
		Source:         "live_model",
	}, nil
}

func (c *SeverityClient) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	return c.do(req, out)
}

func (c *SeverityClient) postJSON(ctx context.Context, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *SeverityClient) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("severity model request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("severity model error: status %d: %s", resp.StatusCode, body)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode severity response: %w", err)
	}
	return nil
}
