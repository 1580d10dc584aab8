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

// ClassificationClient talks to the accident-classification model service.
type ClassificationClient struct {
	baseURL    string
	httpClient *http.Client
	available  atomic.Bool
}

// NewClassificationClient creates a classification model client with a
// bounded timeout.
func NewClassificationClient(baseURL string, timeout time.Duration) *ClassificationClient {
	return &ClassificationClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type classificationHealthResponse struct {
	Status      string `json:"status"`
	ModelLoaded bool   `json:"model_loaded"`
}

type classifyResponse struct {
	Label         string                    `json:"label"`
	Confidence    float64                   `json:"confidence"`
	Probabilities domain.ClassProbabilities `json:"probabilities"`
	SeverityIndex int                       `json:"severity_index"`
}

// CheckAvailability probes /health and caches the result.
func (c *ClassificationClient) CheckAvailability(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		c.available.Store(false)
		return false
	}

	var health classificationHealthResponse
	ok := c.do(req, &health) == nil && health.Status == "healthy" && health.ModelLoaded
	c.available.Store(ok)
	return ok
}

// Available returns the cached availability flag.
func (c *ClassificationClient) Available() bool {
	return c.available.Load()
}

// Classify requests an accident classification. Any failure is returned as
// an error; the caller treats it as "model absent".
func (c *ClassificationClient) Classify(ctx context.Context, in Input) (domain.ClassificationResult, error) {
	body, err := json.Marshal(in)
	if err != nil {
		return domain.ClassificationResult{}, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/classify", bytes.NewReader(body))
	if err != nil {
		return domain.ClassificationResult{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	var resp classifyResponse
	if err := c.do(req, &resp); err != nil {
		return domain.ClassificationResult{}, err
	}

	return domain.ClassificationResult{
		Label:         resp.Label,
		Confidence:    resp.Confidence,
		Probabilities: resp.Probabilities,
		SeverityIndex: domain.SeverityClass(resp.SeverityIndex),
	}, nil
}

func (c *ClassificationClient) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("classification model request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("classification model error: status %d: %s", resp.StatusCode, body)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode classification response: %w", err)
	}
	return nil
}
