package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// Observation is a provider's current-weather reading for a coordinate.
// Only the categorical condition is used downstream; temperature and
// humidity ride along for logging.
type Observation struct {
	Condition   string // provider's categorical condition, e.g. "Rain"
	Description string
	TempC       float64
	Humidity    int
	Station     string // provider's name for the nearest station/place
}

// Provider abstracts the external weather source so the resolver can be
// tested with a fake.
type Provider interface {
	Current(ctx context.Context, lat, lon float64) (Observation, error)
}

// Client implements Provider against the OpenWeatherMap current-weather API.
type Client struct {
	apiKey     string
	httpClient *http.Client
	baseURL    string
}

// NewClient creates an OpenWeatherMap client with a bounded request timeout.
func NewClient(apiKey string, timeout time.Duration) *Client {
	return &Client{
		apiKey:     apiKey,
		baseURL:    "https://api.openweathermap.org/data/2.5",
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Current fetches the current conditions for a coordinate.
func (c *Client) Current(ctx context.Context, lat, lon float64) (Observation, error) {
	params := url.Values{}
	params.Set("lat", fmt.Sprintf("%.4f", lat))
	params.Set("lon", fmt.Sprintf("%.4f", lon))
	params.Set("appid", c.apiKey)
	params.Set("units", "metric")

	requestURL := fmt.Sprintf("%s/weather?%s", c.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return Observation{}, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Observation{}, fmt.Errorf("weather request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return Observation{}, fmt.Errorf("weather API error: status %d: %s", resp.StatusCode, body)
	}

	var wr currentResponse
	if err := json.NewDecoder(resp.Body).Decode(&wr); err != nil {
		return Observation{}, fmt.Errorf("decode response: %w", err)
	}

	obs := Observation{
		TempC:    wr.Main.Temp,
		Humidity: wr.Main.Humidity,
		Station:  wr.Name,
	}
	if len(wr.Weather) > 0 {
		obs.Condition = wr.Weather[0].Main
		obs.Description = wr.Weather[0].Description
	}
	return obs, nil
}

// OpenWeatherMap response types.

type currentResponse struct {
	Weather []struct {
		Main        string `json:"main"`
		Description string `json:"description"`
	} `json:"weather"`
	Main struct {
		Temp     float64 `json:"temp"`
		Humidity int     `json:"humidity"`
	} `json:"main"`
	Name string `json:"name"`
}
