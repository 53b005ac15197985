package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker"
)

// WeatherClient implements the events.WeatherProvider interface for the Weather API.
type WeatherClient struct {
	name    string
	code    string
	baseURL string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

func NewWeatherClient(client *http.Client, baseURL, code string, backoff BackoffConfig) *WeatherClient {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	return &WeatherClient{
		name:    "weather",
		code:    code,
		baseURL: strings.TrimRight(baseURL, "/") + "/Weather",
		httpCfg: HTTPClientConfig{
			Client:  client,
			Backoff: backoff,
		},
		circuit: newCircuitBreaker("weather"),
	}
}

func (p *WeatherClient) Name() string {
	return p.name
}

// Weather returns the weather description for city on the UTC calendar day of date.
func (p *WeatherClient) Weather(ctx context.Context, city string, date time.Time) (string, error) {
	buildRequest := func(ctx context.Context) (*http.Request, error) {
		values := url.Values{}
		values.Set("code", p.code)
		values.Set("city", city)
		values.Set("date", date.UTC().Format("2006-01-02"))

		u := fmt.Sprintf("%s?%s", p.baseURL, values.Encode())
		return http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	}

	resp, err := doRequestWithResilience(ctx, p.httpCfg, p.circuit, buildRequest)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var payload struct {
		Weather *string `json:"weather"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("%w: %v", errMalformed, err)
	}
	if payload.Weather == nil {
		return "", fmt.Errorf("%w: missing weather field", errMalformed)
	}

	return *payload.Weather, nil
}
