package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/sony/gobreaker"
)

// DistanceClient implements the events.DistanceProvider interface for the Distance API.
type DistanceClient struct {
	name    string
	code    string
	baseURL string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

func NewDistanceClient(client *http.Client, baseURL, code string, backoff BackoffConfig) *DistanceClient {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	return &DistanceClient{
		name:    "distance",
		code:    code,
		baseURL: strings.TrimRight(baseURL, "/") + "/Distance",
		httpCfg: HTTPClientConfig{
			Client:  client,
			Backoff: backoff,
		},
		circuit: newCircuitBreaker("distance"),
	}
}

func (p *DistanceClient) Name() string {
	return p.name
}

// Distance returns the distance in kilometres between the two points.
func (p *DistanceClient) Distance(ctx context.Context, srcLat, srcLong, destLat, destLong float64) (float64, error) {
	buildRequest := func(ctx context.Context) (*http.Request, error) {
		values := url.Values{}
		values.Set("code", p.code)
		values.Set("latitude1", formatCoord(srcLat))
		values.Set("longitude1", formatCoord(srcLong))
		values.Set("latitude2", formatCoord(destLat))
		values.Set("longitude2", formatCoord(destLong))

		u := fmt.Sprintf("%s?%s", p.baseURL, values.Encode())
		return http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	}

	resp, err := doRequestWithResilience(ctx, p.httpCfg, p.circuit, buildRequest)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	// The API sends the distance as a string, e.g. {"distance": "1250.7"}.
	var payload struct {
		Distance json.RawMessage `json:"distance"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return 0, fmt.Errorf("%w: %v", errMalformed, err)
	}

	return parseDistance(payload.Distance)
}

func parseDistance(raw json.RawMessage) (float64, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return 0, fmt.Errorf("%w: missing distance field", errMalformed)
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		s = string(raw)
	}

	d, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: distance %s is not a number", errMalformed, raw)
	}
	return d, nil
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
