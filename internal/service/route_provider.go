package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/jalansafe/routeintel/internal/domain"
	"github.com/jalansafe/routeintel/internal/metrics"
)

// GraphHopperProvider fetches driving routes from a GraphHopper routing API
type GraphHopperProvider struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewGraphHopperProvider creates a route provider. apiKey may be empty for self-hosted instances.
func NewGraphHopperProvider(baseURL, apiKey string, timeout time.Duration) *GraphHopperProvider {
	return &GraphHopperProvider{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

type graphHopperResponse struct {
	Paths []struct {
		Points       string          `json:"points"`
		Time         float64         `json:"time"`     // milliseconds
		Distance     float64         `json:"distance"` // meters
		Instructions json.RawMessage `json:"instructions"`
	} `json:"paths"`
	Message string `json:"message"`
}

// FetchRoute returns the first path GraphHopper finds through the waypoints
func (p *GraphHopperProvider) FetchRoute(ctx context.Context, waypoints []domain.Coordinate) (domain.RouteResult, error) {
	if len(waypoints) < 2 {
		return domain.RouteResult{}, fmt.Errorf("routing: %w: need at least two waypoints", domain.ErrInvalidRequest)
	}

	q := url.Values{}
	for _, w := range waypoints {
		q.Add("point", fmt.Sprintf("%f,%f", w.Lat, w.Lon))
	}
	q.Set("profile", "car")
	q.Set("points_encoded", "true")
	q.Set("instructions", "true")
	q.Set("calc_points", "true")
	if p.apiKey != "" {
		q.Set("key", p.apiKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/route?"+q.Encode(), nil)
	if err != nil {
		return domain.RouteResult{}, fmt.Errorf("routing: failed to create request: %w", err)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return domain.RouteResult{}, p.fail("%v", err)
	}
	defer resp.Body.Close()

	var ghResp graphHopperResponse
	if err := json.NewDecoder(resp.Body).Decode(&ghResp); err != nil {
		return domain.RouteResult{}, p.fail("failed to decode response (status %d): %v", resp.StatusCode, err)
	}
	if resp.StatusCode != http.StatusOK {
		return domain.RouteResult{}, p.fail("status %d: %s", resp.StatusCode, ghResp.Message)
	}
	if len(ghResp.Paths) == 0 || ghResp.Paths[0].Points == "" {
		return domain.RouteResult{}, p.fail("no path returned")
	}

	path := ghResp.Paths[0]
	return domain.RouteResult{
		Geometry:        path.Points,
		DurationSeconds: path.Time / 1000,
		DistanceMeters:  path.Distance,
		Steps:           path.Instructions,
	}, nil
}

func (p *GraphHopperProvider) fail(format string, args ...interface{}) error {
	metrics.ProviderFailures.WithLabelValues("routing").Inc()
	return fmt.Errorf("routing: %w: %s", domain.ErrProviderUnavailable, fmt.Sprintf(format, args...))
}
