package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/jalansafe/routeintel/internal/domain"
	"github.com/jalansafe/routeintel/internal/metrics"
)

// ImageryBridge handles communication with the satellite imagery analysis service
type ImageryBridge struct {
	serviceURL string
	httpClient *http.Client
}

// NewImageryBridge creates a new imagery bridge
func NewImageryBridge(serviceURL string, timeout time.Duration) *ImageryBridge {
	return &ImageryBridge{
		serviceURL: serviceURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

type imageryRequest struct {
	Lat          float64 `json:"lat"`
	Lon          float64 `json:"lon"`
	AnalysisType string  `json:"analysis_type"`
	BufferDegree float64 `json:"buffer_degree"`
}

// Analyze runs one flood or deforestation analysis and returns the service's JSON result
func (b *ImageryBridge) Analyze(ctx context.Context, req domain.ImageryAnalysisRequest) (json.RawMessage, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	body, err := json.Marshal(imageryRequest{
		Lat:          req.Lat,
		Lon:          req.Lon,
		AnalysisType: req.AnalysisType,
		BufferDegree: req.Buffer(),
	})
	if err != nil {
		return nil, fmt.Errorf("imagery: failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/analyze", b.serviceURL)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("imagery: failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := b.httpClient.Do(httpReq)
	if err != nil {
		metrics.ProviderFailures.WithLabelValues("imagery").Inc()
		return nil, fmt.Errorf("imagery: %w: %w", domain.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		metrics.ProviderFailures.WithLabelValues("imagery").Inc()
		return nil, fmt.Errorf("imagery: %w: status %d", domain.ErrProviderUnavailable, resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("imagery: failed to read response: %w", err)
	}
	if !json.Valid(raw) {
		return nil, fmt.Errorf("imagery: service returned invalid JSON")
	}

	return json.RawMessage(raw), nil
}

// Health checks imagery service connectivity
func (b *ImageryBridge) Health(ctx context.Context) error {
	url := fmt.Sprintf("%s/health", b.serviceURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("imagery: failed to create health request: %w", err)
	}

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("imagery: health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("imagery: health check returned status %d", resp.StatusCode)
	}

	return nil
}
