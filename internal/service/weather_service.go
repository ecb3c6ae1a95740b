package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/jalansafe/routeintel/internal/domain"
	"github.com/jalansafe/routeintel/internal/metrics"
)

// DefaultOpenWeatherURL is the OpenWeatherMap current-weather API root
const DefaultOpenWeatherURL = "https://api.openweathermap.org/data/2.5"

// WeatherService fetches current conditions from OpenWeatherMap
type WeatherService struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	log        logrus.FieldLogger
}

// NewWeatherService creates a new weather service
func NewWeatherService(baseURL, apiKey string, timeout time.Duration, log logrus.FieldLogger) *WeatherService {
	if baseURL == "" {
		baseURL = DefaultOpenWeatherURL
	}
	return &WeatherService{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		log: log,
	}
}

// OpenWeatherResponse represents the OpenWeatherMap API response
type OpenWeatherResponse struct {
	Weather []struct {
		Main        string `json:"main"`
		Description string `json:"description"`
	} `json:"weather"`
	Name string `json:"name"`
}

// Current returns the condition at a point, or UnknownWeather on any failure
func (s *WeatherService) Current(ctx context.Context, at domain.Coordinate) domain.Weather {
	w, err := s.fetch(ctx, at)
	if err != nil {
		metrics.ProviderFailures.WithLabelValues("weather").Inc()
		s.log.WithError(err).WithField("provider", "openweather").Warn("Weather unavailable, using unknown")
		return domain.UnknownWeather
	}
	return w
}

func (s *WeatherService) fetch(ctx context.Context, at domain.Coordinate) (domain.Weather, error) {
	if s.apiKey == "" {
		return domain.Weather{}, fmt.Errorf("weather: %w: api key not configured", domain.ErrProviderUnavailable)
	}

	q := url.Values{}
	q.Set("lat", fmt.Sprintf("%f", at.Lat))
	q.Set("lon", fmt.Sprintf("%f", at.Lon))
	q.Set("appid", s.apiKey)
	q.Set("units", "metric")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/weather?"+q.Encode(), nil)
	if err != nil {
		return domain.Weather{}, fmt.Errorf("weather: failed to create request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return domain.Weather{}, fmt.Errorf("weather: %w: %v", domain.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.Weather{}, fmt.Errorf("weather: %w: status %d", domain.ErrProviderUnavailable, resp.StatusCode)
	}

	var owResp OpenWeatherResponse
	if err := json.NewDecoder(resp.Body).Decode(&owResp); err != nil {
		return domain.Weather{}, fmt.Errorf("weather: failed to decode response: %w", err)
	}
	if len(owResp.Weather) == 0 {
		return domain.Weather{}, fmt.Errorf("weather: %w: empty condition list", domain.ErrProviderUnavailable)
	}

	return domain.Weather{
		Condition:   owResp.Weather[0].Main,
		Description: owResp.Weather[0].Description,
	}, nil
}
