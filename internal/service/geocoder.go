package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/jalansafe/routeintel/internal/domain"
	"github.com/jalansafe/routeintel/internal/metrics"
)

const (
	geocoderUserAgent = "routeintel/1.0"
	// half-size in degrees of the box searched around the proximity hint
	viewboxBuffer = 0.5
)

// NominatimGeocoder resolves place names through a Nominatim search API
type NominatimGeocoder struct {
	baseURL    string
	country    string
	httpClient *http.Client
	log        logrus.FieldLogger
}

// NewNominatimGeocoder creates a geocoder restricted to the given ISO country code
func NewNominatimGeocoder(baseURL, country string, timeout time.Duration, log logrus.FieldLogger) *NominatimGeocoder {
	return &NominatimGeocoder{
		baseURL: baseURL,
		country: country,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		log: log,
	}
}

type nominatimPlace struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

// Resolve looks the name up in up to three passes: bounded to the area around
// hint, biased towards that area, then country-wide. A failed pass falls
// through to the next one.
func (g *NominatimGeocoder) Resolve(ctx context.Context, name string, hint *domain.Coordinate) (domain.Coordinate, error) {
	log := g.log.WithField("query", name)

	type pass struct {
		label  string
		params url.Values
	}
	var passes []pass
	if hint != nil {
		viewbox := fmt.Sprintf("%f,%f,%f,%f",
			hint.Lon-viewboxBuffer, hint.Lat-viewboxBuffer,
			hint.Lon+viewboxBuffer, hint.Lat+viewboxBuffer)
		passes = append(passes,
			pass{"bounded", url.Values{"viewbox": {viewbox}, "bounded": {"1"}}},
			pass{"biased", url.Values{"viewbox": {viewbox}}},
		)
	}
	passes = append(passes, pass{"country", url.Values{}})

	var lastErr error
	for _, p := range passes {
		place, err := g.search(ctx, name, p.params)
		if err != nil {
			lastErr = err
			log.WithError(err).WithField("pass", p.label).Debug("Geocoding pass failed")
			continue
		}
		if place == nil {
			continue
		}

		coord, err := place.coordinate()
		if err != nil {
			lastErr = err
			continue
		}
		log.WithFields(logrus.Fields{"pass": p.label, "address": place.DisplayName}).Debug("Geocoded place")
		return coord, nil
	}

	if errors.Is(lastErr, domain.ErrProviderUnavailable) {
		metrics.ProviderFailures.WithLabelValues("geocoding").Inc()
		log.WithError(lastErr).Warn("Geocoder unavailable")
	}
	return domain.Coordinate{}, fmt.Errorf("geocoding %q: %w", name, domain.ErrNotFound)
}

func (g *NominatimGeocoder) search(ctx context.Context, name string, extra url.Values) (*nominatimPlace, error) {
	q := url.Values{}
	q.Set("q", name)
	q.Set("format", "json")
	q.Set("limit", "1")
	if g.country != "" {
		q.Set("countrycodes", g.country)
	}
	for k, v := range extra {
		q[k] = v
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"/search?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("geocoding: failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", geocoderUserAgent)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("geocoding: %w: %v", domain.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("geocoding: %w: status %d", domain.ErrProviderUnavailable, resp.StatusCode)
	}

	var places []nominatimPlace
	if err := json.NewDecoder(resp.Body).Decode(&places); err != nil {
		return nil, fmt.Errorf("geocoding: failed to decode response: %w", err)
	}
	if len(places) == 0 {
		return nil, nil
	}
	return &places[0], nil
}

func (p nominatimPlace) coordinate() (domain.Coordinate, error) {
	lat, err := strconv.ParseFloat(p.Lat, 64)
	if err != nil {
		return domain.Coordinate{}, fmt.Errorf("geocoding: bad latitude %q: %w", p.Lat, err)
	}
	lon, err := strconv.ParseFloat(p.Lon, 64)
	if err != nil {
		return domain.Coordinate{}, fmt.Errorf("geocoding: bad longitude %q: %w", p.Lon, err)
	}
	return domain.Coordinate{Lat: lat, Lon: lon}, nil
}
