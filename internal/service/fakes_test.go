package service

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/jalansafe/routeintel/internal/domain"
	"github.com/jalansafe/routeintel/internal/geometry"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// line builds an n-vertex eastbound path along lat starting at lon 101.0
func line(lat float64, n int) string {
	path := make([]domain.Coordinate, n)
	for i := range path {
		path[i] = domain.Coordinate{Lat: lat, Lon: 101.0 + float64(i)*0.0025}
	}
	return geometry.Encode(path)
}

type fakeProvider struct {
	mu    sync.Mutex
	calls [][]domain.Coordinate
	fn    func(waypoints []domain.Coordinate) (domain.RouteResult, error)
}

func (p *fakeProvider) FetchRoute(ctx context.Context, waypoints []domain.Coordinate) (domain.RouteResult, error) {
	p.mu.Lock()
	p.calls = append(p.calls, waypoints)
	p.mu.Unlock()
	return p.fn(waypoints)
}

func (p *fakeProvider) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.calls)
}

// detourProvider answers the direct request with a 30-vertex route on lat 3.0
// and each via request with a route whose latitude follows the via point
func detourProvider() *fakeProvider {
	return &fakeProvider{fn: func(wps []domain.Coordinate) (domain.RouteResult, error) {
		switch {
		case len(wps) == 2:
			return domain.RouteResult{Geometry: line(3.0, 30), DurationSeconds: 600, DistanceMeters: 7000}, nil
		case wps[1].Lat > 3.0:
			return domain.RouteResult{Geometry: line(3.1, 30), DurationSeconds: 620, DistanceMeters: 7300}, nil
		default:
			return domain.RouteResult{Geometry: line(3.2, 30), DurationSeconds: 650, DistanceMeters: 7600}, nil
		}
	}}
}

var errOffline = errors.New("dial tcp: connection refused")

type fakeGeocoder struct {
	places map[string]domain.Coordinate
	hints  []*domain.Coordinate
}

func (g *fakeGeocoder) Resolve(ctx context.Context, name string, hint *domain.Coordinate) (domain.Coordinate, error) {
	g.hints = append(g.hints, hint)
	c, ok := g.places[name]
	if !ok {
		return domain.Coordinate{}, domain.ErrNotFound
	}
	return c, nil
}

type fakeWeather struct {
	mu    sync.Mutex
	calls []domain.Coordinate
	w     domain.Weather
}

func (f *fakeWeather) Current(ctx context.Context, at domain.Coordinate) domain.Weather {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, at)
	return f.w
}

type fakeHazards struct {
	reports []domain.HazardReport
	err     error
}

func (f *fakeHazards) ListByCategory(ctx context.Context, category domain.HazardCategory) ([]domain.HazardReport, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []domain.HazardReport
	for _, r := range f.reports {
		if r.Category == category {
			out = append(out, r)
		}
	}
	return out, nil
}

type fakeTraffic struct {
	mu       sync.Mutex
	counts   map[string]int
	recorded []domain.TrafficObservation
	err      error
}

func (f *fakeTraffic) Record(ctx context.Context, routeID, observerID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.recorded = append(f.recorded, domain.TrafficObservation{RouteID: routeID, ObserverID: observerID, Timestamp: time.Now()})
	return nil
}

func (f *fakeTraffic) CountSince(ctx context.Context, routeID string, since time.Time) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, f.err
	}
	return f.counts[routeID], nil
}
