package domain

import (
	"context"
	"encoding/json"
	"time"
)

// RouteResult is what the routing provider returns for one path
type RouteResult struct {
	Geometry        string
	DurationSeconds float64
	DistanceMeters  float64
	Steps           json.RawMessage
}

// RouteProvider fetches one route through the given ordered waypoints
type RouteProvider interface {
	FetchRoute(ctx context.Context, waypoints []Coordinate) (RouteResult, error)
}

// Geocoder resolves a place name to a coordinate.
// It returns ErrNotFound when nothing matches.
type Geocoder interface {
	Resolve(ctx context.Context, name string, hint *Coordinate) (Coordinate, error)
}

// WeatherProvider describes current conditions at a point. It never fails;
// UnknownWeather is returned instead.
type WeatherProvider interface {
	Current(ctx context.Context, at Coordinate) Weather
}

// HazardStore lists community reports
type HazardStore interface {
	ListByCategory(ctx context.Context, category HazardCategory) ([]HazardReport, error)
}

// ReportStore accepts new community reports
type ReportStore interface {
	HazardStore
	CreateReport(ctx context.Context, report HazardReport) (int64, error)
}

// TrafficStore records route choices and counts recent observers
type TrafficStore interface {
	// Record appends one observation at the current time
	Record(ctx context.Context, routeID, observerID string) error

	// CountSince counts distinct observers of routeID since the given time
	CountSince(ctx context.Context, routeID string, since time.Time) (int, error)
}

// HealthChecker is implemented by stores that can report connectivity
type HealthChecker interface {
	Health(ctx context.Context) error
}
