package domain

import "time"

// DefaultTrafficWindow is the trailing window used to count active observers
const DefaultTrafficWindow = 30 * time.Minute

// Column widths of the route_choices table
const (
	MaxRouteIDLength    = 64
	MaxObserverIDLength = 128
)

// TrafficObservation is one logged route choice
type TrafficObservation struct {
	RouteID    string    `json:"chosen_route_hash"`
	ObserverID string    `json:"user_id"`
	Timestamp  time.Time `json:"created_at"`
}
