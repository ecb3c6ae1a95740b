package domain

import "time"

// HazardCategory enumerates community report types
type HazardCategory string

const (
	// HazardRoadCondition covers road-surface defects such as potholes
	HazardRoadCondition HazardCategory = "road_condition"
	// HazardTrafficLight covers signal faults
	HazardTrafficLight HazardCategory = "traffic_light"
)

// Valid reports whether c is a known category
func (c HazardCategory) Valid() bool {
	return c == HazardRoadCondition || c == HazardTrafficLight
}

// HazardReport is a community-reported road hazard. Read-only to the route engine.
type HazardReport struct {
	ID          int64          `json:"id"`
	Location    Coordinate     `json:"location"`
	Category    HazardCategory `json:"report_type"`
	Description string         `json:"description"`
	PhotoURL    string         `json:"photo_url"`
	CreatedAt   time.Time      `json:"created_at"`
}

// Issue projects the report into the shape attached to scored routes
func (h HazardReport) Issue() RouteIssue {
	return RouteIssue{
		Type:        h.Category,
		Description: h.Description,
		PhotoURL:    h.PhotoURL,
		Latitude:    h.Location.Lat,
		Longitude:   h.Location.Lon,
		Date:        h.CreatedAt.UTC().Format("2006-01-02"),
	}
}
