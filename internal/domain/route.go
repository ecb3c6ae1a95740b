package domain

import "encoding/json"

// RouteCandidate is one route option returned by the routing provider
type RouteCandidate struct {
	ID              string          `json:"id"`
	Waypoints       []Coordinate    `json:"waypoints"`
	Geometry        string          `json:"geometry"`
	DurationSeconds float64         `json:"base_travel_time"`
	DistanceMeters  float64         `json:"distance"`
	Steps           json.RawMessage `json:"steps,omitempty"`
}

// Start returns the first waypoint used to fetch the candidate
func (r RouteCandidate) Start() (Coordinate, bool) {
	if len(r.Waypoints) == 0 {
		return Coordinate{}, false
	}
	return r.Waypoints[0], true
}

// Classification is the traffic-light risk label of a scored route
type Classification string

const (
	ClassificationGreen  Classification = "green"
	ClassificationYellow Classification = "yellow"
	ClassificationRed    Classification = "red"
)

// Explanatory tags attached to a scored route
const (
	TagOptimalPath = "OPTIMAL_PATH"
	TagHasIssues   = "HAS_ISSUES"
	TagHasTraffic  = "HAS_TRAFFIC"
)

// RouteIssue is the projection of a hazard report matched to a route
type RouteIssue struct {
	Type        HazardCategory `json:"type"`
	Description string         `json:"description"`
	PhotoURL    string         `json:"photo_url"`
	Latitude    float64        `json:"latitude"`
	Longitude   float64        `json:"longitude"`
	Date        string         `json:"date"`
}

// ScoredRoute is a candidate annotated with its suitability score and explanation
type ScoredRoute struct {
	RouteCandidate
	Score          float64        `json:"final_score"`
	Classification Classification `json:"color"`
	IsOptimal      bool           `json:"is_optimal"`
	TimeSlower     float64        `json:"time_slower"`
	Issues         []RouteIssue   `json:"issues"`
	ActiveUsers    int            `json:"active_users"`
	Weather        string         `json:"weather"`
	Tags           []string       `json:"tags"`
}
