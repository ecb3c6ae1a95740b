package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// TaskState is the lifecycle state of an analysis task
type TaskState string

const (
	TaskPending   TaskState = "PENDING"
	TaskRunning   TaskState = "RUNNING"
	TaskCompleted TaskState = "COMPLETED"
	TaskFailed    TaskState = "FAILED"
)

// Terminal reports whether no further transition is allowed out of s
func (s TaskState) Terminal() bool {
	return s == TaskCompleted || s == TaskFailed
}

// CanTransition reports whether s -> next is an edge of
// PENDING -> RUNNING -> {COMPLETED | FAILED}.
func (s TaskState) CanTransition(next TaskState) bool {
	switch s {
	case TaskPending:
		return next == TaskRunning
	case TaskRunning:
		return next.Terminal()
	default:
		return false
	}
}

// AnalysisKind tags the payload of an analysis request
type AnalysisKind string

const (
	KindRouteScoring AnalysisKind = "route_scoring"
	KindImagery      AnalysisKind = "imagery"
)

// AnalysisRequest is a tagged analysis payload. The orchestrator only reads Kind.
type AnalysisRequest struct {
	Kind    AnalysisKind    `json:"kind"`
	Payload json.RawMessage `json:"payload"`
}

// TaskError is the structured failure stored on a FAILED task
type TaskError struct {
	Category string `json:"category"`
	Message  string `json:"message"`
}

func (e TaskError) Error() string {
	return fmt.Sprintf("%s: %s", e.Category, e.Message)
}

// AnalysisTask is the pollable record of one submitted analysis
type AnalysisTask struct {
	ID          string          `json:"task_id"`
	Kind        AnalysisKind    `json:"kind"`
	State       TaskState       `json:"status"`
	SubmittedAt time.Time       `json:"submitted_at"`
	CompletedAt *time.Time      `json:"completed_at"`
	Request     json.RawMessage `json:"request_data"`
	Result      json.RawMessage `json:"result"`
	Error       *TaskError      `json:"error,omitempty"`
}

// RouteAnalysisRequest is the payload of a route_scoring task.
// Either both coordinates or a destination name must be set.
type RouteAnalysisRequest struct {
	Start     *Coordinate `json:"start,omitempty"`
	End       *Coordinate `json:"end,omitempty"`
	StartName string      `json:"start_name,omitempty"`
	EndName   string      `json:"end_name,omitempty"`
	Hint      *Coordinate `json:"current_location,omitempty"`
}

// Validate checks that the request can be resolved to two endpoints
func (r RouteAnalysisRequest) Validate() error {
	if r.Start == nil && r.StartName == "" {
		return fmt.Errorf("%w: start or start_name is required", ErrInvalidRequest)
	}
	if r.End == nil && r.EndName == "" {
		return fmt.Errorf("%w: end or end_name is required", ErrInvalidRequest)
	}
	for _, c := range []*Coordinate{r.Start, r.End, r.Hint} {
		if c != nil && !c.Valid() {
			return fmt.Errorf("%w: coordinate %s out of range", ErrInvalidRequest, c)
		}
	}
	return nil
}

// Imagery analysis types
const (
	ImageryFlood         = "flood"
	ImageryDeforestation = "deforestation"
)

// DefaultBufferDegree is the half-size of the analysed box around the clicked point
const DefaultBufferDegree = 0.1

// ImageryAnalysisRequest is the payload of an imagery task
type ImageryAnalysisRequest struct {
	Lat          float64  `json:"lat"`
	Lon          float64  `json:"lon"`
	AnalysisType string   `json:"analysis_type"`
	BufferDegree *float64 `json:"buffer_degree,omitempty"`
}

// Buffer returns the requested buffer or the default
func (r ImageryAnalysisRequest) Buffer() float64 {
	if r.BufferDegree == nil || *r.BufferDegree <= 0 {
		return DefaultBufferDegree
	}
	return *r.BufferDegree
}

// Validate checks analysis type and coordinates
func (r ImageryAnalysisRequest) Validate() error {
	if r.AnalysisType != ImageryFlood && r.AnalysisType != ImageryDeforestation {
		return fmt.Errorf("%w: analysis_type must be %q or %q", ErrInvalidRequest, ImageryFlood, ImageryDeforestation)
	}
	if !(Coordinate{Lat: r.Lat, Lon: r.Lon}).Valid() {
		return fmt.Errorf("%w: coordinate out of range", ErrInvalidRequest)
	}
	return nil
}
