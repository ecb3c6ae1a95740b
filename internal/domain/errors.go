package domain

import (
	"context"
	"errors"
)

var (
	// ErrProviderUnavailable means a routing, geocoding or weather call failed or timed out
	ErrProviderUnavailable = errors.New("provider unavailable")
	// ErrNotFound means an unknown task id or an unresolvable place name
	ErrNotFound = errors.New("not found")
	// ErrInvalidRequest means the caller sent a malformed payload
	ErrInvalidRequest = errors.New("invalid request")
	// ErrPipelineFailure is the default category for failures inside a task
	ErrPipelineFailure = errors.New("pipeline failure")
	// ErrTaskTerminal is returned when mutating a COMPLETED or FAILED task
	ErrTaskTerminal = errors.New("task is in a terminal state")
)

// Failure categories stored on FAILED tasks
const (
	CategoryProviderUnavailable = "ProviderUnavailable"
	CategoryNotFound            = "NotFound"
	CategoryInvalidRequest      = "InvalidRequest"
	CategoryTimeout             = "Timeout"
	CategoryPanic               = "Panic"
	CategoryPipelineFailure     = "PipelineFailure"
)

// ErrorCategory maps an error chain onto a failure category
func ErrorCategory(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return CategoryTimeout
	case errors.Is(err, ErrProviderUnavailable):
		return CategoryProviderUnavailable
	case errors.Is(err, ErrNotFound):
		return CategoryNotFound
	case errors.Is(err, ErrInvalidRequest):
		return CategoryInvalidRequest
	default:
		return CategoryPipelineFailure
	}
}
