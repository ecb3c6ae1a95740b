package domain

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	all := []TaskState{TaskPending, TaskRunning, TaskCompleted, TaskFailed}
	allowed := map[[2]TaskState]bool{
		{TaskPending, TaskRunning}:   true,
		{TaskRunning, TaskCompleted}: true,
		{TaskRunning, TaskFailed}:    true,
	}

	for _, from := range all {
		for _, to := range all {
			assert.Equal(t, allowed[[2]TaskState{from, to}], from.CanTransition(to), "%s -> %s", from, to)
		}
	}
}

func TestTerminal(t *testing.T) {
	assert.False(t, TaskPending.Terminal())
	assert.False(t, TaskRunning.Terminal())
	assert.True(t, TaskCompleted.Terminal())
	assert.True(t, TaskFailed.Terminal())
}

func TestErrorCategory(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{fmt.Errorf("routing: %w: status 502", ErrProviderUnavailable), CategoryProviderUnavailable},
		{fmt.Errorf("geocoding %q: %w", "Atlantis", ErrNotFound), CategoryNotFound},
		{fmt.Errorf("%w: bad payload", ErrInvalidRequest), CategoryInvalidRequest},
		{fmt.Errorf("routing: %w: %w", ErrProviderUnavailable, context.DeadlineExceeded), CategoryTimeout},
		{errors.New("disk full"), CategoryPipelineFailure},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ErrorCategory(tt.err), tt.err.Error())
	}
}

func TestRouteAnalysisRequestValidate(t *testing.T) {
	klcc := &Coordinate{Lat: 3.1579, Lon: 101.7116}
	tests := []struct {
		name string
		req  RouteAnalysisRequest
		ok   bool
	}{
		{"coordinates", RouteAnalysisRequest{Start: klcc, End: klcc}, true},
		{"names", RouteAnalysisRequest{StartName: "KLCC", EndName: "Mid Valley"}, true},
		{"mixed", RouteAnalysisRequest{Start: klcc, EndName: "Mid Valley"}, true},
		{"no end", RouteAnalysisRequest{Start: klcc}, false},
		{"no start", RouteAnalysisRequest{EndName: "Mid Valley"}, false},
		{"bad hint", RouteAnalysisRequest{StartName: "KLCC", EndName: "Mid Valley", Hint: &Coordinate{Lat: 120}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, ErrInvalidRequest)
		})
	}
}

func TestImageryAnalysisRequest(t *testing.T) {
	req := ImageryAnalysisRequest{Lat: 1.55, Lon: 110.35, AnalysisType: ImageryFlood}
	assert.NoError(t, req.Validate())
	assert.Equal(t, DefaultBufferDegree, req.Buffer())

	wide := 0.25
	req.BufferDegree = &wide
	assert.Equal(t, 0.25, req.Buffer())

	req.AnalysisType = "wildfire"
	assert.ErrorIs(t, req.Validate(), ErrInvalidRequest)

	req = ImageryAnalysisRequest{Lat: 1.55, Lon: 200, AnalysisType: ImageryDeforestation}
	assert.ErrorIs(t, req.Validate(), ErrInvalidRequest)
}

func TestTaskErrorMessage(t *testing.T) {
	err := &TaskError{Category: CategoryTimeout, Message: "context deadline exceeded"}
	assert.EqualError(t, err, "Timeout: context deadline exceeded")
}
