package task

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jalansafe/routeintel/internal/domain"
)

// RouteAnalyzer scores the routes of a route analysis request
type RouteAnalyzer interface {
	AnalyzeRoutes(ctx context.Context, req domain.RouteAnalysisRequest) ([]domain.ScoredRoute, error)
}

// ImageryAnalyzer runs a flood or deforestation analysis
type ImageryAnalyzer interface {
	Analyze(ctx context.Context, req domain.ImageryAnalysisRequest) (json.RawMessage, error)
}

// RouteResult is the stored result of a route_scoring task
type RouteResult struct {
	Routes []domain.ScoredRoute `json:"routes"`
	Count  int                  `json:"count"`
}

// RouteRunner runs route_scoring tasks
func RouteRunner(a RouteAnalyzer) Runner {
	return RunnerFunc(func(ctx context.Context, payload json.RawMessage) (json.RawMessage, error) {
		var req domain.RouteAnalysisRequest
		if err := json.Unmarshal(payload, &req); err != nil {
			return nil, fmt.Errorf("%w: route payload: %v", domain.ErrInvalidRequest, err)
		}

		routes, err := a.AnalyzeRoutes(ctx, req)
		if err != nil {
			return nil, err
		}

		out, err := json.Marshal(RouteResult{Routes: routes, Count: len(routes)})
		if err != nil {
			return nil, fmt.Errorf("task: failed to marshal routes: %w", err)
		}
		return out, nil
	})
}

// ImageryRunner runs imagery tasks
func ImageryRunner(a ImageryAnalyzer) Runner {
	return RunnerFunc(func(ctx context.Context, payload json.RawMessage) (json.RawMessage, error) {
		var req domain.ImageryAnalysisRequest
		if err := json.Unmarshal(payload, &req); err != nil {
			return nil, fmt.Errorf("%w: imagery payload: %v", domain.ErrInvalidRequest, err)
		}
		return a.Analyze(ctx, req)
	})
}
