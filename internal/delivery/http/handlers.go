package http

import (
	"context"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jalansafe/routeintel/internal/domain"
)

// RouteScorer is the route-intelligence surface served over HTTP
type RouteScorer interface {
	GetScoredRoutes(ctx context.Context, start, end domain.Coordinate) []domain.ScoredRoute
	GetScoredRoutesByName(ctx context.Context, startName, endName string, hint *domain.Coordinate) ([]domain.ScoredRoute, error)
	GetScoredRoutesFromCoords(ctx context.Context, start domain.Coordinate, endName string) ([]domain.ScoredRoute, error)
	RecordRouteChoice(routeID, observerID string) error
}

// TaskOrchestrator accepts and reports asynchronous analyses
type TaskOrchestrator interface {
	Submit(ctx context.Context, req domain.AnalysisRequest) (string, error)
	Poll(ctx context.Context, id string) (domain.AnalysisTask, error)
}

// healthTimeout bounds each dependency check on /health
const healthTimeout = 3 * time.Second

// Handler contains all HTTP handlers
type Handler struct {
	routes  RouteScorer
	tasks   TaskOrchestrator
	reports domain.ReportStore
	checks  map[string]domain.HealthChecker
}

// NewHandler creates a new handler. checks are reported by name on /health.
func NewHandler(routes RouteScorer, tasks TaskOrchestrator, reports domain.ReportStore, checks map[string]domain.HealthChecker) *Handler {
	return &Handler{
		routes:  routes,
		tasks:   tasks,
		reports: reports,
		checks:  checks,
	}
}

type routeRequest struct {
	Start *domain.Coordinate `json:"start"`
	End   *domain.Coordinate `json:"end"`
}

type routeByNameRequest struct {
	StartName       string             `json:"start_name"`
	EndName         string             `json:"end_name"`
	CurrentLocation *domain.Coordinate `json:"current_location"`
}

type routeFromCoordsRequest struct {
	Start   *domain.Coordinate `json:"start"`
	EndName string             `json:"end_name"`
}

type routeChoiceRequest struct {
	UserID          string `json:"user_id"`
	ChosenRouteHash string `json:"chosen_route_hash"`
}

type reportRequest struct {
	Lat         float64               `json:"lat"`
	Lon         float64               `json:"lon"`
	ReportType  domain.HazardCategory `json:"report_type"`
	Description string                `json:"description"`
	PhotoURL    string                `json:"photo_url"`
}

// HealthCheck returns service health status
func (h *Handler) HealthCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), healthTimeout)
	defer cancel()

	status := "ok"
	deps := fiber.Map{}
	for name, check := range h.checks {
		if err := check.Health(ctx); err != nil {
			deps[name] = "unavailable"
			status = "degraded"
			continue
		}
		deps[name] = "ok"
	}

	return c.JSON(fiber.Map{
		"status":       status,
		"service":      "routeintel",
		"version":      "1.0.0",
		"dependencies": deps,
	})
}

// GetRoutes scores the routes between two coordinates
func (h *Handler) GetRoutes(c *fiber.Ctx) error {
	var req routeRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := validCoordinate("start", req.Start); err != nil {
		return err
	}
	if err := validCoordinate("end", req.End); err != nil {
		return err
	}

	routes := h.routes.GetScoredRoutes(c.Context(), *req.Start, *req.End)
	return routesResponse(c, routes)
}

// GetRoutesByName geocodes both place names and scores the routes between them
func (h *Handler) GetRoutesByName(c *fiber.Ctx) error {
	var req routeByNameRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if req.StartName == "" || req.EndName == "" {
		return fiber.NewError(fiber.StatusBadRequest, "start_name and end_name are required")
	}
	if req.CurrentLocation != nil {
		if err := validCoordinate("current_location", req.CurrentLocation); err != nil {
			return err
		}
	}

	routes, err := h.routes.GetScoredRoutesByName(c.Context(), req.StartName, req.EndName, req.CurrentLocation)
	if err != nil {
		return toFiberError(err, "Failed to resolve locations")
	}
	return routesResponse(c, routes)
}

// GetRoutesFromCoords scores the routes from a coordinate to a named place
func (h *Handler) GetRoutesFromCoords(c *fiber.Ctx) error {
	var req routeFromCoordsRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := validCoordinate("start", req.Start); err != nil {
		return err
	}
	if req.EndName == "" {
		return fiber.NewError(fiber.StatusBadRequest, "end_name is required")
	}

	routes, err := h.routes.GetScoredRoutesFromCoords(c.Context(), *req.Start, req.EndName)
	if err != nil {
		return toFiberError(err, "Failed to resolve destination")
	}
	return routesResponse(c, routes)
}

// RecordRouteChoice logs the route a user picked. The write is asynchronous.
func (h *Handler) RecordRouteChoice(c *fiber.Ctx) error {
	var req routeChoiceRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	if err := h.routes.RecordRouteChoice(req.ChosenRouteHash, req.UserID); err != nil {
		return toFiberError(err, "Failed to record route choice")
	}

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"success": true,
	})
}

// SubmitAnalysis queues an analysis and returns where to poll for it
func (h *Handler) SubmitAnalysis(c *fiber.Ctx) error {
	var req domain.AnalysisRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if len(req.Payload) == 0 {
		return fiber.NewError(fiber.StatusBadRequest, "payload is required")
	}

	id, err := h.tasks.Submit(c.Context(), req)
	if err != nil {
		return toFiberError(err, "Failed to submit analysis")
	}

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"success":         true,
		"task_id":         id,
		"status_endpoint": "/api/v1/tasks/" + id,
	})
}

// GetTask returns the current record of an analysis task
func (h *Handler) GetTask(c *fiber.Ctx) error {
	task, err := h.tasks.Poll(c.Context(), c.Params("id"))
	if err != nil {
		return toFiberError(err, "Failed to load task")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    task,
	})
}

// ListReports returns community reports of one category
func (h *Handler) ListReports(c *fiber.Ctx) error {
	category := domain.HazardCategory(c.Query("type", string(domain.HazardRoadCondition)))
	if !category.Valid() {
		return fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("Unknown report type %q", category))
	}

	data, err := h.reports.ListByCategory(c.Context(), category)
	if err != nil {
		return toFiberError(err, "Failed to fetch reports")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    data,
		"count":   len(data),
	})
}

// CreateReport stores a community hazard report
func (h *Handler) CreateReport(c *fiber.Ctx) error {
	var req reportRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	loc := domain.Coordinate{Lat: req.Lat, Lon: req.Lon}
	if !req.ReportType.Valid() {
		return fiber.NewError(fiber.StatusBadRequest, "report_type must be road_condition or traffic_light")
	}
	if err := validCoordinate("location", &loc); err != nil {
		return err
	}

	id, err := h.reports.CreateReport(c.Context(), domain.HazardReport{
		Location:    loc,
		Category:    req.ReportType,
		Description: req.Description,
		PhotoURL:    req.PhotoURL,
	})
	if err != nil {
		return toFiberError(err, "Failed to save report")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"id":      id,
	})
}

func routesResponse(c *fiber.Ctx, routes []domain.ScoredRoute) error {
	return c.JSON(fiber.Map{
		"success": true,
		"data":    routes,
		"count":   len(routes),
	})
}

func validCoordinate(field string, coord *domain.Coordinate) error {
	if coord == nil {
		return fiber.NewError(fiber.StatusBadRequest, field+" is required")
	}
	if !coord.Valid() {
		return fiber.NewError(fiber.StatusBadRequest, field+" is out of range")
	}
	return nil
}
