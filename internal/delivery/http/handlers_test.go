package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	nethttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jalansafe/routeintel/internal/domain"
	"github.com/jalansafe/routeintel/internal/repository/postgres"
	"github.com/jalansafe/routeintel/internal/task"
)

type fakeRoutes struct {
	routes  []domain.ScoredRoute
	err     error
	choices [][2]string
	hint    *domain.Coordinate
}

func (f *fakeRoutes) GetScoredRoutes(ctx context.Context, start, end domain.Coordinate) []domain.ScoredRoute {
	return f.routes
}

func (f *fakeRoutes) GetScoredRoutesByName(ctx context.Context, startName, endName string, hint *domain.Coordinate) ([]domain.ScoredRoute, error) {
	f.hint = hint
	return f.routes, f.err
}

func (f *fakeRoutes) GetScoredRoutesFromCoords(ctx context.Context, start domain.Coordinate, endName string) ([]domain.ScoredRoute, error) {
	return f.routes, f.err
}

func (f *fakeRoutes) RecordRouteChoice(routeID, observerID string) error {
	if routeID == "" || observerID == "" {
		return fmt.Errorf("%w: route id and observer id are required", domain.ErrInvalidRequest)
	}
	f.choices = append(f.choices, [2]string{routeID, observerID})
	return nil
}

type failingCheck struct{}

func (failingCheck) Health(ctx context.Context) error { return errors.New("connection refused") }

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func scoredRoute(id string) domain.ScoredRoute {
	return domain.ScoredRoute{
		RouteCandidate: domain.RouteCandidate{ID: id, Geometry: "_p~iF~ps|U", DurationSeconds: 600},
		Score:          100,
		Classification: domain.ClassificationGreen,
		IsOptimal:      true,
		Tags:           []string{domain.TagOptimalPath},
	}
}

type testServer struct {
	app    *fiber.App
	routes *fakeRoutes
	orch   *task.Orchestrator
	repo   *postgres.MockRepository
}

func newTestServer(t *testing.T, checks map[string]domain.HealthChecker) *testServer {
	t.Helper()

	routes := &fakeRoutes{routes: []domain.ScoredRoute{scoredRoute("r1")}}
	repo := postgres.NewMockRepository(postgres.DemoHazards()...)
	orch := task.NewOrchestrator(task.NewMemoryStore(), map[domain.AnalysisKind]task.Runner{
		domain.KindImagery: task.RunnerFunc(func(ctx context.Context, payload json.RawMessage) (json.RawMessage, error) {
			return json.RawMessage(`{"flood_area_sq_km":1.42}`), nil
		}),
	}, time.Minute, quietLogger())
	t.Cleanup(orch.Wait)

	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	SetupRoutes(app, NewHandler(routes, orch, repo, checks))

	return &testServer{app: app, routes: routes, orch: orch, repo: repo}
}

func (s *testServer) do(t *testing.T, method, path, body string) (int, map[string]interface{}) {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]interface{}
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 && raw[0] == '{' {
		require.NoError(t, json.Unmarshal(raw, &out))
	}
	return resp.StatusCode, out
}

func TestHealthCheck(t *testing.T) {
	s := newTestServer(t, map[string]domain.HealthChecker{"database": postgres.NewMockRepository()})
	code, body := s.do(t, nethttp.MethodGet, "/health", "")

	assert.Equal(t, nethttp.StatusOK, code)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, map[string]interface{}{"database": "ok"}, body["dependencies"])

	s = newTestServer(t, map[string]domain.HealthChecker{"redis": failingCheck{}})
	_, body = s.do(t, nethttp.MethodGet, "/health", "")
	assert.Equal(t, "degraded", body["status"])
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t, nil)
	req := httptest.NewRequest(nethttp.MethodGet, "/metrics", nil)

	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	assert.Equal(t, nethttp.StatusOK, resp.StatusCode)
	assert.Contains(t, string(raw), "go_goroutines")
}

func TestGetRoutes(t *testing.T) {
	s := newTestServer(t, nil)

	code, body := s.do(t, nethttp.MethodPost, "/api/v1/routes", `{"start":{"lat":3.1528,"lon":101.7038},"end":{"lat":3.1579,"lon":101.7116}}`)
	require.Equal(t, nethttp.StatusOK, code)
	assert.Equal(t, true, body["success"])
	assert.EqualValues(t, 1, body["count"])

	routes := body["data"].([]interface{})
	first := routes[0].(map[string]interface{})
	assert.Equal(t, "r1", first["id"])
	assert.Equal(t, "green", first["color"])
	assert.EqualValues(t, 100, first["final_score"])
	assert.EqualValues(t, 600, first["base_travel_time"])
}

func TestGetRoutesEmptyIsNotAnError(t *testing.T) {
	s := newTestServer(t, nil)
	s.routes.routes = []domain.ScoredRoute{}

	code, body := s.do(t, nethttp.MethodPost, "/api/v1/routes", `{"start":{"lat":3.1,"lon":101.7},"end":{"lat":3.2,"lon":101.8}}`)
	assert.Equal(t, nethttp.StatusOK, code)
	assert.EqualValues(t, 0, body["count"])
	assert.Equal(t, []interface{}{}, body["data"])
}

func TestGetRoutesValidation(t *testing.T) {
	s := newTestServer(t, nil)
	tests := []struct {
		name string
		body string
	}{
		{"malformed", `{"start":`},
		{"missing end", `{"start":{"lat":3.1,"lon":101.7}}`},
		{"out of range", `{"start":{"lat":93.1,"lon":101.7},"end":{"lat":3.2,"lon":101.8}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, body := s.do(t, nethttp.MethodPost, "/api/v1/routes", tt.body)
			assert.Equal(t, nethttp.StatusBadRequest, code)
			assert.Equal(t, true, body["error"])
		})
	}
}

func TestGetRoutesByName(t *testing.T) {
	s := newTestServer(t, nil)

	code, _ := s.do(t, nethttp.MethodPost, "/api/v1/routes/by-name", `{"start_name":"KLCC","end_name":"Bukit Bintang","current_location":{"lat":3.15,"lon":101.7}}`)
	assert.Equal(t, nethttp.StatusOK, code)
	require.NotNil(t, s.routes.hint)
	assert.Equal(t, 3.15, s.routes.hint.Lat)

	s.routes.err = fmt.Errorf("end location: geocoding %q: %w", "Atlantis", domain.ErrNotFound)
	code, body := s.do(t, nethttp.MethodPost, "/api/v1/routes/by-name", `{"start_name":"KLCC","end_name":"Atlantis"}`)
	assert.Equal(t, nethttp.StatusNotFound, code)
	assert.Contains(t, body["message"], "Atlantis")

	code, _ = s.do(t, nethttp.MethodPost, "/api/v1/routes/by-name", `{"start_name":"KLCC"}`)
	assert.Equal(t, nethttp.StatusBadRequest, code)
}

func TestGetRoutesFromCoords(t *testing.T) {
	s := newTestServer(t, nil)

	code, body := s.do(t, nethttp.MethodPost, "/api/v1/routes/from-coords", `{"start":{"lat":3.1528,"lon":101.7038},"end_name":"Mid Valley"}`)
	assert.Equal(t, nethttp.StatusOK, code)
	assert.EqualValues(t, 1, body["count"])

	code, _ = s.do(t, nethttp.MethodPost, "/api/v1/routes/from-coords", `{"end_name":"Mid Valley"}`)
	assert.Equal(t, nethttp.StatusBadRequest, code)

	s.routes.err = errors.New("boom")
	code, body = s.do(t, nethttp.MethodPost, "/api/v1/routes/from-coords", `{"start":{"lat":3.1528,"lon":101.7038},"end_name":"Mid Valley"}`)
	assert.Equal(t, nethttp.StatusInternalServerError, code)
	assert.Equal(t, "Failed to resolve destination", body["message"])

	s.routes.err = fmt.Errorf("geocoding %q: %w: status 503", "Mid Valley", domain.ErrProviderUnavailable)
	code, body = s.do(t, nethttp.MethodPost, "/api/v1/routes/from-coords", `{"start":{"lat":3.1528,"lon":101.7038},"end_name":"Mid Valley"}`)
	assert.Equal(t, nethttp.StatusBadGateway, code)
	assert.Equal(t, "Failed to resolve destination", body["message"])
}

func TestRecordRouteChoice(t *testing.T) {
	s := newTestServer(t, nil)

	code, _ := s.do(t, nethttp.MethodPost, "/api/v1/routes/choice", `{"user_id":"alice","chosen_route_hash":"abc"}`)
	assert.Equal(t, nethttp.StatusAccepted, code)
	assert.Equal(t, [][2]string{{"abc", "alice"}}, s.routes.choices)

	code, _ = s.do(t, nethttp.MethodPost, "/api/v1/routes/choice", `{"user_id":"alice"}`)
	assert.Equal(t, nethttp.StatusBadRequest, code)
}

func TestSubmitAndPollAnalysis(t *testing.T) {
	s := newTestServer(t, nil)

	code, body := s.do(t, nethttp.MethodPost, "/api/v1/analysis", `{"kind":"imagery","payload":{"lat":1.55,"lon":110.35,"analysis_type":"flood"}}`)
	require.Equal(t, nethttp.StatusAccepted, code)

	id, _ := body["task_id"].(string)
	require.NotEmpty(t, id)
	assert.Equal(t, "/api/v1/tasks/"+id, body["status_endpoint"])

	s.orch.Wait()
	code, body = s.do(t, nethttp.MethodGet, "/api/v1/tasks/"+id, "")
	require.Equal(t, nethttp.StatusOK, code)

	data := body["data"].(map[string]interface{})
	assert.Equal(t, id, data["task_id"])
	assert.Equal(t, "COMPLETED", data["status"])
	assert.Equal(t, map[string]interface{}{"flood_area_sq_km": 1.42}, data["result"])
	assert.Equal(t, map[string]interface{}{"lat": 1.55, "lon": 110.35, "analysis_type": "flood"}, data["request_data"])
}

func TestSubmitAnalysisErrors(t *testing.T) {
	s := newTestServer(t, nil)

	code, _ := s.do(t, nethttp.MethodPost, "/api/v1/analysis", `{"kind":"weather_forecast","payload":{}}`)
	assert.Equal(t, nethttp.StatusBadRequest, code)

	code, _ = s.do(t, nethttp.MethodPost, "/api/v1/analysis", `{"kind":"imagery"}`)
	assert.Equal(t, nethttp.StatusBadRequest, code)
}

func TestGetUnknownTask(t *testing.T) {
	s := newTestServer(t, nil)

	code, body := s.do(t, nethttp.MethodGet, "/api/v1/tasks/does-not-exist", "")
	assert.Equal(t, nethttp.StatusNotFound, code)
	assert.Equal(t, true, body["error"])
}

func TestReports(t *testing.T) {
	s := newTestServer(t, nil)

	code, body := s.do(t, nethttp.MethodGet, "/api/v1/reports", "")
	assert.Equal(t, nethttp.StatusOK, code)
	assert.EqualValues(t, 2, body["count"])

	code, body = s.do(t, nethttp.MethodPost, "/api/v1/reports", `{"lat":3.14,"lon":101.69,"report_type":"traffic_light","description":"Signal dark"}`)
	assert.Equal(t, nethttp.StatusCreated, code)
	assert.NotZero(t, body["id"])

	code, body = s.do(t, nethttp.MethodGet, "/api/v1/reports?type=traffic_light", "")
	assert.Equal(t, nethttp.StatusOK, code)
	assert.EqualValues(t, 2, body["count"])

	code, _ = s.do(t, nethttp.MethodGet, "/api/v1/reports?type=graffiti", "")
	assert.Equal(t, nethttp.StatusBadRequest, code)

	code, _ = s.do(t, nethttp.MethodPost, "/api/v1/reports", `{"lat":3.14,"lon":101.69,"report_type":"graffiti"}`)
	assert.Equal(t, nethttp.StatusBadRequest, code)
}
