package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/jalansafe/routeintel/internal/domain"
	"github.com/jalansafe/routeintel/internal/metrics"
	"github.com/jalansafe/routeintel/internal/scoring"
)

// recordTimeout bounds a background route-choice write
const recordTimeout = 5 * time.Second

// RouteService is the route-intelligence surface: candidate synthesis,
// hazard and traffic lookups, scoring and route-choice logging
type RouteService struct {
	synth    *Synthesizer
	scorer   *scoring.Scorer
	geocoder domain.Geocoder
	weather  domain.WeatherProvider
	hazards  domain.HazardStore
	traffic  domain.TrafficStore
	log      logrus.FieldLogger
	now      func() time.Time

	wgBg sync.WaitGroup // tracks background goroutines for graceful shutdown
}

// NewRouteService creates a new route service
func NewRouteService(
	synth *Synthesizer,
	scorer *scoring.Scorer,
	geocoder domain.Geocoder,
	weather domain.WeatherProvider,
	hazards domain.HazardStore,
	traffic domain.TrafficStore,
	log logrus.FieldLogger,
) *RouteService {
	return &RouteService{
		synth:    synth,
		scorer:   scorer,
		geocoder: geocoder,
		weather:  weather,
		hazards:  hazards,
		traffic:  traffic,
		log:      log,
		now:      time.Now,
	}
}

// WaitBackground blocks until all background route-choice writes complete.
// Call during graceful shutdown to avoid dropped writes.
func (s *RouteService) WaitBackground() {
	s.wgBg.Wait()
}

// GetScoredRoutes returns the candidates between start and end, best first.
// An empty slice means no route was found. Flaky collaborators degrade the
// result (fewer candidates, no hazards, unknown weather) instead of failing it.
func (s *RouteService) GetScoredRoutes(ctx context.Context, start, end domain.Coordinate) []domain.ScoredRoute {
	candidates := s.synth.Candidates(ctx, start, end)
	if len(candidates) == 0 {
		return []domain.ScoredRoute{}
	}

	var (
		weather   = domain.UnknownWeather
		hazards   []domain.HazardReport
		observers = make(map[string]int, len(candidates))
		mu        sync.Mutex
	)

	g, gctx := errgroup.WithContext(ctx)

	// weather describes the area, so it is fetched once at the batch origin
	if origin, ok := candidates[0].Start(); ok {
		g.Go(func() error {
			weather = s.weather.Current(gctx, origin)
			return nil
		})
	}

	g.Go(func() error {
		list, err := s.hazards.ListByCategory(gctx, domain.HazardRoadCondition)
		if err != nil {
			metrics.ProviderFailures.WithLabelValues("hazards").Inc()
			s.log.WithError(err).Warn("Hazard lookup failed, scoring without hazards")
			return nil
		}
		hazards = list
		return nil
	})

	since := s.now().Add(-s.scorer.Config().TrafficWindow)
	for _, c := range candidates {
		routeID := c.ID
		g.Go(func() error {
			n, err := s.traffic.CountSince(gctx, routeID, since)
			if err != nil {
				metrics.ProviderFailures.WithLabelValues("traffic").Inc()
				s.log.WithError(err).WithField("route_id", routeID).Warn("Traffic lookup failed, assuming no observers")
				return nil
			}
			mu.Lock()
			observers[routeID] = n
			mu.Unlock()
			return nil
		})
	}

	_ = g.Wait()

	scored := s.scorer.Score(candidates, hazards, observers, weather.Summary())
	for _, r := range scored {
		metrics.RoutesScored.WithLabelValues(string(r.Classification)).Inc()
	}

	s.log.WithFields(logrus.Fields{
		"candidates": len(scored),
		"hazards":    len(hazards),
		"weather":    weather.Summary(),
	}).Info("Routes scored")

	return scored
}

// GetScoredRoutesByName geocodes both place names and scores the routes between them.
// hint, usually the caller's position, narrows the geocoding search.
func (s *RouteService) GetScoredRoutesByName(ctx context.Context, startName, endName string, hint *domain.Coordinate) ([]domain.ScoredRoute, error) {
	start, err := s.geocoder.Resolve(ctx, startName, hint)
	if err != nil {
		return nil, fmt.Errorf("start location: %w", err)
	}
	if hint == nil {
		hint = &start
	}

	end, err := s.geocoder.Resolve(ctx, endName, hint)
	if err != nil {
		return nil, fmt.Errorf("end location: %w", err)
	}

	return s.GetScoredRoutes(ctx, start, end), nil
}

// GetScoredRoutesFromCoords geocodes the destination near start and scores the routes
func (s *RouteService) GetScoredRoutesFromCoords(ctx context.Context, start domain.Coordinate, endName string) ([]domain.ScoredRoute, error) {
	end, err := s.geocoder.Resolve(ctx, endName, &start)
	if err != nil {
		return nil, fmt.Errorf("end location: %w", err)
	}
	return s.GetScoredRoutes(ctx, start, end), nil
}

// AnalyzeRoutes resolves a route analysis request to endpoints and scores it
func (s *RouteService) AnalyzeRoutes(ctx context.Context, req domain.RouteAnalysisRequest) ([]domain.ScoredRoute, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	switch {
	case req.Start != nil && req.End != nil:
		return s.GetScoredRoutes(ctx, *req.Start, *req.End), nil
	case req.Start != nil:
		return s.GetScoredRoutesFromCoords(ctx, *req.Start, req.EndName)
	default:
		if req.End != nil {
			start, err := s.geocoder.Resolve(ctx, req.StartName, req.Hint)
			if err != nil {
				return nil, fmt.Errorf("start location: %w", err)
			}
			return s.GetScoredRoutes(ctx, start, *req.End), nil
		}
		return s.GetScoredRoutesByName(ctx, req.StartName, req.EndName, req.Hint)
	}
}

// RecordRouteChoice logs that observerID picked routeID. The write happens in
// the background; only invalid input is reported to the caller.
func (s *RouteService) RecordRouteChoice(routeID, observerID string) error {
	if routeID == "" || observerID == "" {
		return fmt.Errorf("%w: route id and observer id are required", domain.ErrInvalidRequest)
	}
	if len(routeID) > domain.MaxRouteIDLength {
		return fmt.Errorf("%w: route id longer than %d characters", domain.ErrInvalidRequest, domain.MaxRouteIDLength)
	}
	if len(observerID) > domain.MaxObserverIDLength {
		return fmt.Errorf("%w: observer id longer than %d characters", domain.ErrInvalidRequest, domain.MaxObserverIDLength)
	}

	s.wgBg.Add(1)
	go func() {
		defer s.wgBg.Done()
		bgCtx, cancel := context.WithTimeout(context.Background(), recordTimeout)
		defer cancel()
		if err := s.traffic.Record(bgCtx, routeID, observerID); err != nil {
			metrics.ProviderFailures.WithLabelValues("traffic").Inc()
			s.log.WithError(err).WithField("route_id", routeID).Error("Failed to record route choice")
		}
	}()
	return nil
}
