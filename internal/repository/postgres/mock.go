package postgres

import (
	"context"
	"sync"
	"time"

	"github.com/jalansafe/routeintel/internal/domain"
)

// MockRepository is an in-process stand-in for PostgresRepository, used in
// demo mode when the database is unreachable and in tests
type MockRepository struct {
	mu      sync.RWMutex
	reports []domain.HazardReport
	choices map[string][]domain.TrafficObservation
	nextID  int64
	now     func() time.Time
}

// NewMockRepository creates a mock repository holding the given reports
func NewMockRepository(reports ...domain.HazardReport) *MockRepository {
	r := &MockRepository{
		choices: make(map[string][]domain.TrafficObservation),
		now:     time.Now,
	}
	for _, h := range reports {
		_, _ = r.CreateReport(context.Background(), h)
	}
	return r
}

// DemoHazards returns a few road-condition reports around central Kuala Lumpur
func DemoHazards() []domain.HazardReport {
	day := time.Now().Add(-24 * time.Hour)
	return []domain.HazardReport{
		{
			Location:    domain.Coordinate{Lat: 3.1466, Lon: 101.6958},
			Category:    domain.HazardRoadCondition,
			Description: "Deep pothole in the left lane",
			CreatedAt:   day,
		},
		{
			Location:    domain.Coordinate{Lat: 3.1390, Lon: 101.6869},
			Category:    domain.HazardRoadCondition,
			Description: "Flooded underpass after heavy rain",
			CreatedAt:   day,
		},
		{
			Location:    domain.Coordinate{Lat: 3.1579, Lon: 101.7123},
			Category:    domain.HazardTrafficLight,
			Description: "Signal stuck on red",
			CreatedAt:   day,
		},
	}
}

// ListByCategory returns reports of one category, newest first
func (r *MockRepository) ListByCategory(ctx context.Context, category domain.HazardCategory) ([]domain.HazardReport, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	results := []domain.HazardReport{}
	for i := len(r.reports) - 1; i >= 0; i-- {
		if r.reports[i].Category == category {
			results = append(results, r.reports[i])
		}
	}
	return results, nil
}

// CreateReport stores a report and returns its id
func (r *MockRepository) CreateReport(ctx context.Context, h domain.HazardReport) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	h.ID = r.nextID
	if h.CreatedAt.IsZero() {
		h.CreatedAt = r.now()
	}
	r.reports = append(r.reports, h)
	return h.ID, nil
}

// Record appends one route choice at the current time
func (r *MockRepository) Record(ctx context.Context, routeID, observerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.choices[routeID] = append(r.choices[routeID], domain.TrafficObservation{
		RouteID:    routeID,
		ObserverID: observerID,
		Timestamp:  r.now(),
	})
	return nil
}

// CountSince counts distinct observers of routeID since the given time
func (r *MockRepository) CountSince(ctx context.Context, routeID string, since time.Time) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]struct{})
	for _, o := range r.choices[routeID] {
		if !o.Timestamp.Before(since) {
			seen[o.ObserverID] = struct{}{}
		}
	}
	return len(seen), nil
}

// Health always returns nil in mock mode
func (r *MockRepository) Health(ctx context.Context) error {
	return nil
}
