package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jalansafe/routeintel/internal/domain"
)

// newTestRepository connects to TEST_DATABASE_URL or skips the test
func newTestRepository(t *testing.T) *PostgresRepository {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	repo := NewPostgresRepository(pool)
	require.NoError(t, repo.Health(ctx))
	require.NoError(t, repo.EnsureSchema(ctx))
	return repo
}

func TestPostgresRouteChoices(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	routeID := uuid.NewString()

	before := time.Now().Add(-time.Minute)
	require.NoError(t, repo.Record(ctx, routeID, "alice"))
	require.NoError(t, repo.Record(ctx, routeID, "alice"))
	require.NoError(t, repo.Record(ctx, routeID, "bob"))

	n, err := repo.CountSince(ctx, routeID, before)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = repo.CountSince(ctx, routeID, time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestPostgresReports(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	marker := uuid.NewString()

	id, err := repo.CreateReport(ctx, domain.HazardReport{
		Location:    domain.Coordinate{Lat: 3.1466, Lon: 101.6958},
		Category:    domain.HazardRoadCondition,
		Description: marker,
	})
	require.NoError(t, err)

	reports, err := repo.ListByCategory(ctx, domain.HazardRoadCondition)
	require.NoError(t, err)

	var found *domain.HazardReport
	for i := range reports {
		if reports[i].ID == id {
			found = &reports[i]
		}
		assert.Equal(t, domain.HazardRoadCondition, reports[i].Category)
	}
	require.NotNil(t, found)
	assert.Equal(t, marker, found.Description)
	assert.InDelta(t, 3.1466, found.Location.Lat, 1e-9)
}
