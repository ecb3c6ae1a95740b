package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jalansafe/routeintel/internal/domain"
)

// Schema creates the tables read and written by this repository
const Schema = `
CREATE TABLE IF NOT EXISTS reports (
	id          BIGSERIAL PRIMARY KEY,
	lat         DOUBLE PRECISION NOT NULL,
	lon         DOUBLE PRECISION NOT NULL,
	report_type VARCHAR(32) NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	photo_url   TEXT NOT NULL DEFAULT '',
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_reports_type ON reports (report_type);

CREATE TABLE IF NOT EXISTS route_choices (
	id                BIGSERIAL PRIMARY KEY,
	user_id           VARCHAR(128) NOT NULL,
	chosen_route_hash VARCHAR(64) NOT NULL,
	created_at        TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_route_choices_hash_time ON route_choices (chosen_route_hash, created_at);
`

// PostgresRepository implements domain.HazardStore and domain.TrafficStore
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL repository
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// EnsureSchema creates missing tables and indexes
func (r *PostgresRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("postgres: failed to apply schema: %w", err)
	}
	return nil
}

// ListByCategory returns every report of one category, newest first
func (r *PostgresRepository) ListByCategory(ctx context.Context, category domain.HazardCategory) ([]domain.HazardReport, error) {
	query := `
		SELECT id, lat, lon, report_type, description, photo_url, created_at
		FROM reports
		WHERE report_type = $1
		ORDER BY created_at DESC
	`

	rows, err := r.pool.Query(ctx, query, string(category))
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to query reports: %w", err)
	}
	defer rows.Close()

	results := []domain.HazardReport{}
	for rows.Next() {
		var (
			h       domain.HazardReport
			rawType string
		)
		err := rows.Scan(
			&h.ID, &h.Location.Lat, &h.Location.Lon, &rawType,
			&h.Description, &h.PhotoURL, &h.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("postgres: failed to scan report row: %w", err)
		}
		h.Category = domain.HazardCategory(rawType)
		results = append(results, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: failed to read reports: %w", err)
	}

	return results, nil
}

// CreateReport stores a community report and returns its id
func (r *PostgresRepository) CreateReport(ctx context.Context, h domain.HazardReport) (int64, error) {
	query := `
		INSERT INTO reports (lat, lon, report_type, description, photo_url)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`

	var id int64
	err := r.pool.QueryRow(ctx, query,
		h.Location.Lat, h.Location.Lon, string(h.Category), h.Description, h.PhotoURL,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("postgres: failed to save report: %w", err)
	}

	return id, nil
}

// Record appends one route choice at the database's current time
func (r *PostgresRepository) Record(ctx context.Context, routeID, observerID string) error {
	query := `INSERT INTO route_choices (user_id, chosen_route_hash) VALUES ($1, $2)`

	if _, err := r.pool.Exec(ctx, query, observerID, routeID); err != nil {
		return fmt.Errorf("postgres: failed to save route choice: %w", err)
	}
	return nil
}

// CountSince counts distinct users who chose routeID since the given time
func (r *PostgresRepository) CountSince(ctx context.Context, routeID string, since time.Time) (int, error) {
	query := `
		SELECT COUNT(DISTINCT user_id)
		FROM route_choices
		WHERE chosen_route_hash = $1 AND created_at >= $2
	`

	var n int
	if err := r.pool.QueryRow(ctx, query, routeID, since).Scan(&n); err != nil {
		return 0, fmt.Errorf("postgres: failed to count route choices: %w", err)
	}
	return n, nil
}

// Health checks database connectivity
func (r *PostgresRepository) Health(ctx context.Context) error {
	if err := r.pool.Ping(ctx); err != nil {
		return fmt.Errorf("postgres: health check failed: %w", err)
	}
	return nil
}
