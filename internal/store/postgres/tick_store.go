package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/finnmackay/arbitrageSeeker/internal/domain"
)

// TickReportStore implements domain.TickReportStore using PostgreSQL.
type TickReportStore struct {
	pool *pgxpool.Pool
}

var _ domain.TickReportStore = (*TickReportStore)(nil)

// NewTickReportStore creates a new TickReportStore.
func NewTickReportStore(pool *pgxpool.Pool) *TickReportStore {
	return &TickReportStore{pool: pool}
}

// Insert stores one tick report.
func (s *TickReportStore) Insert(ctx context.Context, r domain.TickReport) error {
	const query = `
		INSERT INTO tick_reports (id, started_at, finished_at, status, pairs_attempted, pairs_succeeded, pairs_skipped, opportunities, reported)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := s.pool.Exec(ctx, query,
		r.ID, r.StartedAt, r.FinishedAt, string(r.Status),
		r.PairsAttempted, r.PairsSucceeded, r.PairsSkipped, r.Opportunities, r.Reported,
	)
	if err != nil {
		return fmt.Errorf("postgres: insert tick report %s: %w", r.ID, err)
	}
	return nil
}

// ListRecent returns the most recent tick reports.
func (s *TickReportStore) ListRecent(ctx context.Context, limit int) ([]domain.TickReport, error) {
	const query = `
		SELECT id, started_at, finished_at, status, pairs_attempted, pairs_succeeded, pairs_skipped, opportunities, reported
		FROM tick_reports
		ORDER BY started_at DESC
		LIMIT $1`

	rows, err := s.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: list tick reports: %w", err)
	}
	defer rows.Close()

	var list []domain.TickReport
	for rows.Next() {
		var r domain.TickReport
		var status string
		if err := rows.Scan(&r.ID, &r.StartedAt, &r.FinishedAt, &status,
			&r.PairsAttempted, &r.PairsSucceeded, &r.PairsSkipped, &r.Opportunities, &r.Reported,
		); err != nil {
			return nil, fmt.Errorf("postgres: scan tick report: %w", err)
		}
		r.Status = domain.TickStatus(status)
		list = append(list, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list tick reports: %w", err)
	}
	return list, nil
}
