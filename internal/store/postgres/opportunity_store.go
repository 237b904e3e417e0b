package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/finnmackay/arbitrageSeeker/internal/domain"
)

// OpportunityStore implements domain.OpportunityStore using PostgreSQL.
type OpportunityStore struct {
	pool *pgxpool.Pool
}

var _ domain.OpportunityStore = (*OpportunityStore)(nil)

// NewOpportunityStore creates a new OpportunityStore.
func NewOpportunityStore(pool *pgxpool.Pool) *OpportunityStore {
	return &OpportunityStore{pool: pool}
}

const opportunityColumns = `
	id, pair_id, polymarket_id, kalshi_ticker, direction, gross_margin, net_margin,
	poly_yes, poly_no, poly_fetched_at, kalshi_yes, kalshi_no, kalshi_fetched_at, detected_at`

// Insert stores one detected opportunity.
func (s *OpportunityStore) Insert(ctx context.Context, opp domain.Opportunity) error {
	const query = `
		INSERT INTO opportunities (` + opportunityColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

	_, err := s.pool.Exec(ctx, query,
		opp.ID, opp.PairID, opp.PolymarketID, opp.KalshiTicker, string(opp.Direction),
		opp.GrossMargin, opp.NetMargin,
		opp.PolyQuote.YesPrice, opp.PolyQuote.NoPrice, opp.PolyQuote.FetchedAt,
		opp.KalshiQuote.YesPrice, opp.KalshiQuote.NoPrice, opp.KalshiQuote.FetchedAt,
		opp.DetectedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: insert opportunity %s: %w", opp.ID, err)
	}
	return nil
}

// ListRecent returns the most recently detected opportunities.
func (s *OpportunityStore) ListRecent(ctx context.Context, limit int) ([]domain.Opportunity, error) {
	const query = `
		SELECT ` + opportunityColumns + `
		FROM opportunities
		ORDER BY detected_at DESC
		LIMIT $1`
	return s.queryOpportunities(ctx, query, limit)
}

// ListBefore returns opportunities detected before the cutoff, oldest first.
// Rows from one tick share a detected_at, so the id is part of the sort key
// to keep batch boundaries stable for the archiver.
func (s *OpportunityStore) ListBefore(ctx context.Context, cutoff time.Time, limit int) ([]domain.Opportunity, error) {
	const query = `
		SELECT ` + opportunityColumns + `
		FROM opportunities
		WHERE detected_at < $1
		ORDER BY detected_at ASC, id ASC
		LIMIT $2`
	return s.queryOpportunities(ctx, query, cutoff, limit)
}

// DeleteIDs removes exactly the given rows and returns the number deleted.
func (s *OpportunityStore) DeleteIDs(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	tag, err := s.pool.Exec(ctx, `DELETE FROM opportunities WHERE id = ANY($1)`, ids)
	if err != nil {
		return 0, fmt.Errorf("postgres: delete %d opportunities: %w", len(ids), err)
	}
	return tag.RowsAffected(), nil
}

func (s *OpportunityStore) queryOpportunities(ctx context.Context, query string, args ...any) ([]domain.Opportunity, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: query opportunities: %w", err)
	}
	defer rows.Close()

	var list []domain.Opportunity
	for rows.Next() {
		var opp domain.Opportunity
		var direction string
		if err := rows.Scan(
			&opp.ID, &opp.PairID, &opp.PolymarketID, &opp.KalshiTicker, &direction,
			&opp.GrossMargin, &opp.NetMargin,
			&opp.PolyQuote.YesPrice, &opp.PolyQuote.NoPrice, &opp.PolyQuote.FetchedAt,
			&opp.KalshiQuote.YesPrice, &opp.KalshiQuote.NoPrice, &opp.KalshiQuote.FetchedAt,
			&opp.DetectedAt,
		); err != nil {
			return nil, fmt.Errorf("postgres: scan opportunity: %w", err)
		}
		opp.Direction = domain.Direction(direction)
		opp.PolyQuote.Platform = domain.PlatformPolymarket
		opp.PolyQuote.ExternalID = opp.PolymarketID
		opp.KalshiQuote.Platform = domain.PlatformKalshi
		opp.KalshiQuote.ExternalID = opp.KalshiTicker
		list = append(list, opp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: query opportunities: %w", err)
	}
	return list, nil
}
