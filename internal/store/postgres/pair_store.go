package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/finnmackay/arbitrageSeeker/internal/domain"
)

// PairStore implements domain.PairStore using PostgreSQL.
type PairStore struct {
	pool *pgxpool.Pool
}

var _ domain.PairStore = (*PairStore)(nil)

// NewPairStore creates a new PairStore.
func NewPairStore(pool *pgxpool.Pool) *PairStore {
	return &PairStore{pool: pool}
}

const insertPairSQL = `
	INSERT INTO matched_pairs (id, polymarket_id, kalshi_ticker, polymarket_question, kalshi_title, similarity, matched_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	ON CONFLICT DO NOTHING`

// UpsertBatch inserts pairs inside one transaction, skipping any pair whose
// Polymarket market or Kalshi ticker is already assigned. Existing rows are
// never overwritten. Returns the number of pairs actually stored.
func (s *PairStore) UpsertBatch(ctx context.Context, pairs []domain.MatchedPair) (int, error) {
	if len(pairs) == 0 {
		return 0, nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("postgres: begin upsert pairs: %w", err)
	}
	defer tx.Rollback(ctx)

	stored := 0
	for _, p := range pairs {
		tag, err := tx.Exec(ctx, insertPairSQL,
			p.ID, p.PolymarketID, p.KalshiTicker, p.PolymarketQuestion, p.KalshiTitle, p.Similarity, p.MatchedAt,
		)
		if err != nil {
			return 0, fmt.Errorf("postgres: insert pair %s/%s: %w", p.PolymarketID, p.KalshiTicker, err)
		}
		stored += int(tag.RowsAffected())
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("postgres: commit upsert pairs: %w", err)
	}
	return stored, nil
}

// Replace atomically swaps the stored pair set for the given one.
func (s *PairStore) Replace(ctx context.Context, pairs []domain.MatchedPair) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("postgres: begin replace pairs: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM matched_pairs`); err != nil {
		return fmt.Errorf("postgres: clear pairs: %w", err)
	}

	for _, p := range pairs {
		if _, err := tx.Exec(ctx, insertPairSQL,
			p.ID, p.PolymarketID, p.KalshiTicker, p.PolymarketQuestion, p.KalshiTitle, p.Similarity, p.MatchedAt,
		); err != nil {
			return fmt.Errorf("postgres: insert pair %s/%s: %w", p.PolymarketID, p.KalshiTicker, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("postgres: commit replace pairs: %w", err)
	}
	return nil
}

// List returns all matched pairs ordered by similarity descending.
func (s *PairStore) List(ctx context.Context) ([]domain.MatchedPair, error) {
	const query = `
		SELECT id, polymarket_id, kalshi_ticker, polymarket_question, kalshi_title, similarity, matched_at
		FROM matched_pairs
		ORDER BY similarity DESC, id`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("postgres: list pairs: %w", err)
	}
	defer rows.Close()

	var pairs []domain.MatchedPair
	for rows.Next() {
		var p domain.MatchedPair
		if err := rows.Scan(&p.ID, &p.PolymarketID, &p.KalshiTicker, &p.PolymarketQuestion, &p.KalshiTitle, &p.Similarity, &p.MatchedAt); err != nil {
			return nil, fmt.Errorf("postgres: scan pair: %w", err)
		}
		pairs = append(pairs, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list pairs: %w", err)
	}
	return pairs, nil
}

// Count returns the number of stored pairs.
func (s *PairStore) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM matched_pairs`).Scan(&n); err != nil {
		return 0, fmt.Errorf("postgres: count pairs: %w", err)
	}
	return n, nil
}
