package domain

import (
	"context"
	"time"
)

// PairStore persists matched pairs. Implementations must enforce the strict
// one-to-one invariant: inserting a pair whose Polymarket ID or Kalshi ticker
// is already assigned is a silent no-op, never an overwrite.
type PairStore interface {
	// UpsertBatch inserts pairs, skipping any that conflict with an existing
	// assignment. It returns the number actually stored.
	UpsertBatch(ctx context.Context, pairs []MatchedPair) (int, error)
	// Replace atomically swaps the entire stored pair set for a new one.
	// Used by an explicit re-match pass.
	Replace(ctx context.Context, pairs []MatchedPair) error
	List(ctx context.Context) ([]MatchedPair, error)
	Count(ctx context.Context) (int64, error)
}

// OpportunityStore persists detected opportunity history.
type OpportunityStore interface {
	Insert(ctx context.Context, opp Opportunity) error
	ListRecent(ctx context.Context, limit int) ([]Opportunity, error)
	// ListBefore returns opportunities detected before the cutoff in stable
	// (detected_at, id) order. Every opportunity in one tick shares a
	// detection timestamp, so the id is needed to page deterministically.
	ListBefore(ctx context.Context, cutoff time.Time, limit int) ([]Opportunity, error)
	// DeleteIDs removes exactly the given rows and returns how many existed.
	DeleteIDs(ctx context.Context, ids []string) (int64, error)
}

// TickReportStore persists per-tick scan summaries.
type TickReportStore interface {
	Insert(ctx context.Context, report TickReport) error
	ListRecent(ctx context.Context, limit int) ([]TickReport, error)
}
