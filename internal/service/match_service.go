// Package service hosts the orchestration layers that tie venue clients,
// matching, storage, and export together.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/finnmackay/arbitrageSeeker/internal/domain"
	"github.com/finnmackay/arbitrageSeeker/internal/matcher"
)

// matchLockTTL bounds how long a matching pass may hold the scan lock. A
// crashed process loses the lock after the TTL instead of wedging the system.
const matchLockTTL = 30 * time.Minute

// MatchService runs the semantic matching pass: fetch both venues' listings,
// match them, and persist the resulting pairs.
type MatchService struct {
	poly   domain.MarketSource
	kalshi domain.MarketSource
	match  *matcher.Matcher
	pairs  domain.PairStore
	locks  domain.LockManager
	logger *slog.Logger
}

// NewMatchService creates a MatchService.
func NewMatchService(
	poly domain.MarketSource,
	kalshi domain.MarketSource,
	match *matcher.Matcher,
	pairs domain.PairStore,
	locks domain.LockManager,
	logger *slog.Logger,
) *MatchService {
	return &MatchService{
		poly:   poly,
		kalshi: kalshi,
		match:  match,
		pairs:  pairs,
		locks:  locks,
		logger: logger.With(slog.String("component", "match_service")),
	}
}

// Run performs one incremental matching pass. Newly discovered pairs are
// added; markets already assigned to a pair keep their existing assignment.
func (s *MatchService) Run(ctx context.Context) error {
	return s.run(ctx, false)
}

// Rematch performs a full matching pass that atomically replaces the stored
// pair set, dropping assignments for delisted or repriced markets.
func (s *MatchService) Rematch(ctx context.Context) error {
	return s.run(ctx, true)
}

func (s *MatchService) run(ctx context.Context, replace bool) error {
	unlock, err := s.locks.Acquire(ctx, domain.LockKeyScan, matchLockTTL)
	if err != nil {
		return fmt.Errorf("service: acquire scan lock: %w", err)
	}
	defer unlock()

	start := time.Now()

	polyMarkets, kalshiMarkets, err := s.fetchListings(ctx)
	if err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "listings fetched",
		slog.Int("polymarket", len(polyMarkets)),
		slog.Int("kalshi", len(kalshiMarkets)),
		slog.Duration("elapsed", time.Since(start)),
	)

	pairs, err := s.match.Match(ctx, polyMarkets, kalshiMarkets)
	if err != nil {
		return fmt.Errorf("service: match listings: %w", err)
	}

	if replace {
		if err := s.pairs.Replace(ctx, pairs); err != nil {
			return fmt.Errorf("service: replace pairs: %w", err)
		}
		s.logger.InfoContext(ctx, "pair set replaced",
			slog.Int("pairs", len(pairs)),
			slog.Duration("elapsed", time.Since(start)),
		)
		return nil
	}

	stored, err := s.pairs.UpsertBatch(ctx, pairs)
	if err != nil {
		return fmt.Errorf("service: store pairs: %w", err)
	}

	s.logger.InfoContext(ctx, "matching pass complete",
		slog.Int("matched", len(pairs)),
		slog.Int("stored", stored),
		slog.Int("skipped", len(pairs)-stored),
		slog.Duration("elapsed", time.Since(start)),
	)
	return nil
}

// RunLoop re-runs a full replacing matching pass on the given interval until
// ctx is cancelled, so delisted markets fall out of the pair set over time.
// The immediate pass at startup is owned by the caller.
func (s *MatchService) RunLoop(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := s.Rematch(ctx); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				s.logger.ErrorContext(ctx, "matching pass failed",
					slog.String("error", err.Error()),
				)
			}
		}
	}
}

// fetchListings retrieves both venues' full listings concurrently. A failure
// on either side aborts the pass: matching against a partial listing would
// silently shrink the candidate set.
func (s *MatchService) fetchListings(ctx context.Context) ([]domain.MarketRecord, []domain.MarketRecord, error) {
	var polyMarkets, kalshiMarkets []domain.MarketRecord

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		polyMarkets, err = s.poly.FetchMarkets(gctx)
		if err != nil {
			return fmt.Errorf("service: fetch polymarket listings: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		kalshiMarkets, err = s.kalshi.FetchMarkets(gctx)
		if err != nil {
			return fmt.Errorf("service: fetch kalshi listings: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	return polyMarkets, kalshiMarkets, nil
}
