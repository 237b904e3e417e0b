package app

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/finnmackay/arbitrageSeeker/internal/feed"
)

// MatchMode runs one full matching pass and exits: fetch both venues'
// listings, match them semantically, and replace the stored pair set.
func (a *App) MatchMode(ctx context.Context, deps *Dependencies) error {
	if deps.MatchService == nil {
		return fmt.Errorf("app: match mode requires the embeddings client")
	}

	if err := deps.MatchService.Rematch(ctx); err != nil {
		return fmt.Errorf("app: matching pass: %w", err)
	}

	count, err := deps.PairStore.Count(ctx)
	if err != nil {
		return fmt.Errorf("app: count pairs: %w", err)
	}
	a.logger.InfoContext(ctx, "match mode finished", slog.Int64("pairs", count))
	return nil
}

// ScanMode runs a single evaluation tick over all matched pairs and exits.
func (a *App) ScanMode(ctx context.Context, deps *Dependencies) error {
	report, err := deps.Scanner.RunTick(ctx)
	if err != nil {
		return fmt.Errorf("app: scan tick: %w", err)
	}

	a.logger.InfoContext(ctx, "scan mode finished",
		slog.String("status", string(report.Status)),
		slog.Int("attempted", report.PairsAttempted),
		slog.Int("opportunities", report.Opportunities),
		slog.Int("reported", report.Reported),
	)
	return nil
}

// MonitorMode runs evaluation ticks continuously, plus the optional periodic
// re-matching pass, opportunity archiver, and Kalshi quote feed. It blocks
// until ctx is cancelled or a component fails hard.
func (a *App) MonitorMode(ctx context.Context, deps *Dependencies) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return deps.Scanner.Monitor(gctx)
	})

	if interval := a.cfg.Scanner.MatchInterval.Duration; interval > 0 && deps.MatchService != nil {
		a.logger.InfoContext(ctx, "periodic re-matching enabled", slog.Duration("interval", interval))
		g.Go(func() error {
			return deps.MatchService.RunLoop(gctx, interval)
		})
	}

	if deps.Archiver != nil {
		a.logger.InfoContext(ctx, "opportunity archiver enabled",
			slog.Duration("interval", a.cfg.Archive.Interval.Duration),
		)
		g.Go(func() error {
			return deps.Archiver.RunLoop(gctx)
		})
	}

	if a.cfg.Scanner.UseFeed {
		tickers, err := a.kalshiTickers(ctx, deps)
		if err != nil {
			return err
		}
		quoteFeed := feed.NewKalshiQuoteFeed(a.cfg.Kalshi.WsURL, tickers, deps.QuoteCache, a.logger)
		a.closers = append(a.closers, quoteFeed.Close)
		g.Go(func() error {
			return quoteFeed.Run(gctx)
		})
	}

	err := g.Wait()
	if err != nil && err != context.Canceled {
		return fmt.Errorf("app: monitor mode: %w", err)
	}
	return err
}

// kalshiTickers collects the Kalshi side of every matched pair for feed
// subscription.
func (a *App) kalshiTickers(ctx context.Context, deps *Dependencies) ([]string, error) {
	pairs, err := deps.PairStore.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("app: list pairs for feed: %w", err)
	}

	tickers := make([]string, 0, len(pairs))
	seen := make(map[string]struct{}, len(pairs))
	for _, p := range pairs {
		if _, ok := seen[p.KalshiTicker]; ok {
			continue
		}
		seen[p.KalshiTicker] = struct{}{}
		tickers = append(tickers, p.KalshiTicker)
	}
	return tickers, nil
}
