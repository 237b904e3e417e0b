// Package scanner runs the periodic evaluation tick: fetch fresh quotes for
// every matched pair, evaluate both arbitrage directions, and report
// qualifying opportunities.
package scanner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/finnmackay/arbitrageSeeker/internal/arbitrage"
	"github.com/finnmackay/arbitrageSeeker/internal/domain"
)

// persistTimeout bounds the background writes (report row, notifications)
// that outlive the tick deadline.
const persistTimeout = 10 * time.Second

// RateLimit is a per-venue request budget.
type RateLimit struct {
	Limit  int
	Window time.Duration
}

// Config holds scanner tuning parameters.
type Config struct {
	ScanInterval time.Duration
	TickTimeout  time.Duration
	MaxInFlight  int
	FetchRetries int
	RetryBackoff time.Duration
	QuoteMaxAge  time.Duration
	RateLimits   map[domain.Platform]RateLimit
}

// Notifier is the slice of the notification layer the scanner uses. Errors
// are logged, never propagated; a failed delivery must not fail the tick.
type Notifier interface {
	NotifyOpportunity(ctx context.Context, opp domain.Opportunity) error
	NotifyTickSummary(ctx context.Context, report domain.TickReport) error
}

// Scanner evaluates all matched pairs on a fixed cadence.
type Scanner struct {
	cfg      Config
	sources  map[domain.Platform]domain.MarketSource
	pairs    domain.PairStore
	opps     domain.OpportunityStore
	ticks    domain.TickReportStore
	quotes   domain.QuoteCache
	limiter  domain.RateLimiter
	locks    domain.LockManager
	eval     *arbitrage.Evaluator
	debounce *arbitrage.Debouncer
	notifier Notifier
	logger   *slog.Logger

	notifyWG sync.WaitGroup
}

// New creates a Scanner. notifier may be nil when alerting is disabled.
func New(
	cfg Config,
	sources map[domain.Platform]domain.MarketSource,
	pairs domain.PairStore,
	opps domain.OpportunityStore,
	ticks domain.TickReportStore,
	quotes domain.QuoteCache,
	limiter domain.RateLimiter,
	locks domain.LockManager,
	eval *arbitrage.Evaluator,
	debounce *arbitrage.Debouncer,
	notifier Notifier,
	logger *slog.Logger,
) *Scanner {
	return &Scanner{
		cfg:      cfg,
		sources:  sources,
		pairs:    pairs,
		opps:     opps,
		ticks:    ticks,
		quotes:   quotes,
		limiter:  limiter,
		locks:    locks,
		eval:     eval,
		debounce: debounce,
		notifier: notifier,
		logger:   logger.With(slog.String("component", "scanner")),
	}
}

// tickState collects per-tick outcomes across workers.
type tickState struct {
	mu        sync.Mutex
	succeeded int
	skipped   int
	found     int
	reported  int

	venueDown map[domain.Platform]bool
}

func (t *tickState) markVenueDown(p domain.Platform) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.venueDown[p] = true
}

func (t *tickState) isVenueDown(p domain.Platform) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.venueDown[p]
}

// Monitor runs evaluation ticks on the configured interval until ctx is
// cancelled. The first tick runs immediately.
func (s *Scanner) Monitor(ctx context.Context) error {
	s.runTickLogged(ctx)

	ticker := time.NewTicker(s.cfg.ScanInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.runTickLogged(ctx)
		}
	}
}

func (s *Scanner) runTickLogged(ctx context.Context) {
	if _, err := s.RunTick(ctx); err != nil {
		if ctx.Err() != nil {
			return
		}
		if errors.Is(err, domain.ErrLockHeld) {
			s.logger.InfoContext(ctx, "tick skipped, scan lock held elsewhere")
			return
		}
		s.logger.ErrorContext(ctx, "tick failed", slog.String("error", err.Error()))
	}
}

// RunTick performs one evaluation tick over all matched pairs and returns the
// tick report. It takes the shared scan lock so a tick never overlaps a
// matching pass; when the lock is held it returns domain.ErrLockHeld.
func (s *Scanner) RunTick(ctx context.Context) (domain.TickReport, error) {
	unlock, err := s.locks.Acquire(ctx, domain.LockKeyScan, s.cfg.TickTimeout+time.Minute)
	if err != nil {
		return domain.TickReport{}, fmt.Errorf("scanner: acquire scan lock: %w", err)
	}
	defer unlock()

	tickCtx, cancel := context.WithTimeout(ctx, s.cfg.TickTimeout)
	defer cancel()

	startedAt := time.Now().UTC()
	report := domain.TickReport{
		ID:        uuid.New().String(),
		StartedAt: startedAt,
	}

	pairs, err := s.pairs.List(tickCtx)
	if err != nil {
		report.FinishedAt = time.Now().UTC()
		report.Status = domain.TickFailed
		s.persistReport(report)
		return report, fmt.Errorf("scanner: list pairs: %w", err)
	}

	state := &tickState{venueDown: make(map[domain.Platform]bool)}

	// All opportunities found in this tick share one logical timestamp.
	tickTime := startedAt

	g := new(errgroup.Group)
	g.SetLimit(s.cfg.MaxInFlight)
	for _, pair := range pairs {
		pair := pair
		g.Go(func() error {
			// Workers never return errors: one pair's failure must not
			// cancel its siblings. Outcomes land in state instead.
			s.evaluatePair(tickCtx, pair, tickTime, state)
			return nil
		})
	}
	_ = g.Wait()

	report.FinishedAt = time.Now().UTC()
	report.PairsAttempted = len(pairs)
	report.PairsSucceeded = state.succeeded
	report.PairsSkipped = state.skipped
	report.Opportunities = state.found
	report.Reported = state.reported
	report.Status = tickStatus(tickCtx, report)

	s.persistReport(report)

	s.logger.InfoContext(ctx, "tick complete",
		slog.String("tick_id", report.ID),
		slog.String("status", string(report.Status)),
		slog.Int("attempted", report.PairsAttempted),
		slog.Int("succeeded", report.PairsSucceeded),
		slog.Int("skipped", report.PairsSkipped),
		slog.Int("opportunities", report.Opportunities),
		slog.Int("reported", report.Reported),
		slog.Duration("elapsed", report.FinishedAt.Sub(report.StartedAt)),
	)

	if s.notifier != nil {
		s.notifyAsync(func(nctx context.Context) {
			if err := s.notifier.NotifyTickSummary(nctx, report); err != nil {
				s.logger.Warn("tick summary notification failed", slog.String("error", err.Error()))
			}
		})
	}

	// Alerts run on their own goroutines so they never stall pair workers,
	// but a tick is not done until its alerts have been delivered. Without
	// this the single-tick scan mode exits with notifications in flight.
	s.notifyWG.Wait()

	return report, nil
}

// notifyAsync runs fn on a bounded background context, tracked so RunTick can
// drain in-flight deliveries before returning.
func (s *Scanner) notifyAsync(fn func(ctx context.Context)) {
	s.notifyWG.Add(1)
	go func() {
		defer s.notifyWG.Done()
		nctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		defer cancel()
		fn(nctx)
	}()
}

// tickStatus derives the report status from the counters and the deadline.
func tickStatus(ctx context.Context, r domain.TickReport) domain.TickStatus {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return domain.TickIncomplete
	}
	switch {
	case r.PairsAttempted == 0:
		return domain.TickComplete
	case r.PairsSucceeded == 0:
		return domain.TickFailed
	case r.PairsSkipped > 0:
		return domain.TickPartial
	default:
		return domain.TickComplete
	}
}

// evaluatePair fetches both legs' quotes and evaluates them. Failures count
// the pair as skipped; they never abort the tick.
func (s *Scanner) evaluatePair(ctx context.Context, pair domain.MatchedPair, tickTime time.Time, state *tickState) {
	if ctx.Err() != nil {
		state.mu.Lock()
		state.skipped++
		state.mu.Unlock()
		return
	}

	polyQ, polyErr := s.quoteForLeg(ctx, domain.PlatformPolymarket, pair.PolymarketID, state)
	kalshiQ, kalshiErr := s.quoteForLeg(ctx, domain.PlatformKalshi, pair.KalshiTicker, state)

	if polyErr != nil || kalshiErr != nil {
		state.mu.Lock()
		state.skipped++
		state.mu.Unlock()

		if ctx.Err() == nil {
			s.logger.WarnContext(ctx, "pair skipped, quotes unavailable",
				slog.String("pair_id", pair.ID),
				slog.String("poly_error", errString(polyErr)),
				slog.String("kalshi_error", errString(kalshiErr)),
			)
		}
		return
	}

	opps := s.eval.Evaluate(ctx, pair, polyQ, kalshiQ, tickTime)

	state.mu.Lock()
	state.succeeded++
	state.mu.Unlock()

	for _, opp := range opps {
		// A tick that ran out of time must not report half-evaluated state.
		if ctx.Err() != nil {
			return
		}
		s.reportOpportunity(ctx, opp, state)
	}
}

// reportOpportunity persists one opportunity and, if the debouncer admits it,
// sends the alert. Persistence errors are logged only.
func (s *Scanner) reportOpportunity(ctx context.Context, opp domain.Opportunity, state *tickState) {
	state.mu.Lock()
	state.found++
	state.mu.Unlock()

	if err := s.opps.Insert(ctx, opp); err != nil {
		s.logger.ErrorContext(ctx, "store opportunity failed",
			slog.String("opportunity_id", opp.ID),
			slog.String("error", err.Error()),
		)
	}

	if !s.debounce.ShouldReport(opp) {
		s.logger.DebugContext(ctx, "opportunity debounced",
			slog.String("pair_id", opp.PairID),
			slog.String("direction", string(opp.Direction)),
			slog.Float64("net_margin", opp.NetMargin),
		)
		return
	}

	state.mu.Lock()
	state.reported++
	state.mu.Unlock()

	s.logger.InfoContext(ctx, "opportunity detected",
		slog.String("opportunity_id", opp.ID),
		slog.String("pair_id", opp.PairID),
		slog.String("direction", string(opp.Direction)),
		slog.Float64("gross_margin", opp.GrossMargin),
		slog.Float64("net_margin", opp.NetMargin),
	)

	if s.notifier != nil {
		s.notifyAsync(func(nctx context.Context) {
			if err := s.notifier.NotifyOpportunity(nctx, opp); err != nil {
				s.logger.Warn("opportunity notification failed",
					slog.String("opportunity_id", opp.ID),
					slog.String("error", err.Error()),
				)
			}
		})
	}
}

// quoteForLeg returns a usable quote for one leg: a fresh fetch when the
// venue is healthy, otherwise the cached quote if it is within the staleness
// budget.
func (s *Scanner) quoteForLeg(ctx context.Context, platform domain.Platform, externalID string, state *tickState) (domain.QuoteSnapshot, error) {
	if !state.isVenueDown(platform) {
		quote, err := s.fetchQuote(ctx, platform, externalID, state)
		if err == nil {
			if cacheErr := s.quotes.SetQuote(ctx, quote); cacheErr != nil {
				s.logger.WarnContext(ctx, "cache quote failed",
					slog.String("platform", string(platform)),
					slog.String("external_id", externalID),
					slog.String("error", cacheErr.Error()),
				)
			}
			return quote, nil
		}

		if fallback, ok := s.cachedQuote(ctx, platform, externalID); ok {
			s.logger.DebugContext(ctx, "using cached quote",
				slog.String("platform", string(platform)),
				slog.String("external_id", externalID),
			)
			return fallback, nil
		}
		return domain.QuoteSnapshot{}, err
	}

	if fallback, ok := s.cachedQuote(ctx, platform, externalID); ok {
		return fallback, nil
	}
	return domain.QuoteSnapshot{}, fmt.Errorf("scanner: venue %s down: %w", platform, domain.ErrUnauthorized)
}

// fetchQuote performs a rate-limited fetch with bounded retries on transient
// errors. An auth failure latches the venue down for the rest of this tick.
func (s *Scanner) fetchQuote(ctx context.Context, platform domain.Platform, externalID string, state *tickState) (domain.QuoteSnapshot, error) {
	source, ok := s.sources[platform]
	if !ok {
		return domain.QuoteSnapshot{}, fmt.Errorf("scanner: no source for platform %s", platform)
	}

	rl, hasLimit := s.cfg.RateLimits[platform]

	attempts := s.cfg.FetchRetries + 1
	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if hasLimit {
			if err := s.limiter.Wait(ctx, "venue:"+string(platform), rl.Limit, rl.Window); err != nil {
				return domain.QuoteSnapshot{}, err
			}
		}

		quote, err := source.FetchQuote(ctx, externalID)
		if err == nil {
			return quote, nil
		}
		lastErr = err

		if errors.Is(err, domain.ErrUnauthorized) {
			state.markVenueDown(platform)
			s.logger.ErrorContext(ctx, "venue authentication failed, disabling for this tick",
				slog.String("platform", string(platform)),
				slog.String("error", err.Error()),
			)
			return domain.QuoteSnapshot{}, err
		}
		if !domain.IsTransient(err) {
			return domain.QuoteSnapshot{}, err
		}
		if attempt == attempts-1 {
			break
		}

		timer := time.NewTimer(s.cfg.RetryBackoff * time.Duration(attempt+1))
		select {
		case <-ctx.Done():
			timer.Stop()
			return domain.QuoteSnapshot{}, ctx.Err()
		case <-timer.C:
		}
	}

	return domain.QuoteSnapshot{}, lastErr
}

// cachedQuote returns the cached quote when present and fresh enough.
func (s *Scanner) cachedQuote(ctx context.Context, platform domain.Platform, externalID string) (domain.QuoteSnapshot, bool) {
	if ctx.Err() != nil {
		return domain.QuoteSnapshot{}, false
	}
	quote, err := s.quotes.GetQuote(ctx, platform, externalID)
	if err != nil {
		return domain.QuoteSnapshot{}, false
	}
	if quote.Age(time.Now()) > s.cfg.QuoteMaxAge {
		return domain.QuoteSnapshot{}, false
	}
	return quote, true
}

// persistReport writes the tick report using a background context so the row
// survives a tick that hit its deadline.
func (s *Scanner) persistReport(report domain.TickReport) {
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	if err := s.ticks.Insert(ctx, report); err != nil {
		s.logger.Error("store tick report failed",
			slog.String("tick_id", report.ID),
			slog.String("error", err.Error()),
		)
	}
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
