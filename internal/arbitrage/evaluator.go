// Package arbitrage computes fee-adjusted arbitrage margins for matched pairs
// and decides which detected opportunities are worth reporting.
package arbitrage

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/finnmackay/arbitrageSeeker/internal/domain"
)

// FeeSchedule describes one venue's trading costs. FeePercent is a
// proportional fee on the leg's cost; FixedGasCost is a flat per-trade cost
// for venues that charge one (zero otherwise).
type FeeSchedule struct {
	FeePercent   float64
	FixedGasCost float64
}

// EvaluatorConfig holds the tunable parameters for opportunity evaluation.
type EvaluatorConfig struct {
	MinProfitMargin float64
	QuoteMaxAge     time.Duration
	Fees            map[domain.Platform]FeeSchedule
}

// Evaluator computes gross and net margins for both trade directions of a
// matched pair.
type Evaluator struct {
	cfg    EvaluatorConfig
	logger *slog.Logger
}

// NewEvaluator creates an Evaluator.
func NewEvaluator(cfg EvaluatorConfig, logger *slog.Logger) *Evaluator {
	return &Evaluator{
		cfg:    cfg,
		logger: logger.With(slog.String("component", "evaluator")),
	}
}

// Evaluate checks both trade directions for the pair using the given quotes
// and returns every direction whose net margin clears the configured minimum:
// either, both, or neither may qualify. Stale or invalid quotes cause the
// whole pair to be skipped for this tick (nil result, no error). The tickTime
// is stamped onto every returned opportunity so all opportunities from one
// tick share a single logical timestamp.
func (e *Evaluator) Evaluate(ctx context.Context, pair domain.MatchedPair, polyQ, kalshiQ domain.QuoteSnapshot, tickTime time.Time) []domain.Opportunity {
	if e.cfg.QuoteMaxAge > 0 {
		if polyQ.Age(tickTime) > e.cfg.QuoteMaxAge || kalshiQ.Age(tickTime) > e.cfg.QuoteMaxAge {
			e.logger.DebugContext(ctx, "skipping pair with stale quotes",
				slog.String("pair_id", pair.ID),
				slog.Duration("poly_age", polyQ.Age(tickTime)),
				slog.Duration("kalshi_age", kalshiQ.Age(tickTime)),
			)
			return nil
		}
	}
	if !polyQ.PricesValid() || !kalshiQ.PricesValid() {
		e.logger.WarnContext(ctx, "skipping pair with out-of-range prices",
			slog.String("pair_id", pair.ID),
			slog.Float64("poly_yes", polyQ.YesPrice),
			slog.Float64("poly_no", polyQ.NoPrice),
			slog.Float64("kalshi_yes", kalshiQ.YesPrice),
			slog.Float64("kalshi_no", kalshiQ.NoPrice),
		)
		return nil
	}

	var opps []domain.Opportunity

	// YES on Polymarket + NO on Kalshi.
	if opp, ok := e.direction(pair, polyQ, kalshiQ, domain.DirectionYesNo, polyQ.YesPrice, kalshiQ.NoPrice, tickTime); ok {
		opps = append(opps, opp)
	}
	// NO on Polymarket + YES on Kalshi.
	if opp, ok := e.direction(pair, polyQ, kalshiQ, domain.DirectionNoYes, polyQ.NoPrice, kalshiQ.YesPrice, tickTime); ok {
		opps = append(opps, opp)
	}

	for _, opp := range opps {
		e.logger.InfoContext(ctx, "arbitrage opportunity detected",
			slog.String("pair_id", pair.ID),
			slog.String("direction", string(opp.Direction)),
			slog.Float64("gross_margin", opp.GrossMargin),
			slog.Float64("net_margin", opp.NetMargin),
		)
	}
	return opps
}

// direction prices one leg combination. The winning side pays exactly 1, so
// the gross margin is 1 minus the combined leg cost; proportional fees apply
// to each leg's cost and each venue's flat gas cost is charged once per trade.
func (e *Evaluator) direction(
	pair domain.MatchedPair,
	polyQ, kalshiQ domain.QuoteSnapshot,
	dir domain.Direction,
	polyLeg, kalshiLeg float64,
	tickTime time.Time,
) (domain.Opportunity, bool) {
	polyFees := e.cfg.Fees[domain.PlatformPolymarket]
	kalshiFees := e.cfg.Fees[domain.PlatformKalshi]

	gross := 1 - (polyLeg + kalshiLeg)
	fees := polyFees.FeePercent*polyLeg + kalshiFees.FeePercent*kalshiLeg +
		polyFees.FixedGasCost + kalshiFees.FixedGasCost
	net := gross - fees

	if net < e.cfg.MinProfitMargin {
		return domain.Opportunity{}, false
	}

	return domain.Opportunity{
		ID:           uuid.New().String(),
		PairID:       pair.ID,
		PolymarketID: pair.PolymarketID,
		KalshiTicker: pair.KalshiTicker,
		Direction:    dir,
		GrossMargin:  gross,
		NetMargin:    net,
		PolyQuote:    polyQ,
		KalshiQuote:  kalshiQ,
		DetectedAt:   tickTime,
	}, true
}
