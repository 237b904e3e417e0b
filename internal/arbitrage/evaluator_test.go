package arbitrage

import (
	"context"
	"io"
	"log/slog"
	"math"
	"testing"
	"time"

	"github.com/finnmackay/arbitrageSeeker/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testPair() domain.MatchedPair {
	return domain.MatchedPair{
		ID:           "pair-1",
		PolymarketID: "0xcond",
		KalshiTicker: "KXTEST-26",
	}
}

func quote(platform domain.Platform, yes, no float64, fetchedAt time.Time) domain.QuoteSnapshot {
	return domain.QuoteSnapshot{
		Platform:   platform,
		ExternalID: "x",
		YesPrice:   yes,
		NoPrice:    no,
		FetchedAt:  fetchedAt,
	}
}

func defaultFees() map[domain.Platform]FeeSchedule {
	return map[domain.Platform]FeeSchedule{
		domain.PlatformPolymarket: {FeePercent: 0.01, FixedGasCost: 0.001},
		domain.PlatformKalshi:     {FeePercent: 0.007},
	}
}

func approxEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestEvaluateWorkedExample(t *testing.T) {
	// YES on Polymarket at 0.48 plus NO on Kalshi at 0.50:
	//   gross = 1 - 0.98            = 0.02
	//   fees  = 0.01*0.48 + 0.007*0.50 + 0.001 = 0.0093
	//   net   = 0.02 - 0.0093       = 0.0107
	now := time.Now().UTC()
	e := NewEvaluator(EvaluatorConfig{
		MinProfitMargin: 0.01,
		Fees:            defaultFees(),
	}, testLogger())

	polyQ := quote(domain.PlatformPolymarket, 0.48, 0.97, now)
	kalshiQ := quote(domain.PlatformKalshi, 0.95, 0.50, now)

	opps := e.Evaluate(context.Background(), testPair(), polyQ, kalshiQ, now)
	if len(opps) != 1 {
		t.Fatalf("Evaluate() returned %d opportunities, want 1", len(opps))
	}
	got := opps[0]
	if got.Direction != domain.DirectionYesNo {
		t.Errorf("Direction = %s, want %s", got.Direction, domain.DirectionYesNo)
	}
	if !approxEqual(got.GrossMargin, 0.02) {
		t.Errorf("GrossMargin = %v, want 0.02", got.GrossMargin)
	}
	if !approxEqual(got.NetMargin, 0.0107) {
		t.Errorf("NetMargin = %v, want 0.0107", got.NetMargin)
	}
	if got.PairID != "pair-1" {
		t.Errorf("PairID = %s, want pair-1", got.PairID)
	}
	if !got.DetectedAt.Equal(now) {
		t.Errorf("DetectedAt = %v, want tick time %v", got.DetectedAt, now)
	}
	if got.ID == "" {
		t.Error("opportunity ID is empty")
	}
}

func TestEvaluateBothDirections(t *testing.T) {
	// Both leg combinations cost well under $1 with zero fees, so both
	// directions qualify independently.
	now := time.Now().UTC()
	e := NewEvaluator(EvaluatorConfig{MinProfitMargin: 0.01}, testLogger())

	polyQ := quote(domain.PlatformPolymarket, 0.40, 0.40, now)
	kalshiQ := quote(domain.PlatformKalshi, 0.40, 0.40, now)

	opps := e.Evaluate(context.Background(), testPair(), polyQ, kalshiQ, now)
	if len(opps) != 2 {
		t.Fatalf("Evaluate() returned %d opportunities, want 2", len(opps))
	}
	if opps[0].Direction != domain.DirectionYesNo || opps[1].Direction != domain.DirectionNoYes {
		t.Errorf("directions = %s, %s; want %s, %s",
			opps[0].Direction, opps[1].Direction, domain.DirectionYesNo, domain.DirectionNoYes)
	}
}

func TestEvaluateMinMarginInclusive(t *testing.T) {
	// With zero fees and legs 0.25 + 0.25 the net margin is exactly 0.5, so
	// a 0.5 minimum still reports it.
	now := time.Now().UTC()
	pair := testPair()
	polyQ := quote(domain.PlatformPolymarket, 0.25, 1, now)
	kalshiQ := quote(domain.PlatformKalshi, 1, 0.25, now)

	e := NewEvaluator(EvaluatorConfig{MinProfitMargin: 0.5}, testLogger())
	if opps := e.Evaluate(context.Background(), pair, polyQ, kalshiQ, now); len(opps) != 1 {
		t.Errorf("net == minimum: got %d opportunities, want 1", len(opps))
	}

	e = NewEvaluator(EvaluatorConfig{MinProfitMargin: 0.500001}, testLogger())
	if opps := e.Evaluate(context.Background(), pair, polyQ, kalshiQ, now); len(opps) != 0 {
		t.Errorf("net just below minimum: got %d opportunities, want 0", len(opps))
	}
}

func TestEvaluateNoOpportunity(t *testing.T) {
	// Efficient prices: every combination costs $1 or more.
	now := time.Now().UTC()
	e := NewEvaluator(EvaluatorConfig{MinProfitMargin: 0.01, Fees: defaultFees()}, testLogger())

	polyQ := quote(domain.PlatformPolymarket, 0.52, 0.49, now)
	kalshiQ := quote(domain.PlatformKalshi, 0.51, 0.50, now)

	if opps := e.Evaluate(context.Background(), testPair(), polyQ, kalshiQ, now); len(opps) != 0 {
		t.Errorf("Evaluate() returned %d opportunities, want 0", len(opps))
	}
}

func TestEvaluateSkipsStaleQuotes(t *testing.T) {
	now := time.Now().UTC()
	e := NewEvaluator(EvaluatorConfig{
		MinProfitMargin: 0.01,
		QuoteMaxAge:     30 * time.Second,
	}, testLogger())

	fresh := quote(domain.PlatformKalshi, 0.40, 0.40, now)
	stale := quote(domain.PlatformPolymarket, 0.40, 0.40, now.Add(-31*time.Second))

	if opps := e.Evaluate(context.Background(), testPair(), stale, fresh, now); opps != nil {
		t.Errorf("Evaluate() with stale quote = %v, want nil", opps)
	}

	// Age is measured against the tick time, not the wall clock.
	onEdge := quote(domain.PlatformPolymarket, 0.40, 0.40, now.Add(-30*time.Second))
	if opps := e.Evaluate(context.Background(), testPair(), onEdge, fresh, now); len(opps) == 0 {
		t.Error("Evaluate() skipped a quote aged exactly QuoteMaxAge")
	}
}

func TestEvaluateStalenessDisabledByZeroMaxAge(t *testing.T) {
	now := time.Now().UTC()
	e := NewEvaluator(EvaluatorConfig{MinProfitMargin: 0.01}, testLogger())

	old := quote(domain.PlatformPolymarket, 0.40, 0.40, now.Add(-24*time.Hour))
	fresh := quote(domain.PlatformKalshi, 0.40, 0.40, now)

	if opps := e.Evaluate(context.Background(), testPair(), old, fresh, now); len(opps) == 0 {
		t.Error("Evaluate() applied a staleness check with QuoteMaxAge zero")
	}
}

func TestEvaluateSkipsInvalidPrices(t *testing.T) {
	now := time.Now().UTC()
	e := NewEvaluator(EvaluatorConfig{MinProfitMargin: 0.01}, testLogger())

	tests := []struct {
		name    string
		polyQ   domain.QuoteSnapshot
		kalshiQ domain.QuoteSnapshot
	}{
		{"yes above one", quote(domain.PlatformPolymarket, 1.5, 0.4, now), quote(domain.PlatformKalshi, 0.4, 0.4, now)},
		{"negative no", quote(domain.PlatformPolymarket, 0.4, 0.4, now), quote(domain.PlatformKalshi, 0.4, -0.1, now)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if opps := e.Evaluate(context.Background(), testPair(), tt.polyQ, tt.kalshiQ, now); opps != nil {
				t.Errorf("Evaluate() = %v, want nil", opps)
			}
		})
	}
}
