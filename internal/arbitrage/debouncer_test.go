package arbitrage

import (
	"testing"
	"time"

	"github.com/finnmackay/arbitrageSeeker/internal/domain"
)

func opp(pairID string, dir domain.Direction, net float64, detectedAt time.Time) domain.Opportunity {
	return domain.Opportunity{
		PairID:     pairID,
		Direction:  dir,
		NetMargin:  net,
		DetectedAt: detectedAt,
	}
}

func TestDebouncerSuppressesUnchangedMargin(t *testing.T) {
	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	d := NewDebouncer(0.005, 30*time.Minute)

	if !d.ShouldReport(opp("p1", domain.DirectionYesNo, 0.02, t0)) {
		t.Fatal("first report suppressed")
	}
	// Same margin inside the cooldown window.
	if d.ShouldReport(opp("p1", domain.DirectionYesNo, 0.02, t0.Add(time.Minute))) {
		t.Error("unchanged margin reported within cooldown")
	}
	// Moved, but within epsilon.
	if d.ShouldReport(opp("p1", domain.DirectionYesNo, 0.024, t0.Add(2*time.Minute))) {
		t.Error("margin within epsilon reported within cooldown")
	}
}

func TestDebouncerReportsMarginMove(t *testing.T) {
	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	d := NewDebouncer(0.005, 30*time.Minute)

	d.ShouldReport(opp("p1", domain.DirectionYesNo, 0.02, t0))
	if !d.ShouldReport(opp("p1", domain.DirectionYesNo, 0.03, t0.Add(time.Minute))) {
		t.Error("margin move beyond epsilon suppressed")
	}
	// The move became the new baseline, so returning to it is suppressed.
	if d.ShouldReport(opp("p1", domain.DirectionYesNo, 0.03, t0.Add(2*time.Minute))) {
		t.Error("repeat of new baseline reported")
	}
}

func TestDebouncerReportsAfterCooldown(t *testing.T) {
	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	d := NewDebouncer(0.005, 30*time.Minute)

	d.ShouldReport(opp("p1", domain.DirectionYesNo, 0.02, t0))
	if d.ShouldReport(opp("p1", domain.DirectionYesNo, 0.02, t0.Add(29*time.Minute))) {
		t.Error("reported before cooldown elapsed")
	}
	// Suppression does not move the baseline timestamp, so the cooldown is
	// measured from the last accepted report.
	if !d.ShouldReport(opp("p1", domain.DirectionYesNo, 0.02, t0.Add(30*time.Minute))) {
		t.Error("suppressed at exactly the cooldown boundary")
	}
}

func TestDebouncerKeysPerPairAndDirection(t *testing.T) {
	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	d := NewDebouncer(0.005, 30*time.Minute)

	d.ShouldReport(opp("p1", domain.DirectionYesNo, 0.02, t0))
	if !d.ShouldReport(opp("p1", domain.DirectionNoYes, 0.02, t0)) {
		t.Error("other direction of the same pair suppressed")
	}
	if !d.ShouldReport(opp("p2", domain.DirectionYesNo, 0.02, t0)) {
		t.Error("same direction of another pair suppressed")
	}
}

func TestDebouncerReset(t *testing.T) {
	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	d := NewDebouncer(0.005, 30*time.Minute)

	d.ShouldReport(opp("p1", domain.DirectionYesNo, 0.02, t0))
	d.Reset()
	if !d.ShouldReport(opp("p1", domain.DirectionYesNo, 0.02, t0.Add(time.Second))) {
		t.Error("report suppressed after Reset")
	}
}
