package arbitrage

import (
	"sync"
	"time"

	"github.com/finnmackay/arbitrageSeeker/internal/domain"
)

// debounceKey identifies a reporting stream: one per (pair, direction).
type debounceKey struct {
	pairID    string
	direction domain.Direction
}

type lastReport struct {
	netMargin  float64
	reportedAt time.Time
}

// Debouncer suppresses re-reporting of an unchanged opportunity. An
// opportunity for the same (pair, direction) is reported again only when its
// net margin moved by more than epsilon since the last report, or when the
// cooldown has elapsed. The cache persists across ticks within a run and is
// reset between independent runs; it is safe under concurrent per-pair
// evaluation.
type Debouncer struct {
	epsilon  float64
	cooldown time.Duration

	mu   sync.Mutex
	last map[debounceKey]lastReport
}

// NewDebouncer creates a Debouncer with the given absolute epsilon and
// cooldown period.
func NewDebouncer(epsilon float64, cooldown time.Duration) *Debouncer {
	return &Debouncer{
		epsilon:  epsilon,
		cooldown: cooldown,
		last:     make(map[debounceKey]lastReport),
	}
}

// ShouldReport decides whether the opportunity is worth forwarding to
// notification. When it returns true the opportunity is recorded as the new
// last report for its key.
func (d *Debouncer) ShouldReport(opp domain.Opportunity) bool {
	key := debounceKey{pairID: opp.PairID, direction: opp.Direction}

	d.mu.Lock()
	defer d.mu.Unlock()

	prior, seen := d.last[key]
	if seen {
		delta := opp.NetMargin - prior.netMargin
		if delta < 0 {
			delta = -delta
		}
		if delta <= d.epsilon && opp.DetectedAt.Sub(prior.reportedAt) < d.cooldown {
			return false
		}
	}

	d.last[key] = lastReport{netMargin: opp.NetMargin, reportedAt: opp.DetectedAt}
	return true
}

// Reset clears the cache. Called between independent runs so a fresh run
// reports everything it finds.
func (d *Debouncer) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.last = make(map[debounceKey]lastReport)
}
