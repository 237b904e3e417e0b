package domain

import "time"

// Platform identifies a prediction-market venue.
type Platform string

const (
	PlatformPolymarket Platform = "polymarket"
	PlatformKalshi     Platform = "kalshi"
)

// MarketRecord is an immutable snapshot of one binary market as listed on a
// venue at fetch time. Prices are per-contract cost in [0,1].
type MarketRecord struct {
	Platform   Platform
	ExternalID string // condition ID on Polymarket, ticker on Kalshi
	Question   string
	YesPrice   float64
	NoPrice    float64
	ObservedAt time.Time
}

// QuoteSnapshot is a point-in-time price quote for one market leg.
type QuoteSnapshot struct {
	Platform   Platform
	ExternalID string
	YesPrice   float64
	NoPrice    float64
	FetchedAt  time.Time
}

// PricesValid reports whether both prices are inside the valid [0,1] range.
func (q QuoteSnapshot) PricesValid() bool {
	return q.YesPrice >= 0 && q.YesPrice <= 1 && q.NoPrice >= 0 && q.NoPrice <= 1
}

// Age returns how old the quote is relative to now.
func (q QuoteSnapshot) Age(now time.Time) time.Duration {
	return now.Sub(q.FetchedAt)
}
