package domain

import "time"

// Direction names the pair of offsetting legs for an arbitrage trade.
type Direction string

const (
	// DirectionYesNo buys YES on Polymarket and NO on Kalshi.
	DirectionYesNo Direction = "yes_no"
	// DirectionNoYes buys NO on Polymarket and YES on Kalshi.
	DirectionNoYes Direction = "no_yes"
)

// Opportunity is a detected cross-platform arbitrage: a pair of offsetting
// trades whose combined cost is below the guaranteed $1 payout. It is created
// by the evaluator and never mutated afterwards.
type Opportunity struct {
	ID           string
	PairID       string
	PolymarketID string
	KalshiTicker string
	Direction    Direction
	GrossMargin  float64 // 1 - combined leg cost, before fees
	NetMargin    float64 // gross minus proportional fees and gas
	PolyQuote    QuoteSnapshot
	KalshiQuote  QuoteSnapshot
	// DetectedAt is the logical tick timestamp; all opportunities found in
	// one tick share it.
	DetectedAt time.Time
}

// TickStatus summarises how an evaluation tick finished.
type TickStatus string

const (
	TickComplete   TickStatus = "complete"
	TickPartial    TickStatus = "partial"
	TickFailed     TickStatus = "failed"
	TickIncomplete TickStatus = "incomplete" // deadline exceeded
)

// TickReport records the outcome of one evaluation tick over all matched
// pairs.
type TickReport struct {
	ID             string
	StartedAt      time.Time
	FinishedAt     time.Time
	Status         TickStatus
	PairsAttempted int
	PairsSucceeded int
	PairsSkipped   int
	Opportunities  int
	Reported       int // opportunities that passed the debouncer
}
