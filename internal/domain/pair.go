package domain

import "time"

// MatchedPair links a Polymarket market and a Kalshi market that were judged
// to represent the same real-world event. The stored pair set is a strict
// one-to-one assignment: no Polymarket ID and no Kalshi ticker appears in two
// distinct pairs. Pairs are written only by a matching pass and are re-used by
// every evaluation tick until the next explicit re-match.
type MatchedPair struct {
	ID                 string
	PolymarketID       string
	KalshiTicker       string
	PolymarketQuestion string
	KalshiTitle        string
	Similarity         float64 // cosine similarity in [0,1]
	MatchedAt          time.Time
}
