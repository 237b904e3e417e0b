package domain

import "context"

// MarketSource retrieves listings and quotes from one venue's API. FetchMarkets
// paginates internally and returns the full current listing.
type MarketSource interface {
	Platform() Platform
	FetchMarkets(ctx context.Context) ([]MarketRecord, error)
	FetchQuote(ctx context.Context, externalID string) (QuoteSnapshot, error)
}

// Embedder turns market text into fixed-dimension vectors. Implementations may
// batch internally; the result order matches the input order.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float64, error)
}
