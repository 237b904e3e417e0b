package domain

import (
	"context"
	"time"
)

// QuoteCache holds the most recent quote per (platform, external ID). The
// scanner uses it as a fallback when a live fetch fails, and the feed layer
// keeps it warm.
type QuoteCache interface {
	SetQuote(ctx context.Context, quote QuoteSnapshot) error
	// GetQuote returns ErrNotFound when no quote is cached.
	GetQuote(ctx context.Context, platform Platform, externalID string) (QuoteSnapshot, error)
}

// RateLimiter provides distributed per-key rate limiting.
type RateLimiter interface {
	// Allow reports whether one more request is permitted under the sliding
	// window; an allowed request is counted.
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
	// Wait blocks until a request for key is allowed or ctx is done.
	Wait(ctx context.Context, key string, limit int, window time.Duration) error
}

// LockKeyScan is the lock key shared by the matching pass and the evaluation
// tick so the two never interleave over the pair store.
const LockKeyScan = "scan_cycle"

// LockManager provides distributed locking. The matching pass and the
// evaluation tick take the same lock so they never interleave over the pair
// store.
type LockManager interface {
	// Acquire returns ErrLockHeld when another holder owns the lock.
	Acquire(ctx context.Context, key string, ttl time.Duration) (unlock func(), err error)
}
