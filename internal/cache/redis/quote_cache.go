package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/finnmackay/arbitrageSeeker/internal/domain"
)

// quoteTTL bounds how long a stale quote survives in the cache. Well above
// any sane quote-max-age so fallback reads see the entry and apply their own
// staleness cutoff.
const quoteTTL = 24 * time.Hour

// QuoteCache implements domain.QuoteCache using Redis hashes. Each quote is
// stored at key "quote:{platform}:{externalID}" with fields "yes", "no", and
// "ts" (Unix nanosecond fetch timestamp).
type QuoteCache struct {
	rdb *redis.Client
}

var _ domain.QuoteCache = (*QuoteCache)(nil)

// NewQuoteCache creates a QuoteCache backed by the given Client.
func NewQuoteCache(c *Client) *QuoteCache {
	return &QuoteCache{rdb: c.Underlying()}
}

func quoteKey(platform domain.Platform, externalID string) string {
	return "quote:" + string(platform) + ":" + externalID
}

// SetQuote stores the latest quote for a market leg.
func (qc *QuoteCache) SetQuote(ctx context.Context, quote domain.QuoteSnapshot) error {
	key := quoteKey(quote.Platform, quote.ExternalID)
	fields := map[string]interface{}{
		"yes": strconv.FormatFloat(quote.YesPrice, 'f', -1, 64),
		"no":  strconv.FormatFloat(quote.NoPrice, 'f', -1, 64),
		"ts":  strconv.FormatInt(quote.FetchedAt.UnixNano(), 10),
	}

	pipe := qc.rdb.Pipeline()
	pipe.HSet(ctx, key, fields)
	pipe.Expire(ctx, key, quoteTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis: set quote %s: %w", key, err)
	}
	return nil
}

// GetQuote retrieves the cached quote for a market leg. It returns
// domain.ErrNotFound when no quote is cached.
func (qc *QuoteCache) GetQuote(ctx context.Context, platform domain.Platform, externalID string) (domain.QuoteSnapshot, error) {
	key := quoteKey(platform, externalID)
	vals, err := qc.rdb.HGetAll(ctx, key).Result()
	if err != nil {
		return domain.QuoteSnapshot{}, fmt.Errorf("redis: get quote %s: %w", key, err)
	}
	if len(vals) == 0 {
		return domain.QuoteSnapshot{}, domain.ErrNotFound
	}

	yes, err := strconv.ParseFloat(vals["yes"], 64)
	if err != nil {
		return domain.QuoteSnapshot{}, fmt.Errorf("redis: parse yes price %s: %w", key, err)
	}
	no, err := strconv.ParseFloat(vals["no"], 64)
	if err != nil {
		return domain.QuoteSnapshot{}, fmt.Errorf("redis: parse no price %s: %w", key, err)
	}
	tsNano, err := strconv.ParseInt(vals["ts"], 10, 64)
	if err != nil {
		return domain.QuoteSnapshot{}, fmt.Errorf("redis: parse ts %s: %w", key, err)
	}

	return domain.QuoteSnapshot{
		Platform:   platform,
		ExternalID: externalID,
		YesPrice:   yes,
		NoPrice:    no,
		FetchedAt:  time.Unix(0, tsNano),
	}, nil
}
