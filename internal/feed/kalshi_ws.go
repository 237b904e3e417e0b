// Package feed streams real-time venue prices into the quote cache so scan
// ticks can fall back to fresh quotes without an extra REST round trip.
package feed

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/finnmackay/arbitrageSeeker/internal/domain"
	"github.com/finnmackay/arbitrageSeeker/internal/platform/kalshi"
)

// KalshiQuoteFeed connects to the Kalshi WebSocket, subscribes to the ticker
// channel for the given market tickers, and writes each update into the quote
// cache. It reconnects on disconnect.
type KalshiQuoteFeed struct {
	wsURL     string
	tickers   []string
	quotes    domain.QuoteCache
	logger    *slog.Logger
	closeOnce sync.Once
	done      chan struct{}
}

// NewKalshiQuoteFeed creates a feed that will subscribe to the given tickers.
func NewKalshiQuoteFeed(wsURL string, tickers []string, quotes domain.QuoteCache, logger *slog.Logger) *KalshiQuoteFeed {
	return &KalshiQuoteFeed{
		wsURL:   wsURL,
		tickers: tickers,
		quotes:  quotes,
		logger:  logger.With(slog.String("component", "kalshi_ws_feed")),
		done:    make(chan struct{}),
	}
}

// Run connects, subscribes to the ticker channel for the configured markets,
// and runs until ctx is cancelled. Reconnects with backoff on disconnect.
func (f *KalshiQuoteFeed) Run(ctx context.Context) error {
	if len(f.tickers) == 0 {
		f.logger.Info("no tickers to subscribe, exiting")
		return nil
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-f.done:
			return nil
		default:
		}

		err := f.runConnection(ctx)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		f.logger.Warn("kalshi ws disconnected, reconnecting", slog.String("error", err.Error()))
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(2 * time.Second):
		}
	}
}

func (f *KalshiQuoteFeed) runConnection(ctx context.Context) error {
	client := kalshi.NewWSClient(f.wsURL)
	defer client.Close()

	client.OnTicker(func(tick kalshi.KalshiWSTicker) {
		quote := tick.ToQuoteSnapshot(time.Now().UTC())
		if !quote.PricesValid() {
			return
		}

		cacheCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := f.quotes.SetQuote(cacheCtx, quote); err != nil {
			f.logger.Warn("cache quote failed",
				slog.String("ticker", tick.Ticker),
				slog.String("error", err.Error()),
			)
		}
	})

	connCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	err := client.Connect(connCtx)
	cancel()
	if err != nil {
		return err
	}

	if err := client.Subscribe(ctx, f.tickers); err != nil {
		return err
	}
	f.logger.Info("kalshi ws subscribed", slog.Int("tickers", len(f.tickers)))

	<-ctx.Done()
	return ctx.Err()
}

// Close stops the feed.
func (f *KalshiQuoteFeed) Close() {
	f.closeOnce.Do(func() { close(f.done) })
}
