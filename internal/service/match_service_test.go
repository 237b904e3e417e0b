package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/finnmackay/arbitrageSeeker/internal/domain"
	"github.com/finnmackay/arbitrageSeeker/internal/matcher"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeListingSource struct {
	platform domain.Platform
	markets  []domain.MarketRecord
	err      error
}

func (f *fakeListingSource) Platform() domain.Platform { return f.platform }

func (f *fakeListingSource) FetchMarkets(context.Context) ([]domain.MarketRecord, error) {
	return f.markets, f.err
}

func (f *fakeListingSource) FetchQuote(context.Context, string) (domain.QuoteSnapshot, error) {
	return domain.QuoteSnapshot{}, domain.ErrNotFound
}

type fakePairStore struct {
	upserted  []domain.MatchedPair
	replaced  []domain.MatchedPair
	replaces  int
	upsertErr error
}

func (f *fakePairStore) UpsertBatch(_ context.Context, pairs []domain.MatchedPair) (int, error) {
	if f.upsertErr != nil {
		return 0, f.upsertErr
	}
	f.upserted = append(f.upserted, pairs...)
	return len(pairs), nil
}

func (f *fakePairStore) Replace(_ context.Context, pairs []domain.MatchedPair) error {
	f.replaces++
	f.replaced = pairs
	return nil
}

func (f *fakePairStore) List(context.Context) ([]domain.MatchedPair, error) {
	return f.replaced, nil
}

func (f *fakePairStore) Count(context.Context) (int64, error) {
	return int64(len(f.replaced)), nil
}

type fakeLocks struct {
	err      error
	acquired int
	released int
}

func (f *fakeLocks) Acquire(context.Context, string, time.Duration) (func(), error) {
	if f.err != nil {
		return nil, f.err
	}
	f.acquired++
	return func() { f.released++ }, nil
}

// identityEmbedder returns the same unit vector for every text, so any two
// markets match with similarity 1.
type identityEmbedder struct{}

func (identityEmbedder) Embed(_ context.Context, texts []string) ([][]float64, error) {
	out := make([][]float64, len(texts))
	for i := range texts {
		out[i] = []float64{1, 0}
	}
	return out, nil
}

func newTestService(poly, kalshi domain.MarketSource, pairs domain.PairStore, locks domain.LockManager) *MatchService {
	m := matcher.New(identityEmbedder{}, matcher.Config{Threshold: 0.9, MaxQuestionLen: 500}, testLogger())
	return NewMatchService(poly, kalshi, m, pairs, locks, testLogger())
}

func TestRunStoresMatchedPairs(t *testing.T) {
	poly := &fakeListingSource{platform: domain.PlatformPolymarket, markets: []domain.MarketRecord{
		{Platform: domain.PlatformPolymarket, ExternalID: "0x1", Question: "will it rain"},
	}}
	kalshi := &fakeListingSource{platform: domain.PlatformKalshi, markets: []domain.MarketRecord{
		{Platform: domain.PlatformKalshi, ExternalID: "K1", Question: "will it rain"},
	}}
	pairs := &fakePairStore{}
	locks := &fakeLocks{}

	svc := newTestService(poly, kalshi, pairs, locks)
	if err := svc.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(pairs.upserted) != 1 {
		t.Fatalf("upserted %d pairs, want 1", len(pairs.upserted))
	}
	if pairs.upserted[0].PolymarketID != "0x1" || pairs.upserted[0].KalshiTicker != "K1" {
		t.Errorf("stored pair %s-%s, want 0x1-K1", pairs.upserted[0].PolymarketID, pairs.upserted[0].KalshiTicker)
	}
	if pairs.replaces != 0 {
		t.Errorf("Replace called %d times during incremental run, want 0", pairs.replaces)
	}
	if locks.acquired != 1 || locks.released != 1 {
		t.Errorf("lock acquired/released = %d/%d, want 1/1", locks.acquired, locks.released)
	}
}

func TestRematchReplacesPairSet(t *testing.T) {
	poly := &fakeListingSource{platform: domain.PlatformPolymarket, markets: []domain.MarketRecord{
		{Platform: domain.PlatformPolymarket, ExternalID: "0x1", Question: "q"},
	}}
	kalshi := &fakeListingSource{platform: domain.PlatformKalshi, markets: []domain.MarketRecord{
		{Platform: domain.PlatformKalshi, ExternalID: "K1", Question: "q"},
	}}
	pairs := &fakePairStore{}

	svc := newTestService(poly, kalshi, pairs, &fakeLocks{})
	if err := svc.Rematch(context.Background()); err != nil {
		t.Fatalf("Rematch() error = %v", err)
	}
	if pairs.replaces != 1 {
		t.Fatalf("Replace called %d times, want 1", pairs.replaces)
	}
	if len(pairs.upserted) != 0 {
		t.Errorf("UpsertBatch stored %d pairs during rematch, want 0", len(pairs.upserted))
	}
}

func TestRunAbortsOnListingFailure(t *testing.T) {
	wantErr := errors.New("gamma down")
	poly := &fakeListingSource{platform: domain.PlatformPolymarket, err: wantErr}
	kalshi := &fakeListingSource{platform: domain.PlatformKalshi, markets: []domain.MarketRecord{
		{Platform: domain.PlatformKalshi, ExternalID: "K1", Question: "q"},
	}}
	pairs := &fakePairStore{}

	svc := newTestService(poly, kalshi, pairs, &fakeLocks{})
	err := svc.Run(context.Background())
	if !errors.Is(err, wantErr) {
		t.Fatalf("Run() error = %v, want wrapped %v", err, wantErr)
	}
	if len(pairs.upserted) != 0 {
		t.Errorf("pairs stored despite listing failure: %d", len(pairs.upserted))
	}
}

func TestRunReturnsLockError(t *testing.T) {
	svc := newTestService(
		&fakeListingSource{platform: domain.PlatformPolymarket},
		&fakeListingSource{platform: domain.PlatformKalshi},
		&fakePairStore{},
		&fakeLocks{err: domain.ErrLockHeld},
	)
	if err := svc.Run(context.Background()); !errors.Is(err, domain.ErrLockHeld) {
		t.Errorf("Run() error = %v, want ErrLockHeld", err)
	}
}
