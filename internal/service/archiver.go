package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/finnmackay/arbitrageSeeker/internal/domain"
)

// ArchiverConfig controls opportunity history export and pruning.
type ArchiverConfig struct {
	// Retention is how long opportunity rows stay in Postgres before they are
	// exported to blob storage and deleted.
	Retention time.Duration
	// Interval is how often the archive pass runs.
	Interval time.Duration
	// BatchLimit bounds how many rows are exported per object.
	BatchLimit int
}

// Archiver exports aged opportunity rows to S3-compatible storage as JSONL
// objects, then prunes them from Postgres. Rows are only deleted after the
// object containing them has been written.
type Archiver struct {
	opps   domain.OpportunityStore
	blob   domain.BlobWriter
	cfg    ArchiverConfig
	logger *slog.Logger
}

// NewArchiver creates an Archiver.
func NewArchiver(opps domain.OpportunityStore, blob domain.BlobWriter, cfg ArchiverConfig, logger *slog.Logger) *Archiver {
	if cfg.BatchLimit <= 0 {
		cfg.BatchLimit = 5000
	}
	return &Archiver{
		opps:   opps,
		blob:   blob,
		cfg:    cfg,
		logger: logger.With(slog.String("component", "archiver")),
	}
}

// archiveRecord is the JSONL export shape for one opportunity row.
type archiveRecord struct {
	ID              string    `json:"id"`
	PairID          string    `json:"pair_id"`
	PolymarketID    string    `json:"polymarket_id"`
	KalshiTicker    string    `json:"kalshi_ticker"`
	Direction       string    `json:"direction"`
	GrossMargin     float64   `json:"gross_margin"`
	NetMargin       float64   `json:"net_margin"`
	PolyYes         float64   `json:"poly_yes"`
	PolyNo          float64   `json:"poly_no"`
	PolyFetchedAt   time.Time `json:"poly_fetched_at"`
	KalshiYes       float64   `json:"kalshi_yes"`
	KalshiNo        float64   `json:"kalshi_no"`
	KalshiFetchedAt time.Time `json:"kalshi_fetched_at"`
	DetectedAt      time.Time `json:"detected_at"`
}

// RunOnce archives all opportunities older than the retention cutoff. It
// exports in bounded batches, deleting each batch only after its object has
// been uploaded.
func (a *Archiver) RunOnce(ctx context.Context) error {
	cutoff := time.Now().UTC().Add(-a.cfg.Retention)

	totalExported := 0
	for {
		batch, err := a.opps.ListBefore(ctx, cutoff, a.cfg.BatchLimit)
		if err != nil {
			return fmt.Errorf("service: list aged opportunities: %w", err)
		}
		if len(batch) == 0 {
			break
		}

		key := a.objectKey(batch[0].DetectedAt)
		if err := a.exportBatch(ctx, key, batch); err != nil {
			return err
		}

		// Prune by id, never by timestamp. A full batch can end inside a
		// group of rows sharing one detected_at, and a cutoff delete would
		// take the group's unexported remainder with it.
		ids := make([]string, len(batch))
		for i, opp := range batch {
			ids[i] = opp.ID
		}
		deleted, err := a.opps.DeleteIDs(ctx, ids)
		if err != nil {
			return fmt.Errorf("service: prune archived opportunities: %w", err)
		}

		totalExported += len(batch)
		a.logger.InfoContext(ctx, "batch archived",
			slog.String("object", key),
			slog.Int("exported", len(batch)),
			slog.Int64("deleted", deleted),
		)

		if len(batch) < a.cfg.BatchLimit {
			break
		}
	}

	if totalExported > 0 {
		a.logger.InfoContext(ctx, "archive pass complete",
			slog.Int("exported", totalExported),
		)
	}
	return nil
}

// RunLoop runs archive passes on the configured interval until ctx is
// cancelled. The first pass runs immediately.
func (a *Archiver) RunLoop(ctx context.Context) error {
	if err := a.RunOnce(ctx); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		a.logger.ErrorContext(ctx, "archive pass failed", slog.String("error", err.Error()))
	}

	ticker := time.NewTicker(a.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := a.RunOnce(ctx); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				a.logger.ErrorContext(ctx, "archive pass failed", slog.String("error", err.Error()))
			}
		}
	}
}

// exportBatch serialises one batch as JSONL and uploads it.
func (a *Archiver) exportBatch(ctx context.Context, key string, batch []domain.Opportunity) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, opp := range batch {
		rec := archiveRecord{
			ID:              opp.ID,
			PairID:          opp.PairID,
			PolymarketID:    opp.PolymarketID,
			KalshiTicker:    opp.KalshiTicker,
			Direction:       string(opp.Direction),
			GrossMargin:     opp.GrossMargin,
			NetMargin:       opp.NetMargin,
			PolyYes:         opp.PolyQuote.YesPrice,
			PolyNo:          opp.PolyQuote.NoPrice,
			PolyFetchedAt:   opp.PolyQuote.FetchedAt,
			KalshiYes:       opp.KalshiQuote.YesPrice,
			KalshiNo:        opp.KalshiQuote.NoPrice,
			KalshiFetchedAt: opp.KalshiQuote.FetchedAt,
			DetectedAt:      opp.DetectedAt,
		}
		if err := enc.Encode(rec); err != nil {
			return fmt.Errorf("service: encode opportunity %s: %w", opp.ID, err)
		}
	}

	if err := a.blob.Put(ctx, key, &buf, "application/x-ndjson"); err != nil {
		return fmt.Errorf("service: upload archive %s: %w", key, err)
	}
	return nil
}

// objectKey builds a date-partitioned object key from the batch's oldest row.
func (a *Archiver) objectKey(oldest time.Time) string {
	oldest = oldest.UTC()
	return fmt.Sprintf("opportunities/%s/opportunities-%s.jsonl",
		oldest.Format("2006/01/02"),
		oldest.Format("20060102T150405Z"),
	)
}
