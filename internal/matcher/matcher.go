// Package matcher pairs markets across venues by semantic similarity of their
// question text. The result is a strict one-to-one assignment: every accepted
// pair consumes both of its markets, and the greedy resolution order makes the
// outcome deterministic for identical input.
package matcher

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/finnmackay/arbitrageSeeker/internal/domain"
)

// Config holds the tunable parameters for a matching pass.
type Config struct {
	// Threshold is the inclusive similarity cutoff: a candidate with
	// similarity exactly equal to Threshold is accepted.
	Threshold float64
	// ChunkSize bounds how many Polymarket embeddings are scored against the
	// Kalshi set at once. Chunking caps peak memory and does not change the
	// result.
	ChunkSize int
	// MaxQuestionLen is the longest question text that will be embedded.
	MaxQuestionLen int
}

// Matcher computes one-to-one pairings between Polymarket and Kalshi markets.
type Matcher struct {
	embedder domain.Embedder
	cfg      Config
	logger   *slog.Logger
}

// New creates a Matcher.
func New(embedder domain.Embedder, cfg Config, logger *slog.Logger) *Matcher {
	if cfg.ChunkSize < 1 {
		cfg.ChunkSize = 256
	}
	if cfg.MaxQuestionLen < 1 {
		cfg.MaxQuestionLen = 2000
	}
	return &Matcher{
		embedder: embedder,
		cfg:      cfg,
		logger:   logger.With(slog.String("component", "matcher")),
	}
}

// candidate is one surviving (a, b, similarity) triple awaiting assignment.
type candidate struct {
	aIdx int
	bIdx int
	sim  float64
}

// Match pairs the given Polymarket and Kalshi listings. Markets with
// unembeddable text are skipped with a warning; an empty listing on either
// side yields an empty result, not an error.
func (m *Matcher) Match(ctx context.Context, polyMarkets, kalshiMarkets []domain.MarketRecord) ([]domain.MatchedPair, error) {
	if len(polyMarkets) == 0 || len(kalshiMarkets) == 0 {
		m.logger.WarnContext(ctx, "empty market listing, nothing to match",
			slog.Int("polymarket", len(polyMarkets)),
			slog.Int("kalshi", len(kalshiMarkets)),
		)
		return nil, nil
	}

	polyIdx, polyTexts := m.embeddable(ctx, polyMarkets)
	kalshiIdx, kalshiTexts := m.embeddable(ctx, kalshiMarkets)
	if len(polyTexts) == 0 || len(kalshiTexts) == 0 {
		m.logger.WarnContext(ctx, "no embeddable question text after filtering")
		return nil, nil
	}

	polyVecs, err := m.embedNormalized(ctx, polyTexts)
	if err != nil {
		return nil, fmt.Errorf("matcher: embed polymarket questions: %w", err)
	}
	kalshiVecs, err := m.embedNormalized(ctx, kalshiTexts)
	if err != nil {
		return nil, fmt.Errorf("matcher: embed kalshi titles: %w", err)
	}

	// Pairwise similarity, chunked over the Polymarket side. Only triples at
	// or above the threshold survive.
	var cands []candidate
	for start := 0; start < len(polyVecs); start += m.cfg.ChunkSize {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		end := start + m.cfg.ChunkSize
		if end > len(polyVecs) {
			end = len(polyVecs)
		}
		for a := start; a < end; a++ {
			av := polyVecs[a]
			if av == nil {
				continue
			}
			for b, bv := range kalshiVecs {
				if bv == nil {
					continue
				}
				// Vectors are unit length, so the dot product is the cosine.
				sim := clamp01(dot(av, bv))
				if sim >= m.cfg.Threshold {
					cands = append(cands, candidate{aIdx: a, bIdx: b, sim: sim})
				}
			}
		}
	}

	// Resolve to a one-to-one assignment: best similarity first, ties broken
	// by input order so identical input always yields an identical pair set.
	sort.Slice(cands, func(i, j int) bool {
		if cands[i].sim != cands[j].sim {
			return cands[i].sim > cands[j].sim
		}
		if cands[i].aIdx != cands[j].aIdx {
			return cands[i].aIdx < cands[j].aIdx
		}
		return cands[i].bIdx < cands[j].bIdx
	})

	matchedAt := time.Now().UTC()
	usedA := make(map[int]bool, len(cands))
	usedB := make(map[int]bool, len(cands))
	var pairs []domain.MatchedPair
	for _, c := range cands {
		if usedA[c.aIdx] || usedB[c.bIdx] {
			continue
		}
		usedA[c.aIdx] = true
		usedB[c.bIdx] = true

		pm := polyMarkets[polyIdx[c.aIdx]]
		km := kalshiMarkets[kalshiIdx[c.bIdx]]
		pairs = append(pairs, domain.MatchedPair{
			ID:                 uuid.New().String(),
			PolymarketID:       pm.ExternalID,
			KalshiTicker:       km.ExternalID,
			PolymarketQuestion: pm.Question,
			KalshiTitle:        km.Question,
			Similarity:         c.sim,
			MatchedAt:          matchedAt,
		})
	}

	m.logger.InfoContext(ctx, "matching pass complete",
		slog.Int("polymarket_markets", len(polyMarkets)),
		slog.Int("kalshi_markets", len(kalshiMarkets)),
		slog.Int("candidates", len(cands)),
		slog.Int("pairs", len(pairs)),
		slog.Float64("threshold", m.cfg.Threshold),
	)
	return pairs, nil
}

// embeddable filters markets down to those with usable question text. It
// returns the positions of the kept markets in the original slice alongside
// their texts.
func (m *Matcher) embeddable(ctx context.Context, markets []domain.MarketRecord) ([]int, []string) {
	idx := make([]int, 0, len(markets))
	texts := make([]string, 0, len(markets))
	for i, mk := range markets {
		q := strings.TrimSpace(mk.Question)
		if q == "" || len(q) > m.cfg.MaxQuestionLen {
			m.logger.WarnContext(ctx, "skipping market with unembeddable text",
				slog.String("platform", string(mk.Platform)),
				slog.String("external_id", mk.ExternalID),
				slog.Int("text_len", len(q)),
			)
			continue
		}
		idx = append(idx, i)
		texts = append(texts, q)
	}
	return idx, texts
}

// embedNormalized embeds the texts and normalizes each vector to unit length.
// A vector that cannot be normalized is replaced with nil and skipped during
// scoring.
func (m *Matcher) embedNormalized(ctx context.Context, texts []string) ([][]float64, error) {
	vecs, err := m.embedder.Embed(ctx, texts)
	if err != nil {
		return nil, err
	}
	if len(vecs) != len(texts) {
		return nil, fmt.Errorf("%w: embedder returned %d vectors for %d texts", domain.ErrBadData, len(vecs), len(texts))
	}
	for i, v := range vecs {
		if len(v) == 0 || !normalize(v) {
			m.logger.WarnContext(ctx, "skipping degenerate embedding",
				slog.Int("index", i),
				slog.String("text", truncate(texts[i], 80)),
			)
			vecs[i] = nil
		}
	}
	return vecs, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
