package kalshi

import (
	"testing"
	"time"

	"github.com/finnmackay/arbitrageSeeker/internal/domain"
)

func TestQuestionText(t *testing.T) {
	tests := []struct {
		name     string
		title    string
		subtitle string
		want     string
	}{
		{"title only", "Will the Fed cut rates?", "", "Will the Fed cut rates?"},
		{"title and subtitle", "High temp in NYC", "Above 90F on Jul 4", "High temp in NYC Above 90F on Jul 4"},
		{"whitespace trimmed", "  Title  ", "  Sub  ", "Title Sub"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := KalshiMarket{Title: tt.title, Subtitle: tt.subtitle}
			if got := m.questionText(); got != tt.want {
				t.Errorf("questionText() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestToMarketRecordConvertsCents(t *testing.T) {
	observedAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	m := KalshiMarket{
		Ticker: "KXRAIN-26JUL04",
		Title:  "Will it rain?",
		YesAsk: 48,
		NoAsk:  53,
	}

	rec := m.ToMarketRecord(observedAt)
	if rec.Platform != domain.PlatformKalshi {
		t.Errorf("Platform = %q, want kalshi", rec.Platform)
	}
	if rec.ExternalID != "KXRAIN-26JUL04" {
		t.Errorf("ExternalID = %q, want ticker", rec.ExternalID)
	}
	if rec.YesPrice != 0.48 || rec.NoPrice != 0.53 {
		t.Errorf("prices = %v/%v, want 0.48/0.53", rec.YesPrice, rec.NoPrice)
	}
	if !rec.ObservedAt.Equal(observedAt) {
		t.Errorf("ObservedAt = %v, want %v", rec.ObservedAt, observedAt)
	}
}

func TestWSTickerToQuoteSnapshot(t *testing.T) {
	fetchedAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	tick := KalshiWSTicker{Ticker: "KXTEST-26", YesAsk: 37, NoAsk: 65}

	q := tick.ToQuoteSnapshot(fetchedAt)
	if q.ExternalID != "KXTEST-26" {
		t.Errorf("ExternalID = %q, want KXTEST-26", q.ExternalID)
	}
	if q.YesPrice != 0.37 || q.NoPrice != 0.65 {
		t.Errorf("prices = %v/%v, want 0.37/0.65", q.YesPrice, q.NoPrice)
	}
	if !q.FetchedAt.Equal(fetchedAt) {
		t.Errorf("FetchedAt = %v, want %v", q.FetchedAt, fetchedAt)
	}
}
