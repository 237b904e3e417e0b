package notify

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/finnmackay/arbitrageSeeker/internal/domain"
)

type fakeSender struct {
	name   string
	err    error
	titles []string
}

func (f *fakeSender) Send(_ context.Context, title, _ string) error {
	f.titles = append(f.titles, title)
	if f.err != nil {
		return f.err
	}
	return nil
}

func (f *fakeSender) Name() string { return f.name }

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNotifyEventFilter(t *testing.T) {
	s := &fakeSender{name: "fake"}
	n := NewNotifier([]Sender{s}, []string{EventOpportunity}, testLogger())

	if err := n.Notify(context.Background(), EventOpportunity, "t1", "m"); err != nil {
		t.Fatalf("Notify(opportunity) error = %v", err)
	}
	if err := n.Notify(context.Background(), EventTickSummary, "t2", "m"); err != nil {
		t.Fatalf("Notify(tick_summary) error = %v", err)
	}

	if len(s.titles) != 1 || s.titles[0] != "t1" {
		t.Errorf("delivered titles = %v, want [t1]", s.titles)
	}
}

func TestNotifyEmptyFilterAllowsAll(t *testing.T) {
	s := &fakeSender{name: "fake"}
	n := NewNotifier([]Sender{s}, nil, testLogger())

	for _, event := range []string{EventOpportunity, EventTickSummary, EventError} {
		if err := n.Notify(context.Background(), event, event, "m"); err != nil {
			t.Fatalf("Notify(%s) error = %v", event, err)
		}
	}
	if len(s.titles) != 3 {
		t.Errorf("delivered %d notifications, want 3", len(s.titles))
	}
}

func TestDispatchContinuesPastFailedSender(t *testing.T) {
	bad := &fakeSender{name: "bad", err: errors.New("webhook 500")}
	good := &fakeSender{name: "good"}
	n := NewNotifier([]Sender{bad, good}, nil, testLogger())

	err := n.Notify(context.Background(), EventOpportunity, "t", "m")
	if err == nil {
		t.Fatal("Notify() = nil, want combined sender error")
	}
	if !strings.Contains(err.Error(), "bad: webhook 500") {
		t.Errorf("error %q does not name the failed sender", err)
	}
	if len(good.titles) != 1 {
		t.Errorf("healthy sender received %d notifications, want 1", len(good.titles))
	}
}

func TestNotifyOpportunityTitle(t *testing.T) {
	s := &fakeSender{name: "fake"}
	n := NewNotifier([]Sender{s}, nil, testLogger())

	opp := domain.Opportunity{
		PairID:    "p1",
		Direction: domain.DirectionYesNo,
		NetMargin: 0.0107,
	}
	if err := n.NotifyOpportunity(context.Background(), opp); err != nil {
		t.Fatalf("NotifyOpportunity() error = %v", err)
	}
	if len(s.titles) != 1 || s.titles[0] != "Arbitrage: 1.07% net" {
		t.Errorf("title = %v, want [Arbitrage: 1.07%% net]", s.titles)
	}
}

func TestFormatOpportunityLegsByDirection(t *testing.T) {
	opp := domain.Opportunity{
		PolymarketID: "0xcond",
		KalshiTicker: "KXTEST-26",
		GrossMargin:  0.02,
		NetMargin:    0.0107,
		PolyQuote:    domain.QuoteSnapshot{YesPrice: 0.48, NoPrice: 0.52},
		KalshiQuote:  domain.QuoteSnapshot{YesPrice: 0.55, NoPrice: 0.50},
		DetectedAt:   time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}

	opp.Direction = domain.DirectionYesNo
	body := FormatOpportunity(opp)
	if !strings.Contains(body, "buy YES on Polymarket @ 0.480") {
		t.Errorf("yes_no body missing Polymarket YES leg:\n%s", body)
	}
	if !strings.Contains(body, "buy NO on Kalshi @ 0.500") {
		t.Errorf("yes_no body missing Kalshi NO leg:\n%s", body)
	}

	opp.Direction = domain.DirectionNoYes
	body = FormatOpportunity(opp)
	if !strings.Contains(body, "buy NO on Polymarket @ 0.520") {
		t.Errorf("no_yes body missing Polymarket NO leg:\n%s", body)
	}
	if !strings.Contains(body, "buy YES on Kalshi @ 0.550") {
		t.Errorf("no_yes body missing Kalshi YES leg:\n%s", body)
	}
}

func TestNoSendersIsNoop(t *testing.T) {
	n := NewNotifier(nil, nil, testLogger())
	if err := n.Notify(context.Background(), EventOpportunity, "t", "m"); err != nil {
		t.Errorf("Notify() with no senders = %v, want nil", err)
	}
}
