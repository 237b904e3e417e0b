// Package notify provides a multi-channel notification system. Notifications
// are dispatched to all registered senders (Telegram, Discord, console) and can
// be filtered by event type so operators receive only the alerts they care
// about.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/finnmackay/arbitrageSeeker/internal/domain"
)

// Event types emitted by the scanner.
const (
	EventOpportunity = "opportunity"
	EventTickSummary = "tick_summary"
	EventError       = "error"
)

// Sender is the interface that each notification channel must implement.
type Sender interface {
	// Send delivers a notification with the given title and message body.
	Send(ctx context.Context, title, message string) error
	// Name returns a human-readable identifier for the sender (e.g. "telegram").
	Name() string
}

// Notifier dispatches notifications to one or more Senders. It maintains a set
// of allowed event types; Notify only forwards messages whose event type is in
// the allowed set.
type Notifier struct {
	senders []Sender
	events  map[string]bool // allowed event types
	logger  *slog.Logger
}

// NewNotifier creates a Notifier that will deliver to the given senders. Only
// events whose type appears in the events slice will be forwarded by Notify.
// If events is empty, all event types are allowed.
func NewNotifier(senders []Sender, events []string, logger *slog.Logger) *Notifier {
	allowed := make(map[string]bool, len(events))
	for _, e := range events {
		allowed[strings.TrimSpace(e)] = true
	}
	return &Notifier{
		senders: senders,
		events:  allowed,
		logger:  logger.With(slog.String("component", "notifier")),
	}
}

// Notify sends a notification to all senders only if the event type is in the
// allowed list. If no events were configured (empty list), all events pass.
func (n *Notifier) Notify(ctx context.Context, event, title, message string) error {
	if len(n.events) > 0 && !n.events[event] {
		n.logger.DebugContext(ctx, "event filtered out",
			slog.String("event", event),
		)
		return nil
	}

	return n.dispatch(ctx, title, message)
}

// NotifyOpportunity formats and sends an opportunity alert.
func (n *Notifier) NotifyOpportunity(ctx context.Context, opp domain.Opportunity) error {
	title := fmt.Sprintf("Arbitrage: %.2f%% net", opp.NetMargin*100)
	message := FormatOpportunity(opp)
	return n.Notify(ctx, EventOpportunity, title, message)
}

// NotifyTickSummary formats and sends a per-tick scan summary.
func (n *Notifier) NotifyTickSummary(ctx context.Context, report domain.TickReport) error {
	title := fmt.Sprintf("Scan tick %s", report.Status)
	message := fmt.Sprintf(
		"pairs: %d attempted, %d succeeded, %d skipped\nopportunities: %d found, %d reported\nduration: %s",
		report.PairsAttempted, report.PairsSucceeded, report.PairsSkipped,
		report.Opportunities, report.Reported,
		report.FinishedAt.Sub(report.StartedAt).Round(time.Millisecond),
	)
	return n.Notify(ctx, EventTickSummary, title, message)
}

// dispatch iterates over all senders and sends the notification. Errors from
// individual senders are collected and returned as a combined error; a single
// sender failure does not prevent delivery to the remaining senders.
func (n *Notifier) dispatch(ctx context.Context, title, message string) error {
	if len(n.senders) == 0 {
		return nil
	}

	var errs []string
	for _, s := range n.senders {
		if err := s.Send(ctx, title, message); err != nil {
			n.logger.ErrorContext(ctx, "sender failed",
				slog.String("sender", s.Name()),
				slog.String("error", err.Error()),
			)
			errs = append(errs, fmt.Sprintf("%s: %v", s.Name(), err))
		} else {
			n.logger.DebugContext(ctx, "notification sent",
				slog.String("sender", s.Name()),
				slog.String("title", title),
			)
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("notify: %d sender(s) failed: %s", len(errs), strings.Join(errs, "; "))
	}
	return nil
}

// FormatOpportunity renders an opportunity as a human-readable alert body.
func FormatOpportunity(opp domain.Opportunity) string {
	var legs string
	switch opp.Direction {
	case domain.DirectionYesNo:
		legs = fmt.Sprintf(
			"buy YES on Polymarket @ %.3f\nbuy NO on Kalshi @ %.3f",
			opp.PolyQuote.YesPrice, opp.KalshiQuote.NoPrice,
		)
	case domain.DirectionNoYes:
		legs = fmt.Sprintf(
			"buy NO on Polymarket @ %.3f\nbuy YES on Kalshi @ %.3f",
			opp.PolyQuote.NoPrice, opp.KalshiQuote.YesPrice,
		)
	}

	return fmt.Sprintf(
		"%s\n\npolymarket: %s\nkalshi: %s\ngross %.4f / net %.4f\ndetected %s",
		legs,
		opp.PolymarketID, opp.KalshiTicker,
		opp.GrossMargin, opp.NetMargin,
		opp.DetectedAt.Format("2006-01-02 15:04:05 MST"),
	)
}
