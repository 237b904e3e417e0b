package notify

import (
	"context"
	"log/slog"
)

// ConsoleSender writes notifications to the structured log. Useful in
// development and as a fallback when no chat channel is configured.
type ConsoleSender struct {
	logger *slog.Logger
}

// NewConsoleSender creates a ConsoleSender.
func NewConsoleSender(logger *slog.Logger) *ConsoleSender {
	return &ConsoleSender{
		logger: logger.With(slog.String("component", "console_notify")),
	}
}

// Send logs the notification at info level.
func (c *ConsoleSender) Send(ctx context.Context, title, message string) error {
	c.logger.InfoContext(ctx, title, slog.String("message", message))
	return nil
}

// Name returns the sender identifier.
func (c *ConsoleSender) Name() string {
	return "console"
}
