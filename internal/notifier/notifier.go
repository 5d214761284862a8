package notifier

import (
	"context"
	"fmt"
	"log/slog"
)

// Notifier interface defines the contract for digest delivery
type Notifier interface {
	Notify(ctx context.Context, chat, message string) error
}

// StatusError is returned when the notification endpoint answers with a non-success status
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("notification failed with status %d: %s", e.StatusCode, e.Body)
}

// LogNotifier logs digests instead of delivering them
type LogNotifier struct {
	log *slog.Logger
}

// NewLogNotifier creates a notifier for dry runs
func NewLogNotifier(log *slog.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

// Notify writes the message to the log
func (n *LogNotifier) Notify(_ context.Context, chat, message string) error {
	n.log.Info("Dry run, notification not sent", "chat", chat, "message", message)
	return nil
}
