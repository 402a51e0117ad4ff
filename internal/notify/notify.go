// Package notify provides outbound notification delivery. Other packages
// depend only on the Notifier interface; the concrete implementation is
// chosen at startup from config. When no SMTP host is configured the
// logging notifier is used, which records the notification instead of
// sending it -- useful for development and demo deployments.
package notify

import (
	"context"
	"log/slog"
)

// Notifier is the cross-package contract for sending notifications.
type Notifier interface {
	// Send delivers a notification to the given recipients.
	Send(ctx context.Context, to []string, subject, body string) error

	// IsConfigured returns true if the notifier can actually deliver.
	IsConfigured() bool
}

// LogNotifier writes notifications to the structured log instead of sending
// them. The default when SMTP is not configured.
type LogNotifier struct{}

// NewLogNotifier creates a notifier that only logs.
func NewLogNotifier() *LogNotifier {
	return &LogNotifier{}
}

// Send logs the notification and returns nil. Never fails.
func (n *LogNotifier) Send(ctx context.Context, to []string, subject, body string) error {
	slog.Info("notification (not sent: mail disabled)",
		slog.Any("to", to),
		slog.String("subject", subject),
		slog.Int("body_bytes", len(body)),
	)
	return nil
}

// IsConfigured always returns false for the logging notifier.
func (n *LogNotifier) IsConfigured() bool {
	return false
}
