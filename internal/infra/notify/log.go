// Package notify carries notification dispatchers. Delivery channels
// (email, SMS) plug in behind the policies.Notifier port; the log dispatcher
// is the default for local runs.
package notify

import (
	"context"
	"log/slog"

	"livonto/internal/app/policies"
)

type LogNotifier struct {
	Logger *slog.Logger
}

func (n LogNotifier) Notify(ctx context.Context, notification policies.Notification) error {
	logger := n.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("notification",
		slog.String("kind", notification.Kind),
		slog.String("booking_id", notification.BookingID))
	return nil
}

var _ policies.Notifier = LogNotifier{}
