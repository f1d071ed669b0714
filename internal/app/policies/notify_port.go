package policies

import "context"

// Notification is a user-facing message derived from a booking event.
// Dispatch (email/SMS templating and delivery) is an external collaborator.
type Notification struct {
	Kind      string
	BookingID string
	Payload   []byte
}

type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}
