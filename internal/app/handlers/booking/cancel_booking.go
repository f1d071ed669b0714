package booking

import (
	"context"
	"errors"
	"time"

	"livonto/internal/app/commands"
	"livonto/internal/app/outbox"
	"livonto/internal/app/uow"
	domainbooking "livonto/internal/domain/booking"
	"livonto/internal/domain/shared/clock"
)

const cancelBookingKey = "booking.cancel"

// ErrNotBookingOwner rejects cancellation of someone else's booking.
var ErrNotBookingOwner = errors.New("booking: caller does not own booking")

type CancelBookingCommand struct {
	BookingID string
	// UserID, when set, restricts cancellation to the booking's tenant.
	// Admin callers leave it empty.
	UserID string
	Reason string
}

func (c CancelBookingCommand) Key() string { return cancelBookingKey }

type CancelBookingResult struct {
	BookingID string `json:"booking_id"`
	Status    string `json:"status"`
}

// CancelBookingHandler releases the bed-slot from pending or confirmed.
// The status flip and the occupancy release commit together.
type CancelBookingHandler struct {
	UoWFactory uow.UoWFactory
	Clock      clock.Clock
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
}

func (h *CancelBookingHandler) Handle(ctx context.Context, cmd CancelBookingCommand) (*CancelBookingResult, error) {
	unit, ok := uow.FromContext(ctx)
	managed := false
	committed := false
	if !ok {
		if h.UoWFactory == nil {
			return nil, ErrUnitOfWorkRequired
		}
		var err error
		unit, err = h.UoWFactory.Begin(ctx, uow.TxOptions{})
		if err != nil {
			return nil, err
		}
		ctx = uow.Bind(ctx, unit)
		managed = true
	}
	if managed {
		defer func() {
			if !committed {
				_ = unit.Rollback(ctx)
			}
		}()
	}

	b, err := unit.Bookings().ByID(ctx, domainbooking.BookingID(cmd.BookingID))
	if err != nil {
		return nil, err
	}
	if cmd.UserID != "" && b.UserID != cmd.UserID {
		return nil, ErrNotBookingOwner
	}
	if err := b.Cancel(cmd.Reason, h.now()); err != nil {
		return nil, err
	}
	if err := unit.Bookings().Save(ctx, b); err != nil {
		return nil, err
	}
	if err := unit.Occupancy().Release(ctx, b.RoomConfigID, b.StartMonth); err != nil {
		return nil, err
	}

	pending := b.PendingEvents()
	b.ClearEvents()
	if err := outbox.RecordDomainEvents(ctx, h.Outbox, h.encoder(), pending); err != nil {
		return nil, err
	}

	if managed {
		if err := unit.Commit(ctx); err != nil {
			return nil, err
		}
		committed = true
	}
	return &CancelBookingResult{BookingID: string(b.ID), Status: string(b.Status)}, nil
}

func (h *CancelBookingHandler) now() time.Time {
	if h.Clock != nil {
		return h.Clock.Now()
	}
	return clock.System{}.Now()
}

func (h *CancelBookingHandler) encoder() outbox.EventEncoder {
	if h.Encoder != nil {
		return h.Encoder
	}
	return outbox.JSONEventEncoder{}
}

var _ commands.Handler[CancelBookingCommand, *CancelBookingResult] = (*CancelBookingHandler)(nil)
