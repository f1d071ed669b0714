package booking

import (
	"context"
	"log/slog"
	"time"

	"livonto/internal/app/commands"
	"livonto/internal/app/outbox"
	"livonto/internal/app/uow"
	"livonto/internal/domain/shared/clock"
)

const completionSweepKey = "booking.sweep"

// CompletionSweepCommand advances every confirmed booking whose occupied
// month has fully elapsed at AsOf. Safe to run any number of times per day.
type CompletionSweepCommand struct {
	AsOf time.Time
}

func (c CompletionSweepCommand) Key() string { return completionSweepKey }

type CompletionSweepResult struct {
	CompletedCount int `json:"completed_count"`
}

// CompletionSweepHandler performs the whole sweep in one transaction: either
// every due booking flips and releases its slot, or none do.
type CompletionSweepHandler struct {
	UoWFactory uow.UoWFactory
	Clock      clock.Clock
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Logger     *slog.Logger
}

func (h *CompletionSweepHandler) Handle(ctx context.Context, cmd CompletionSweepCommand) (*CompletionSweepResult, error) {
	asOf := cmd.AsOf
	if asOf.IsZero() {
		asOf = h.now()
	}
	asOf = asOf.UTC()

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

	due, err := unit.Bookings().DueForCompletion(ctx, asOf)
	if err != nil {
		return nil, err
	}

	completed := 0
	for _, b := range due {
		if err := b.Complete(asOf); err != nil {
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
		completed++
	}

	if managed {
		if err := unit.Commit(ctx); err != nil {
			return nil, err
		}
		committed = true
	}

	if h.Logger != nil {
		h.Logger.Info("completion sweep finished", "as_of", asOf, "completed", completed)
	}
	return &CompletionSweepResult{CompletedCount: completed}, nil
}

func (h *CompletionSweepHandler) now() time.Time {
	if h.Clock != nil {
		return h.Clock.Now()
	}
	return clock.System{}.Now()
}

func (h *CompletionSweepHandler) encoder() outbox.EventEncoder {
	if h.Encoder != nil {
		return h.Encoder
	}
	return outbox.JSONEventEncoder{}
}

var _ commands.Handler[CompletionSweepCommand, *CompletionSweepResult] = (*CompletionSweepHandler)(nil)
