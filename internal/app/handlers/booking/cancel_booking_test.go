package booking

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainbooking "livonto/internal/domain/booking"
	"livonto/internal/domain/shared/clock"
	"livonto/internal/domain/shared/month"
	"livonto/internal/infra/storage/memory"
)

func newCancelHandler(f *fixture) *CancelBookingHandler {
	return &CancelBookingHandler{
		UoWFactory: f.factory,
		Clock:      clock.Fixed{At: fixedNow},
		Outbox:     memory.NewOutbox(),
	}
}

func TestCancelBookingReleasesSlot(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.handler.Handle(ctx, f.command("bk-1", "user-1"))
	require.NoError(t, err)

	feb := month.Month{Year: 2026, Month: time.February}
	require.Equal(t, 1, f.ledger.Reserved("rc-1", feb))

	result, err := newCancelHandler(f).Handle(ctx, CancelBookingCommand{
		BookingID: "bk-1",
		UserID:    "user-1",
		Reason:    "found another place",
	})
	require.NoError(t, err)
	assert.Equal(t, string(domainbooking.StatusCancelled), result.Status)
	assert.Equal(t, 0, f.ledger.Reserved("rc-1", feb))

	b, err := f.factory.BookingRepo.ByID(ctx, "bk-1")
	require.NoError(t, err)
	assert.Equal(t, domainbooking.StatusCancelled, b.Status)

	// The freed bed is immediately bookable again.
	f.addKyc(t, "user-2")
	_, err = f.handler.Handle(ctx, f.command("bk-2", "user-2"))
	assert.NoError(t, err)
}

func TestCancelBookingOwnership(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.handler.Handle(ctx, f.command("bk-1", "user-1"))
	require.NoError(t, err)

	_, err = newCancelHandler(f).Handle(ctx, CancelBookingCommand{BookingID: "bk-1", UserID: "user-2"})
	assert.ErrorIs(t, err, ErrNotBookingOwner)

	// Admins pass no user id and may cancel anyone's booking.
	_, err = newCancelHandler(f).Handle(ctx, CancelBookingCommand{BookingID: "bk-1"})
	assert.NoError(t, err)
}

func TestCancelBookingTerminalStates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.handler.Handle(ctx, f.command("bk-1", "user-1"))
	require.NoError(t, err)

	handler := newCancelHandler(f)
	_, err = handler.Handle(ctx, CancelBookingCommand{BookingID: "bk-1", UserID: "user-1"})
	require.NoError(t, err)

	_, err = handler.Handle(ctx, CancelBookingCommand{BookingID: "bk-1", UserID: "user-1"})
	assert.ErrorIs(t, err, domainbooking.ErrInvalidState)

	_, err = handler.Handle(ctx, CancelBookingCommand{BookingID: "bk-missing", UserID: "user-1"})
	assert.ErrorIs(t, err, domainbooking.ErrNotFound)
}
