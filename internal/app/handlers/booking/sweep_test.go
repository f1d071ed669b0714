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

func confirmBooking(t *testing.T, f *fixture, id string) {
	t.Helper()
	ctx := context.Background()
	b, err := f.factory.BookingRepo.ByID(ctx, domainbooking.BookingID(id))
	require.NoError(t, err)
	require.NoError(t, b.Confirm("pay-"+id, fixedNow))
	b.ClearEvents()
	require.NoError(t, f.factory.BookingRepo.Save(ctx, b))
}

func TestCompletionSweep(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Two confirmed February bookings, one still pending.
	for _, id := range []string{"bk-1", "bk-2", "bk-3"} {
		user := "user-" + id
		f.addKyc(t, user)
		_, err := f.handler.Handle(ctx, f.command(id, user))
		require.NoError(t, err)
	}
	confirmBooking(t, f, "bk-1")
	confirmBooking(t, f, "bk-2")

	sweeper := &CompletionSweepHandler{
		UoWFactory: f.factory,
		Clock:      clock.Fixed{At: fixedNow},
		Outbox:     memory.NewOutbox(),
	}

	marchFirst := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)
	result, err := sweeper.Handle(ctx, CompletionSweepCommand{AsOf: marchFirst})
	require.NoError(t, err)
	assert.Equal(t, 2, result.CompletedCount)

	for _, id := range []string{"bk-1", "bk-2"} {
		b, err := f.factory.BookingRepo.ByID(ctx, domainbooking.BookingID(id))
		require.NoError(t, err)
		assert.Equal(t, domainbooking.StatusCompleted, b.Status)
	}
	pending, err := f.factory.BookingRepo.ByID(ctx, "bk-3")
	require.NoError(t, err)
	assert.Equal(t, domainbooking.StatusPending, pending.Status)

	// Completed bookings released their slots; only the pending one holds.
	feb := month.Month{Year: 2026, Month: time.February}
	assert.Equal(t, 1, f.ledger.Reserved("rc-1", feb))

	// A second run finds nothing due.
	result, err = sweeper.Handle(ctx, CompletionSweepCommand{AsOf: marchFirst})
	require.NoError(t, err)
	assert.Equal(t, 0, result.CompletedCount)
}

func TestCompletionSweepSkipsUnelapsedMonths(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.handler.Handle(ctx, f.command("bk-1", "user-1"))
	require.NoError(t, err)
	confirmBooking(t, f, "bk-1")

	sweeper := &CompletionSweepHandler{
		UoWFactory: f.factory,
		Clock:      clock.Fixed{At: fixedNow},
		Outbox:     memory.NewOutbox(),
	}

	// Mid-February: the occupied month is still running.
	result, err := sweeper.Handle(ctx, CompletionSweepCommand{AsOf: time.Date(2026, time.February, 15, 0, 0, 0, 0, time.UTC)})
	require.NoError(t, err)
	assert.Equal(t, 0, result.CompletedCount)

	b, err := f.factory.BookingRepo.ByID(ctx, "bk-1")
	require.NoError(t, err)
	assert.Equal(t, domainbooking.StatusConfirmed, b.Status)
}
