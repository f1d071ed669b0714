package booking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"livonto/internal/domain/rooms"
	"livonto/internal/domain/shared/money"
	"livonto/internal/domain/shared/month"
)

var testNow = time.Date(2026, time.January, 10, 9, 30, 0, 0, time.UTC)

func validParams() CreateParams {
	return CreateParams{
		ID:            "bk-1",
		UserID:        "user-1",
		ListingID:     "lst-1",
		RoomConfigID:  "rc-1",
		StartMonth:    month.Month{Year: 2026, Month: time.February},
		TotalAmount:   money.Money{Amount: 850000, Currency: "INR"},
		KycID:         "kyc-1",
		AgreedToTerms: true,
		Now:           testNow,
	}
}

func TestNewBooking(t *testing.T) {
	b, err := NewBooking(validParams())
	require.NoError(t, err)
	assert.Equal(t, StatusPending, b.Status)
	assert.Equal(t, 1, b.DurationMonths)
	assert.Equal(t, testNow, b.AgreedAt)

	events := b.PendingEvents()
	require.Len(t, events, 1)
	assert.Equal(t, "booking.requested", events[0].EventName())
	assert.Equal(t, "bk-1", events[0].AggregateID())
}

func TestNewBookingPreconditions(t *testing.T) {
	p := validParams()
	p.UserID = "  "
	_, err := NewBooking(p)
	assert.ErrorIs(t, err, ErrUserRequired)

	p = validParams()
	p.AgreedToTerms = false
	_, err = NewBooking(p)
	assert.ErrorIs(t, err, ErrTermsNotAccepted)

	p = validParams()
	p.KycID = ""
	_, err = NewBooking(p)
	assert.ErrorIs(t, err, ErrKycRequired)

	p = validParams()
	p.StartMonth = month.Month{Year: 2025, Month: time.December}
	_, err = NewBooking(p)
	assert.ErrorIs(t, err, ErrPastMonth)

	// The current month is bookable until it ends.
	p = validParams()
	p.StartMonth = month.Of(testNow)
	_, err = NewBooking(p)
	assert.NoError(t, err)
}

func TestDurationNeverAffectsAmountOrMonth(t *testing.T) {
	p := validParams()
	p.DurationMonths = 6
	b, err := NewBooking(p)
	require.NoError(t, err)
	assert.Equal(t, 6, b.DurationMonths)
	assert.Equal(t, p.TotalAmount, b.TotalAmount)
	assert.True(t, b.StartMonth.Equal(p.StartMonth))
}

func TestConfirmOnlyFromPending(t *testing.T) {
	b, err := NewBooking(validParams())
	require.NoError(t, err)
	b.ClearEvents()

	require.NoError(t, b.Confirm("pay-1", testNow))
	assert.Equal(t, StatusConfirmed, b.Status)

	events := b.PendingEvents()
	require.Len(t, events, 1)
	assert.Equal(t, "booking.confirmed", events[0].EventName())

	assert.ErrorIs(t, b.Confirm("pay-2", testNow), ErrInvalidState)
}

func TestCancelFromActiveStatesOnly(t *testing.T) {
	b, err := NewBooking(validParams())
	require.NoError(t, err)
	require.NoError(t, b.Cancel("changed plans", testNow))
	assert.Equal(t, StatusCancelled, b.Status)

	b, err = NewBooking(validParams())
	require.NoError(t, err)
	require.NoError(t, b.Confirm("pay-1", testNow))
	require.NoError(t, b.Cancel("moving out", testNow))
	assert.Equal(t, StatusCancelled, b.Status)

	// Terminal states admit nothing further.
	assert.ErrorIs(t, b.Cancel("again", testNow), ErrInvalidState)
	assert.ErrorIs(t, b.Confirm("pay-2", testNow), ErrInvalidState)
}

func TestCompleteRequiresElapsedMonth(t *testing.T) {
	b, err := NewBooking(validParams())
	require.NoError(t, err)
	require.NoError(t, b.Confirm("pay-1", testNow))
	b.ClearEvents()

	lastOfFeb := time.Date(2026, time.February, 28, 23, 59, 59, 0, time.UTC)
	assert.ErrorIs(t, b.Complete(lastOfFeb), ErrMonthNotElapsed)
	assert.Equal(t, StatusConfirmed, b.Status)

	marchFirst := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, b.Complete(marchFirst))
	assert.Equal(t, StatusCompleted, b.Status)

	events := b.PendingEvents()
	require.Len(t, events, 1)
	assert.Equal(t, "booking.completed", events[0].EventName())

	assert.ErrorIs(t, b.Complete(marchFirst), ErrInvalidState)
}

func TestCompleteRejectsPending(t *testing.T) {
	b, err := NewBooking(validParams())
	require.NoError(t, err)
	assert.ErrorIs(t, b.Complete(time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)), ErrInvalidState)
}

func TestStatusPredicates(t *testing.T) {
	assert.True(t, StatusPending.Active())
	assert.True(t, StatusConfirmed.Active())
	assert.False(t, StatusCancelled.Active())
	assert.False(t, StatusCompleted.Active())

	assert.True(t, StatusCancelled.Terminal())
	assert.True(t, StatusCompleted.Terminal())
	assert.False(t, StatusPending.Terminal())
}

func TestCapacityErrorUnwrapsToNoCapacity(t *testing.T) {
	err := CapacityError{RoomConfigID: "rc-1", Month: month.Month{Year: 2026, Month: time.February}}
	assert.ErrorIs(t, err, rooms.ErrNoCapacity)
	assert.ErrorContains(t, err, "2026-02")
}
