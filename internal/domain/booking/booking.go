package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"livonto/internal/domain/listings"
	"livonto/internal/domain/rooms"
	"livonto/internal/domain/shared/events"
	"livonto/internal/domain/shared/money"
	"livonto/internal/domain/shared/month"
)

var (
	ErrInvalidState     = errors.New("booking: invalid state transition")
	ErrTermsNotAccepted = errors.New("booking: terms must be accepted")
	ErrPastMonth        = errors.New("booking: month is in the past")
	ErrUserRequired     = errors.New("booking: user id required")
	ErrKycRequired      = errors.New("booking: kyc record required")
	ErrNotFound         = errors.New("booking: not found")
	ErrMonthNotElapsed  = errors.New("booking: occupied month has not elapsed")
)

// CapacityError reports a full month to the caller; the message names the
// month so the UI can suggest alternatives.
type CapacityError struct {
	RoomConfigID rooms.RoomConfigID
	Month        month.Month
}

func (e CapacityError) Error() string {
	return fmt.Sprintf("booking: no beds available for %s", e.Month)
}

func (e CapacityError) Unwrap() error { return rooms.ErrNoCapacity }

type BookingID string

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusConfirmed Status = "CONFIRMED"
	StatusCancelled Status = "CANCELLED"
	StatusCompleted Status = "COMPLETED"
)

// Active reports whether the status occupies a bed-slot. Only pending and
// confirmed bookings count toward booked beds.
func (s Status) Active() bool {
	return s == StatusPending || s == StatusConfirmed
}

// Terminal states admit no further transition.
func (s Status) Terminal() bool {
	return s == StatusCancelled || s == StatusCompleted
}

// Booking occupies exactly one bed-slot for exactly one calendar month.
// StartMonth is the occupancy month; the persisted start date is its first
// day. DurationMonths exists for invoice display only and never affects
// occupancy or capacity.
type Booking struct {
	ID              BookingID
	UserID          string
	ListingID       listings.ListingID
	RoomConfigID    rooms.RoomConfigID
	StartMonth      month.Month
	TotalAmount     money.Money
	Status          Status
	KycID           string
	AgreedToTerms   bool
	AgreedAt        time.Time
	SpecialRequests string
	DurationMonths  int
	CreatedAt       time.Time
	UpdatedAt       time.Time
	Version         int64
	events.EventRecorder
}

type Repository interface {
	ByID(ctx context.Context, id BookingID) (*Booking, error)
	Save(ctx context.Context, b *Booking) error
	ListByUser(ctx context.Context, userID string) ([]*Booking, error)
	// CountActiveForMonth is the authoritative booked-beds figure for a
	// room configuration and month: bookings in pending or confirmed state
	// whose start date falls inside the month.
	CountActiveForMonth(ctx context.Context, id rooms.RoomConfigID, m month.Month) (int, error)
	// DueForCompletion lists confirmed bookings whose occupied month has
	// fully elapsed at the given instant.
	DueForCompletion(ctx context.Context, asOf time.Time) ([]*Booking, error)
	// ExistsForRoomConfig guards room-configuration deletion.
	ExistsForRoomConfig(ctx context.Context, id rooms.RoomConfigID) (bool, error)
}

type CreateParams struct {
	ID              BookingID
	UserID          string
	ListingID       listings.ListingID
	RoomConfigID    rooms.RoomConfigID
	StartMonth      month.Month
	TotalAmount     money.Money
	KycID           string
	AgreedToTerms   bool
	SpecialRequests string
	DurationMonths  int
	Now             time.Time
}

func NewBooking(params CreateParams) (*Booking, error) {
	if strings.TrimSpace(params.UserID) == "" {
		return nil, ErrUserRequired
	}
	if !params.AgreedToTerms {
		return nil, ErrTermsNotAccepted
	}
	if strings.TrimSpace(params.KycID) == "" {
		return nil, ErrKycRequired
	}
	now := params.Now.UTC()
	if params.StartMonth.Before(month.Of(now)) {
		return nil, ErrPastMonth
	}
	duration := params.DurationMonths
	if duration <= 0 {
		duration = 1
	}
	b := &Booking{
		ID:              params.ID,
		UserID:          params.UserID,
		ListingID:       params.ListingID,
		RoomConfigID:    params.RoomConfigID,
		StartMonth:      params.StartMonth,
		TotalAmount:     params.TotalAmount,
		Status:          StatusPending,
		KycID:           params.KycID,
		AgreedToTerms:   true,
		AgreedAt:        now,
		SpecialRequests: strings.TrimSpace(params.SpecialRequests),
		DurationMonths:  duration,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	b.Record(BookingRequested{
		BookingID:    b.ID,
		ListingID:    b.ListingID,
		RoomConfigID: b.RoomConfigID,
		UserID:       b.UserID,
		Month:        b.StartMonth,
		Amount:       b.TotalAmount,
		At:           now,
	})
	return b, nil
}

// Confirm moves pending to confirmed after successful payment verification.
func (b *Booking) Confirm(paymentID string, now time.Time) error {
	if b.Status != StatusPending {
		return ErrInvalidState
	}
	b.Status = StatusConfirmed
	b.UpdatedAt = now.UTC()
	b.Record(BookingConfirmed{BookingID: b.ID, ListingID: b.ListingID, PaymentID: paymentID, Month: b.StartMonth, At: b.UpdatedAt})
	return nil
}

// Cancel releases the bed-slot from pending or confirmed.
func (b *Booking) Cancel(reason string, now time.Time) error {
	if !b.Status.Active() {
		return ErrInvalidState
	}
	b.Status = StatusCancelled
	b.UpdatedAt = now.UTC()
	b.Record(BookingCancelled{BookingID: b.ID, ListingID: b.ListingID, Month: b.StartMonth, Reason: reason, At: b.UpdatedAt})
	return nil
}

// Complete transitions a confirmed booking whose month has elapsed; only the
// sweeper calls this.
func (b *Booking) Complete(asOf time.Time) error {
	if b.Status != StatusConfirmed {
		return ErrInvalidState
	}
	if !b.StartMonth.ElapsedBy(asOf) {
		return ErrMonthNotElapsed
	}
	b.Status = StatusCompleted
	b.UpdatedAt = asOf.UTC()
	b.Record(BookingCompleted{BookingID: b.ID, ListingID: b.ListingID, Month: b.StartMonth, At: b.UpdatedAt})
	return nil
}
