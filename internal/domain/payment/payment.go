package payment

import (
	"context"
	"errors"
	"time"

	"livonto/internal/domain/booking"
	"livonto/internal/domain/shared/money"
)

var (
	ErrNotFound         = errors.New("payment: not found")
	ErrInvalidState     = errors.New("payment: invalid state transition")
	ErrSignatureInvalid = errors.New("payment: signature invalid")
	ErrAmountMismatch   = errors.New("payment: paid amount does not match booking total")
	ErrAlreadyConfirmed = errors.New("payment: booking already confirmed")
)

type PaymentID string

type Status string

const (
	StatusInitiated Status = "INITIATED"
	StatusSuccess   Status = "SUCCESS"
	StatusFailed    Status = "FAILED"
)

// Payment records one attempt against a booking. A booking can accumulate
// failed attempts; at most one payment is ever marked SUCCESS and that one
// drives confirmation.
type Payment struct {
	ID                PaymentID
	BookingID         booking.BookingID
	Amount            money.Money
	Provider          string
	ProviderOrderID   string
	ProviderPaymentID string
	Status            Status
	CreatedAt         time.Time
	UpdatedAt         time.Time
	Version           int64
}

type Repository interface {
	ByID(ctx context.Context, id PaymentID) (*Payment, error)
	// LatestByBooking returns the most recently created payment for the
	// booking, the one driving confirmation.
	LatestByBooking(ctx context.Context, id booking.BookingID) (*Payment, error)
	Save(ctx context.Context, p *Payment) error
}

type CreateParams struct {
	ID              PaymentID
	BookingID       booking.BookingID
	Amount          money.Money
	Provider        string
	ProviderOrderID string
	Now             time.Time
}

func NewPayment(params CreateParams) *Payment {
	now := params.Now.UTC()
	return &Payment{
		ID:              params.ID,
		BookingID:       params.BookingID,
		Amount:          params.Amount,
		Provider:        params.Provider,
		ProviderOrderID: params.ProviderOrderID,
		Status:          StatusInitiated,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// MarkSuccess records the provider payment id and flips to SUCCESS.
func (p *Payment) MarkSuccess(providerPaymentID string, now time.Time) error {
	if p.Status != StatusInitiated {
		return ErrInvalidState
	}
	p.ProviderPaymentID = providerPaymentID
	p.Status = StatusSuccess
	p.UpdatedAt = now.UTC()
	return nil
}

// MarkFailed keeps the attempt as history.
func (p *Payment) MarkFailed(now time.Time) error {
	if p.Status != StatusInitiated {
		return ErrInvalidState
	}
	p.Status = StatusFailed
	p.UpdatedAt = now.UTC()
	return nil
}
