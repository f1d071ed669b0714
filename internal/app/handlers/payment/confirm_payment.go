package payment

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"livonto/internal/app/commands"
	"livonto/internal/app/outbox"
	"livonto/internal/app/policies"
	"livonto/internal/app/uow"
	domainbooking "livonto/internal/domain/booking"
	domainpayment "livonto/internal/domain/payment"
	"livonto/internal/domain/shared/clock"
)

const confirmPaymentKey = "payment.confirm"

var (
	ErrUnitOfWorkRequired = errors.New("payment: unit of work required")
	ErrGatewayRequired    = errors.New("payment: gateway not configured")
	ErrVerifierRequired   = errors.New("payment: signature verifier not configured")
	ErrNotCaptured        = errors.New("payment: provider reports payment not captured")
	ErrOrderMismatch      = errors.New("payment: provider order does not match booking payment")
	ErrMissingCallback    = errors.New("payment: booking, order, payment and signature are required")
)

type ConfirmPaymentCommand struct {
	BookingID         string
	ProviderOrderID   string
	ProviderPaymentID string
	Signature         string
}

func (c ConfirmPaymentCommand) Key() string { return confirmPaymentKey }

func (c ConfirmPaymentCommand) Validate() error {
	if c.BookingID == "" || c.ProviderOrderID == "" || c.ProviderPaymentID == "" || c.Signature == "" {
		return ErrMissingCallback
	}
	return nil
}

type ConfirmPaymentResult struct {
	BookingID        string `json:"booking_id"`
	Status           string `json:"status"`
	AlreadyConfirmed bool   `json:"already_confirmed,omitempty"`
}

// ConfirmPaymentHandler turns a gateway callback into the pending→confirmed
// transition. Signature and amount failures leave all state untouched; the
// payment flip and the booking flip commit atomically or not at all.
type ConfirmPaymentHandler struct {
	UoWFactory uow.UoWFactory
	Gateway    policies.PaymentGateway
	Verifier   policies.SignatureVerifier
	Clock      clock.Clock
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Logger     *slog.Logger
}

func (h *ConfirmPaymentHandler) Handle(ctx context.Context, cmd ConfirmPaymentCommand) (*ConfirmPaymentResult, error) {
	if h.Verifier == nil {
		return nil, ErrVerifierRequired
	}
	if h.Gateway == nil {
		return nil, ErrGatewayRequired
	}

	// Step 1: recompute the callback signature; mismatch mutates nothing.
	if err := h.Verifier.Verify(cmd.ProviderOrderID, cmd.ProviderPaymentID, cmd.Signature); err != nil {
		h.logIntegrityFailure(cmd, "signature mismatch")
		return nil, domainpayment.ErrSignatureInvalid
	}

	// Step 2: the provider's authoritative view, never the client's word.
	provider, err := h.Gateway.VerifyPayment(ctx, cmd.ProviderPaymentID)
	if err != nil {
		return nil, err
	}
	switch provider.Status {
	case policies.ProviderStatusAuthorized, policies.ProviderStatusCaptured:
	default:
		h.logIntegrityFailure(cmd, "provider status "+provider.Status)
		return nil, ErrNotCaptured
	}

	unit, ok := uow.FromContext(ctx)
	managed := false
	committed := false
	if !ok {
		if h.UoWFactory == nil {
			return nil, ErrUnitOfWorkRequired
		}
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

	// Step 3: paid amount must match the booking total exactly (amounts
	// are integer paise, so the float tolerance question does not arise).
	if !provider.Amount.Equal(b.TotalAmount) {
		h.logIntegrityFailure(cmd, "amount mismatch")
		return nil, domainpayment.ErrAmountMismatch
	}

	pay, err := unit.Payments().LatestByBooking(ctx, b.ID)
	if err != nil {
		return nil, err
	}
	// Step 4: a second delivery of the same callback is a success, not a
	// second transition.
	if pay.Status == domainpayment.StatusSuccess {
		return &ConfirmPaymentResult{BookingID: string(b.ID), Status: string(b.Status), AlreadyConfirmed: true}, nil
	}
	if pay.ProviderOrderID != "" && pay.ProviderOrderID != cmd.ProviderOrderID {
		h.logIntegrityFailure(cmd, "order id mismatch")
		return nil, ErrOrderMismatch
	}

	// Step 5: both flips inside the one open transaction.
	now := h.now()
	if err := pay.MarkSuccess(cmd.ProviderPaymentID, now); err != nil {
		return nil, err
	}
	if err := unit.Payments().Save(ctx, pay); err != nil {
		return nil, err
	}
	if err := b.Confirm(string(pay.ID), now); err != nil {
		return nil, err
	}
	if err := unit.Bookings().Save(ctx, b); err != nil {
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
	return &ConfirmPaymentResult{BookingID: string(b.ID), Status: string(b.Status)}, nil
}

func (h *ConfirmPaymentHandler) logIntegrityFailure(cmd ConfirmPaymentCommand, reason string) {
	if h.Logger == nil {
		return
	}
	h.Logger.Warn("payment verification failed",
		"reason", reason,
		"booking_id", cmd.BookingID,
		"provider_order_id", cmd.ProviderOrderID,
		"provider_payment_id", cmd.ProviderPaymentID,
	)
}

func (h *ConfirmPaymentHandler) now() time.Time {
	if h.Clock != nil {
		return h.Clock.Now()
	}
	return clock.System{}.Now()
}

func (h *ConfirmPaymentHandler) encoder() outbox.EventEncoder {
	if h.Encoder != nil {
		return h.Encoder
	}
	return outbox.JSONEventEncoder{}
}

var _ commands.Handler[ConfirmPaymentCommand, *ConfirmPaymentResult] = (*ConfirmPaymentHandler)(nil)
