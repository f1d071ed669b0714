package booking

import (
	"context"
	"errors"
	"time"

	"livonto/internal/app/commands"
	"livonto/internal/app/middleware"
	"livonto/internal/app/outbox"
	"livonto/internal/app/policies"
	"livonto/internal/app/uow"
	domainbooking "livonto/internal/domain/booking"
	domainkyc "livonto/internal/domain/kyc"
	domainlistings "livonto/internal/domain/listings"
	domainpayment "livonto/internal/domain/payment"
	domainrooms "livonto/internal/domain/rooms"
	"livonto/internal/domain/shared/clock"
	"livonto/internal/domain/shared/month"
)

const createBookingKey = "booking.create"

var (
	ErrUnitOfWorkRequired = errors.New("booking: unit of work required")
	ErrListingMismatch    = errors.New("booking: room configuration does not belong to listing")
	ErrListingInactive    = errors.New("booking: listing is not accepting bookings")
	ErrMissingReference   = errors.New("booking: listing and room configuration required")
)

type CreateBookingCommand struct {
	CommandID       string
	UserID          string
	ListingID       string
	RoomConfigID    string
	Month           time.Time
	AgreedToTerms   bool
	KycID           string
	SpecialRequests string
	DurationMonths  int
	IdempotencyKeyV string
}

func (c CreateBookingCommand) Key() string { return createBookingKey }

func (c CreateBookingCommand) IdempotencyKey() string { return c.IdempotencyKeyV }

func (c CreateBookingCommand) Validate() error {
	if c.UserID == "" {
		return domainbooking.ErrUserRequired
	}
	if c.ListingID == "" || c.RoomConfigID == "" {
		return ErrMissingReference
	}
	if c.Month.IsZero() {
		return month.ErrInvalidMonth
	}
	return nil
}

func (c CreateBookingCommand) ResultPrototype() any { return &CreateBookingResult{} }

type CreateBookingResult struct {
	BookingID       string `json:"booking_id"`
	Amount          int64  `json:"amount"`
	Currency        string `json:"currency"`
	ProviderOrderID string `json:"provider_order_id,omitempty"`
}

// CreateBookingHandler runs the precondition chain and inserts a pending
// booking plus its initiated payment. The capacity check and the insert are
// serialized against concurrent creates for the same (room config, month)
// pair by the occupancy reservation taken inside the same transaction.
type CreateBookingHandler struct {
	UoWFactory uow.UoWFactory
	Gateway    policies.PaymentGateway
	Clock      clock.Clock
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
}

func (h *CreateBookingHandler) Handle(ctx context.Context, cmd CreateBookingCommand) (*CreateBookingResult, error) {
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

	now := h.now()

	// Preconditions, first failure wins: pair exists, month not past,
	// terms accepted, KYC on file.
	listing, err := unit.Listings().ByID(ctx, domainlistings.ListingID(cmd.ListingID))
	if err != nil {
		return nil, err
	}
	if listing.State != domainlistings.ListingActive {
		return nil, ErrListingInactive
	}
	rc, err := unit.Rooms().ByID(ctx, domainrooms.RoomConfigID(cmd.RoomConfigID))
	if err != nil {
		return nil, err
	}
	if rc.ListingID != listing.ID {
		return nil, ErrListingMismatch
	}
	target := month.Of(cmd.Month)
	if target.Before(month.Of(now)) {
		return nil, domainbooking.ErrPastMonth
	}
	if !cmd.AgreedToTerms {
		return nil, domainbooking.ErrTermsNotAccepted
	}
	kycRecord, err := h.resolveKyc(ctx, unit.Kyc(), cmd.UserID, cmd.KycID)
	if err != nil {
		return nil, err
	}

	// Capacity: authoritative count from the ledger, then the atomic slot
	// reservation that closes the check-then-insert race.
	totalBeds := rc.TotalBeds()
	booked, err := unit.Bookings().CountActiveForMonth(ctx, rc.ID, target)
	if err != nil {
		return nil, err
	}
	if booked >= totalBeds {
		return nil, domainbooking.CapacityError{RoomConfigID: rc.ID, Month: target}
	}
	if err := unit.Occupancy().Reserve(ctx, rc.ID, target, totalBeds); err != nil {
		if errors.Is(err, domainrooms.ErrNoCapacity) {
			return nil, domainbooking.CapacityError{RoomConfigID: rc.ID, Month: target}
		}
		return nil, err
	}
	// The slot is claimed now; any failure below must hand it back, since
	// not every backend undoes ledger writes on rollback.
	reserved := true
	defer func() {
		if reserved {
			_ = unit.Occupancy().Release(ctx, rc.ID, target)
		}
	}()

	// Total is always a single month's rent regardless of any duration
	// field; duration only decorates the invoice.
	amount := rc.RentPerMonth

	b, err := domainbooking.NewBooking(domainbooking.CreateParams{
		ID:              domainbooking.BookingID(cmd.CommandID),
		UserID:          cmd.UserID,
		ListingID:       listing.ID,
		RoomConfigID:    rc.ID,
		StartMonth:      target,
		TotalAmount:     amount,
		KycID:           string(kycRecord.ID),
		AgreedToTerms:   cmd.AgreedToTerms,
		SpecialRequests: cmd.SpecialRequests,
		DurationMonths:  cmd.DurationMonths,
		Now:             now,
	})
	if err != nil {
		return nil, err
	}
	// The provider order goes out before the booking is written, so a
	// gateway failure leaves nothing behind to clean up beyond the slot.
	var orderID string
	if h.Gateway != nil {
		order, err := h.Gateway.CreateOrder(ctx, amount, string(b.ID), map[string]string{
			"listing_id": string(listing.ID),
			"month":      target.String(),
		})
		if err != nil {
			return nil, err
		}
		orderID = order.OrderID
	}

	if err := unit.Bookings().Save(ctx, b); err != nil {
		return nil, err
	}
	pay := domainpayment.NewPayment(domainpayment.CreateParams{
		ID:              domainpayment.PaymentID(newPaymentID()),
		BookingID:       b.ID,
		Amount:          amount,
		Provider:        providerName(h.Gateway),
		ProviderOrderID: orderID,
		Now:             now,
	})
	if err := unit.Payments().Save(ctx, pay); err != nil {
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
	reserved = false

	return &CreateBookingResult{
		BookingID:       string(b.ID),
		Amount:          amount.Amount,
		Currency:        amount.Currency,
		ProviderOrderID: orderID,
	}, nil
}

func (h *CreateBookingHandler) resolveKyc(ctx context.Context, store domainkyc.Store, userID, kycID string) (*domainkyc.Record, error) {
	if kycID != "" {
		rec, err := store.ByID(ctx, domainkyc.KycID(kycID))
		if err != nil {
			if errors.Is(err, domainkyc.ErrNotFound) {
				return nil, domainbooking.ErrKycRequired
			}
			return nil, err
		}
		if !rec.BelongsTo(userID) {
			return nil, domainkyc.ErrNotOwned
		}
		return rec, nil
	}
	rec, err := store.Latest(ctx, userID)
	if err != nil {
		if errors.Is(err, domainkyc.ErrNotFound) {
			return nil, domainbooking.ErrKycRequired
		}
		return nil, err
	}
	return rec, nil
}

func (h *CreateBookingHandler) now() time.Time {
	if h.Clock != nil {
		return h.Clock.Now()
	}
	return clock.System{}.Now()
}

func (h *CreateBookingHandler) encoder() outbox.EventEncoder {
	if h.Encoder != nil {
		return h.Encoder
	}
	return outbox.JSONEventEncoder{}
}

var _ commands.Handler[CreateBookingCommand, *CreateBookingResult] = (*CreateBookingHandler)(nil)
var _ middleware.IdempotentCommand = (*CreateBookingCommand)(nil)
