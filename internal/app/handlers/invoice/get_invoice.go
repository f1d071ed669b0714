package invoice

import (
	"context"
	"errors"
	"time"

	"livonto/internal/app/dto"
	handlersupport "livonto/internal/app/handlers/support"
	"livonto/internal/app/queries"
	"livonto/internal/app/uow"
	domainbooking "livonto/internal/domain/booking"
	domainlistings "livonto/internal/domain/listings"
	"livonto/internal/domain/shared/clock"
)

const getInvoiceKey = "invoice.get"

// ErrNotInvoiceable: only paid bookings produce invoices.
var ErrNotInvoiceable = errors.New("invoice: booking is not confirmed or completed")

type GetInvoiceQuery struct {
	BookingID string
	// UserID, when set, restricts access to the booking's tenant.
	UserID string
}

func (q GetInvoiceQuery) Key() string { return getInvoiceKey }

type GetInvoiceHandler struct {
	UoWFactory uow.UoWFactory
	Clock      clock.Clock
}

func (h *GetInvoiceHandler) Handle(ctx context.Context, q GetInvoiceQuery) (dto.Invoice, error) {
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.Invoice{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	b, err := unit.Bookings().ByID(execCtx, domainbooking.BookingID(q.BookingID))
	if err != nil {
		return dto.Invoice{}, err
	}
	if q.UserID != "" && b.UserID != q.UserID {
		return dto.Invoice{}, domainbooking.ErrNotFound
	}
	switch b.Status {
	case domainbooking.StatusConfirmed, domainbooking.StatusCompleted:
	default:
		return dto.Invoice{}, ErrNotInvoiceable
	}

	// A vanished listing still yields an invoice, just without the
	// property block; anything else is a storage failure.
	listing, err := unit.Listings().ByID(execCtx, b.ListingID)
	if err != nil {
		if !errors.Is(err, domainlistings.ErrNotFound) {
			return dto.Invoice{}, err
		}
		listing = nil
	}
	return dto.MapInvoice(b, listing, h.now()), nil
}

func (h *GetInvoiceHandler) now() time.Time {
	if h.Clock != nil {
		return h.Clock.Now()
	}
	return clock.System{}.Now()
}

var _ queries.Handler[GetInvoiceQuery, dto.Invoice] = (*GetInvoiceHandler)(nil)
