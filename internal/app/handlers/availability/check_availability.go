package availability

import (
	"context"

	"livonto/internal/app/dto"
	handlersupport "livonto/internal/app/handlers/support"
	"livonto/internal/app/queries"
	"livonto/internal/app/uow"
	domainlistings "livonto/internal/domain/listings"
	domainrooms "livonto/internal/domain/rooms"
	"livonto/internal/domain/shared/month"
)

const checkAvailabilityKey = "availability.check"

// CheckAvailabilityQuery computes bed availability for every room
// configuration of a listing in a target month. Always recomputed from the
// booking ledger; nothing is cached between requests.
type CheckAvailabilityQuery struct {
	ListingID string
	Month     month.Month
	// IncludeFull keeps zero-availability rooms in the result; the public
	// booking flow hides them, admin and owner views do not.
	IncludeFull bool
}

func (q CheckAvailabilityQuery) Key() string { return checkAvailabilityKey }

type CheckAvailabilityHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *CheckAvailabilityHandler) Handle(ctx context.Context, q CheckAvailabilityQuery) (dto.ListingAvailability, error) {
	if q.Month.IsZero() {
		return dto.ListingAvailability{}, month.ErrInvalidMonth
	}
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.ListingAvailability{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	listing, err := unit.Listings().ByID(execCtx, domainlistings.ListingID(q.ListingID))
	if err != nil {
		return dto.ListingAvailability{}, err
	}

	configs, err := unit.Rooms().ByListing(execCtx, listing.ID)
	if err != nil {
		return dto.ListingAvailability{}, err
	}

	result := dto.ListingAvailability{
		ListingID: string(listing.ID),
		Month:     q.Month.String(),
		Rooms:     make([]dto.RoomAvailability, 0, len(configs)),
	}
	for _, rc := range configs {
		snapshot, err := Snapshot(execCtx, unit, rc, q.Month)
		if err != nil {
			return dto.ListingAvailability{}, err
		}
		if !snapshot.IsAvailable && !q.IncludeFull {
			continue
		}
		result.Rooms = append(result.Rooms, snapshot)
	}
	return result, nil
}

// Snapshot derives the availability figures for one room configuration. The
// booked count comes straight from the ledger, so the reconciliation
// invariant booked+available==total holds by construction.
func Snapshot(ctx context.Context, unit uow.UnitOfWork, rc *domainrooms.RoomConfiguration, m month.Month) (dto.RoomAvailability, error) {
	booked, err := unit.Bookings().CountActiveForMonth(ctx, rc.ID, m)
	if err != nil {
		return dto.RoomAvailability{}, err
	}
	return dto.MapRoomAvailability(rc, booked), nil
}

var _ queries.Handler[CheckAvailabilityQuery, dto.ListingAvailability] = (*CheckAvailabilityHandler)(nil)
