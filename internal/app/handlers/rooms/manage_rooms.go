package rooms

import (
	"context"
	"time"

	"livonto/internal/app/commands"
	"livonto/internal/app/uow"
	domainlistings "livonto/internal/domain/listings"
	domainrooms "livonto/internal/domain/rooms"
	"livonto/internal/domain/shared/clock"
	"livonto/internal/domain/shared/money"
)

const (
	upsertRoomConfigKey = "rooms.upsert"
	deleteRoomConfigKey = "rooms.delete"
)

// UpsertRoomConfigCommand creates or edits one room configuration of a
// listing. OwnerID empty means an admin caller; otherwise ownership is
// enforced.
type UpsertRoomConfigCommand struct {
	CommandID    string
	RoomConfigID string
	ListingID    string
	OwnerID      string
	RoomType     string
	RentPaise    int64
	TotalRooms   int
}

func (c UpsertRoomConfigCommand) Key() string { return upsertRoomConfigKey }

type UpsertRoomConfigResult struct {
	RoomConfigID string `json:"room_config_id"`
	TotalBeds    int    `json:"total_beds"`
}

type UpsertRoomConfigHandler struct {
	UoWFactory uow.UoWFactory
	Clock      clock.Clock
}

func (h *UpsertRoomConfigHandler) Handle(ctx context.Context, cmd UpsertRoomConfigCommand) (*UpsertRoomConfigResult, error) {
	unit, managed, commit, rollback, err := begin(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}
	if managed {
		ctx = uow.Bind(ctx, unit)
		defer rollback(ctx)
	}

	listing, err := unit.Listings().ByID(ctx, domainlistings.ListingID(cmd.ListingID))
	if err != nil {
		return nil, err
	}
	if err := requireOwner(listing, cmd.OwnerID); err != nil {
		return nil, err
	}

	now := h.now()
	rent := money.INR(cmd.RentPaise)
	var rc *domainrooms.RoomConfiguration
	if cmd.RoomConfigID != "" {
		rc, err = unit.Rooms().ByID(ctx, domainrooms.RoomConfigID(cmd.RoomConfigID))
		if err != nil {
			return nil, err
		}
		if rc.ListingID != listing.ID {
			return nil, domainrooms.ErrNotFound
		}
		if err := rc.Update(domainrooms.RoomType(cmd.RoomType), rent, cmd.TotalRooms, now); err != nil {
			return nil, err
		}
	} else {
		rc, err = domainrooms.NewRoomConfiguration(domainrooms.CreateParams{
			ID:           domainrooms.RoomConfigID(cmd.CommandID),
			ListingID:    listing.ID,
			Type:         domainrooms.RoomType(cmd.RoomType),
			RentPerMonth: rent,
			TotalRooms:   cmd.TotalRooms,
			Now:          now,
		})
		if err != nil {
			return nil, err
		}
	}
	if err := unit.Rooms().Save(ctx, rc); err != nil {
		return nil, err
	}

	if managed {
		if err := commit(ctx); err != nil {
			return nil, err
		}
	}
	return &UpsertRoomConfigResult{RoomConfigID: string(rc.ID), TotalBeds: rc.TotalBeds()}, nil
}

func (h *UpsertRoomConfigHandler) now() time.Time {
	if h.Clock != nil {
		return h.Clock.Now()
	}
	return clock.System{}.Now()
}

// DeleteRoomConfigCommand removes an unused configuration. Deletion is
// refused while any booking still references it.
type DeleteRoomConfigCommand struct {
	RoomConfigID string
	OwnerID      string
}

func (c DeleteRoomConfigCommand) Key() string { return deleteRoomConfigKey }

type DeleteRoomConfigResult struct {
	Deleted bool `json:"deleted"`
}

type DeleteRoomConfigHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *DeleteRoomConfigHandler) Handle(ctx context.Context, cmd DeleteRoomConfigCommand) (*DeleteRoomConfigResult, error) {
	unit, managed, commit, rollback, err := begin(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}
	if managed {
		ctx = uow.Bind(ctx, unit)
		defer rollback(ctx)
	}

	rc, err := unit.Rooms().ByID(ctx, domainrooms.RoomConfigID(cmd.RoomConfigID))
	if err != nil {
		return nil, err
	}
	if cmd.OwnerID != "" {
		listing, err := unit.Listings().ByID(ctx, rc.ListingID)
		if err != nil {
			return nil, err
		}
		if err := requireOwner(listing, cmd.OwnerID); err != nil {
			return nil, err
		}
	}

	referenced, err := unit.Bookings().ExistsForRoomConfig(ctx, rc.ID)
	if err != nil {
		return nil, err
	}
	if referenced {
		return nil, domainrooms.ErrHasBookings
	}
	if err := unit.Rooms().Delete(ctx, rc.ID); err != nil {
		return nil, err
	}

	if managed {
		if err := commit(ctx); err != nil {
			return nil, err
		}
	}
	return &DeleteRoomConfigResult{Deleted: true}, nil
}

func requireOwner(listing *domainlistings.Listing, ownerID string) error {
	if ownerID == "" {
		return nil
	}
	if !listing.OwnedBy(domainlistings.OwnerID(ownerID)) {
		return domainlistings.ErrNotFound
	}
	return nil
}

func begin(ctx context.Context, factory uow.UoWFactory) (unit uow.UnitOfWork, managed bool, commit func(context.Context) error, rollback func(context.Context), err error) {
	if existing, ok := uow.FromContext(ctx); ok {
		return existing, false, nil, nil, nil
	}
	if factory == nil {
		return nil, false, nil, nil, uow.ErrUnitOfWorkMissing
	}
	unit, err = factory.Begin(ctx, uow.TxOptions{})
	if err != nil {
		return nil, false, nil, nil, err
	}
	committed := false
	commit = func(c context.Context) error {
		if err := unit.Commit(c); err != nil {
			return err
		}
		committed = true
		return nil
	}
	rollback = func(c context.Context) {
		if !committed {
			_ = unit.Rollback(c)
		}
	}
	return unit, true, commit, rollback, nil
}

var _ commands.Handler[UpsertRoomConfigCommand, *UpsertRoomConfigResult] = (*UpsertRoomConfigHandler)(nil)
var _ commands.Handler[DeleteRoomConfigCommand, *DeleteRoomConfigResult] = (*DeleteRoomConfigHandler)(nil)
