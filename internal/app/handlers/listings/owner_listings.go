package listings

import (
	"context"
	"errors"
	"time"

	"livonto/internal/app/commands"
	"livonto/internal/app/uow"
	domainlistings "livonto/internal/domain/listings"
	"livonto/internal/domain/shared/clock"
)

const createListingKey = "listings.create"

var ErrNotOwner = errors.New("listings: caller does not own listing")

type CreateListingCommand struct {
	CommandID   string
	OwnerID     string
	Title       string
	Description string
	Address     domainlistings.Address
	Amenities   []string
	GenderPref  string
	Photos      []string
	// Activate publishes immediately when the address is complete.
	Activate bool
}

func (c CreateListingCommand) Key() string { return createListingKey }

type CreateListingResult struct {
	ListingID string `json:"listing_id"`
	State     string `json:"state"`
}

type CreateListingHandler struct {
	UoWFactory uow.UoWFactory
	Clock      clock.Clock
}

func (h *CreateListingHandler) Handle(ctx context.Context, cmd CreateListingCommand) (*CreateListingResult, error) {
	now := h.now()
	listing, err := domainlistings.NewListing(domainlistings.CreateListingParams{
		ID:          domainlistings.ListingID(cmd.CommandID),
		Owner:       domainlistings.OwnerID(cmd.OwnerID),
		Title:       cmd.Title,
		Description: cmd.Description,
		Address:     cmd.Address,
		Amenities:   cmd.Amenities,
		GenderPref:  cmd.GenderPref,
		Photos:      cmd.Photos,
		Now:         now,
	})
	if err != nil {
		return nil, err
	}
	if cmd.Activate {
		if err := listing.Activate(now); err != nil {
			return nil, err
		}
	}

	unit, ok := uow.FromContext(ctx)
	managed := false
	committed := false
	if !ok {
		if h.UoWFactory == nil {
			return nil, uow.ErrUnitOfWorkMissing
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

	if err := unit.Listings().Save(ctx, listing); err != nil {
		return nil, err
	}

	if managed {
		if err := unit.Commit(ctx); err != nil {
			return nil, err
		}
		committed = true
	}
	return &CreateListingResult{ListingID: string(listing.ID), State: string(listing.State)}, nil
}

func (h *CreateListingHandler) now() time.Time {
	if h.Clock != nil {
		return h.Clock.Now()
	}
	return clock.System{}.Now()
}

var _ commands.Handler[CreateListingCommand, *CreateListingResult] = (*CreateListingHandler)(nil)
