package rooms

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainbooking "livonto/internal/domain/booking"
	domainlistings "livonto/internal/domain/listings"
	domainrooms "livonto/internal/domain/rooms"
	"livonto/internal/domain/shared/clock"
	"livonto/internal/domain/shared/money"
	"livonto/internal/domain/shared/month"
	"livonto/internal/infra/storage/memory"
)

var fixedNow = time.Date(2026, time.January, 10, 9, 30, 0, 0, time.UTC)

func seedListing(t *testing.T, factory memory.Factory) {
	t.Helper()
	listing, err := domainlistings.NewListing(domainlistings.CreateListingParams{
		ID:      "lst-1",
		Owner:   "owner-1",
		Title:   "Sunrise PG",
		Address: domainlistings.Address{Line1: "12 5th Block", City: "Bengaluru"},
		Now:     fixedNow,
	})
	require.NoError(t, err)
	require.NoError(t, listing.Activate(fixedNow))
	require.NoError(t, factory.ListingsRepo.Save(context.Background(), listing))
}

func TestUpsertRoomConfigCreate(t *testing.T) {
	factory := memory.NewFactory()
	seedListing(t, factory)
	handler := &UpsertRoomConfigHandler{UoWFactory: factory, Clock: clock.Fixed{At: fixedNow}}

	result, err := handler.Handle(context.Background(), UpsertRoomConfigCommand{
		CommandID:  "rc-1",
		ListingID:  "lst-1",
		OwnerID:    "owner-1",
		RoomType:   string(domainrooms.RoomTypeTriple),
		RentPaise:  850000,
		TotalRooms: 2,
	})
	require.NoError(t, err)
	assert.Equal(t, "rc-1", result.RoomConfigID)
	assert.Equal(t, 6, result.TotalBeds)

	rc, err := factory.RoomsRepo.ByID(context.Background(), "rc-1")
	require.NoError(t, err)
	assert.Equal(t, money.INR(850000), rc.RentPerMonth)
}

func TestUpsertRoomConfigEdit(t *testing.T) {
	factory := memory.NewFactory()
	seedListing(t, factory)
	handler := &UpsertRoomConfigHandler{UoWFactory: factory, Clock: clock.Fixed{At: fixedNow}}
	ctx := context.Background()

	_, err := handler.Handle(ctx, UpsertRoomConfigCommand{
		CommandID: "rc-1", ListingID: "lst-1", OwnerID: "owner-1",
		RoomType: string(domainrooms.RoomTypeDouble), RentPaise: 850000, TotalRooms: 2,
	})
	require.NoError(t, err)

	result, err := handler.Handle(ctx, UpsertRoomConfigCommand{
		RoomConfigID: "rc-1", ListingID: "lst-1", OwnerID: "owner-1",
		RoomType: string(domainrooms.RoomTypeDouble), RentPaise: 900000, TotalRooms: 3,
	})
	require.NoError(t, err)
	assert.Equal(t, 6, result.TotalBeds)

	rc, err := factory.RoomsRepo.ByID(ctx, "rc-1")
	require.NoError(t, err)
	assert.Equal(t, int64(900000), rc.RentPerMonth.Amount)
	assert.Equal(t, 3, rc.TotalRooms)
}

func TestUpsertRoomConfigOwnership(t *testing.T) {
	factory := memory.NewFactory()
	seedListing(t, factory)
	handler := &UpsertRoomConfigHandler{UoWFactory: factory, Clock: clock.Fixed{At: fixedNow}}

	// Other owners cannot tell the listing exists.
	_, err := handler.Handle(context.Background(), UpsertRoomConfigCommand{
		CommandID: "rc-1", ListingID: "lst-1", OwnerID: "owner-2",
		RoomType: string(domainrooms.RoomTypeDouble), RentPaise: 850000, TotalRooms: 2,
	})
	assert.ErrorIs(t, err, domainlistings.ErrNotFound)

	// Admin callers carry no owner id and pass.
	_, err = handler.Handle(context.Background(), UpsertRoomConfigCommand{
		CommandID: "rc-1", ListingID: "lst-1",
		RoomType: string(domainrooms.RoomTypeDouble), RentPaise: 850000, TotalRooms: 2,
	})
	assert.NoError(t, err)
}

func TestUpsertRoomConfigValidation(t *testing.T) {
	factory := memory.NewFactory()
	seedListing(t, factory)
	handler := &UpsertRoomConfigHandler{UoWFactory: factory, Clock: clock.Fixed{At: fixedNow}}

	_, err := handler.Handle(context.Background(), UpsertRoomConfigCommand{
		CommandID: "rc-1", ListingID: "lst-1", OwnerID: "owner-1",
		RoomType: "dorm", RentPaise: 850000, TotalRooms: 2,
	})
	assert.ErrorIs(t, err, domainrooms.ErrInvalidRoomType)

	_, err = handler.Handle(context.Background(), UpsertRoomConfigCommand{
		CommandID: "rc-1", ListingID: "lst-1", OwnerID: "owner-1",
		RoomType: string(domainrooms.RoomTypeDouble), RentPaise: 0, TotalRooms: 2,
	})
	assert.ErrorIs(t, err, domainrooms.ErrRentInvalid)
}

func TestDeleteRoomConfig(t *testing.T) {
	factory := memory.NewFactory()
	seedListing(t, factory)
	ctx := context.Background()

	upsert := &UpsertRoomConfigHandler{UoWFactory: factory, Clock: clock.Fixed{At: fixedNow}}
	_, err := upsert.Handle(ctx, UpsertRoomConfigCommand{
		CommandID: "rc-1", ListingID: "lst-1", OwnerID: "owner-1",
		RoomType: string(domainrooms.RoomTypeDouble), RentPaise: 850000, TotalRooms: 2,
	})
	require.NoError(t, err)

	del := &DeleteRoomConfigHandler{UoWFactory: factory}
	result, err := del.Handle(ctx, DeleteRoomConfigCommand{RoomConfigID: "rc-1", OwnerID: "owner-1"})
	require.NoError(t, err)
	assert.True(t, result.Deleted)

	_, err = factory.RoomsRepo.ByID(ctx, "rc-1")
	assert.ErrorIs(t, err, domainrooms.ErrNotFound)
}

func TestDeleteRoomConfigRefusedWhileReferenced(t *testing.T) {
	factory := memory.NewFactory()
	seedListing(t, factory)
	ctx := context.Background()

	upsert := &UpsertRoomConfigHandler{UoWFactory: factory, Clock: clock.Fixed{At: fixedNow}}
	_, err := upsert.Handle(ctx, UpsertRoomConfigCommand{
		CommandID: "rc-1", ListingID: "lst-1", OwnerID: "owner-1",
		RoomType: string(domainrooms.RoomTypeDouble), RentPaise: 850000, TotalRooms: 2,
	})
	require.NoError(t, err)

	b, err := domainbooking.NewBooking(domainbooking.CreateParams{
		ID:            "bk-1",
		UserID:        "user-1",
		ListingID:     "lst-1",
		RoomConfigID:  "rc-1",
		StartMonth:    month.Month{Year: 2026, Month: time.February},
		TotalAmount:   money.INR(850000),
		KycID:         "kyc-1",
		AgreedToTerms: true,
		Now:           fixedNow,
	})
	require.NoError(t, err)
	// Cancelled history still anchors the configuration.
	require.NoError(t, b.Cancel("changed plans", fixedNow))
	b.ClearEvents()
	require.NoError(t, factory.BookingRepo.Save(ctx, b))

	del := &DeleteRoomConfigHandler{UoWFactory: factory}
	_, err = del.Handle(ctx, DeleteRoomConfigCommand{RoomConfigID: "rc-1", OwnerID: "owner-1"})
	assert.ErrorIs(t, err, domainrooms.ErrHasBookings)

	rc, err := factory.RoomsRepo.ByID(ctx, "rc-1")
	require.NoError(t, err)
	assert.NotNil(t, rc)
}
