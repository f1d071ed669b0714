package rooms

import (
	"context"
	"errors"
	"strings"
	"time"

	"livonto/internal/domain/listings"
	"livonto/internal/domain/shared/money"
	"livonto/internal/domain/shared/month"
)

var (
	ErrIDRequired        = errors.New("rooms: room configuration id is required")
	ErrListingRequired   = errors.New("rooms: listing id is required")
	ErrTotalRoomsInvalid = errors.New("rooms: total rooms must be positive")
	ErrRentInvalid       = errors.New("rooms: rent must be positive")
	ErrNotFound          = errors.New("rooms: room configuration not found")
	ErrHasBookings       = errors.New("rooms: room configuration has bookings referencing it")
	ErrNoCapacity        = errors.New("rooms: no beds available")
)

type RoomConfigID string

// RoomConfiguration describes one room type offered by a listing: how many
// rooms of that type exist and what a bed in one costs per month. Bed
// capacity is always derived from the room count, never stored.
type RoomConfiguration struct {
	ID           RoomConfigID
	ListingID    listings.ListingID
	Type         RoomType
	RentPerMonth money.Money
	TotalRooms   int
	CreatedAt    time.Time
	UpdatedAt    time.Time
	Version      int64
}

type CreateParams struct {
	ID           RoomConfigID
	ListingID    listings.ListingID
	Type         RoomType
	RentPerMonth money.Money
	TotalRooms   int
	Now          time.Time
}

func NewRoomConfiguration(params CreateParams) (*RoomConfiguration, error) {
	if strings.TrimSpace(string(params.ID)) == "" {
		return nil, ErrIDRequired
	}
	if strings.TrimSpace(string(params.ListingID)) == "" {
		return nil, ErrListingRequired
	}
	if _, err := BedsPerRoom(params.Type); err != nil {
		return nil, err
	}
	if params.TotalRooms <= 0 {
		return nil, ErrTotalRoomsInvalid
	}
	if params.RentPerMonth.Amount <= 0 {
		return nil, ErrRentInvalid
	}
	now := params.Now.UTC()
	return &RoomConfiguration{
		ID:           params.ID,
		ListingID:    params.ListingID,
		Type:         params.Type,
		RentPerMonth: params.RentPerMonth,
		TotalRooms:   params.TotalRooms,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// TotalBeds is the derived bed capacity of this configuration.
func (rc *RoomConfiguration) TotalBeds() int {
	beds, err := TotalBeds(rc.TotalRooms, rc.Type)
	if err != nil {
		return 0
	}
	return beds
}

// Update edits the mutable fields, re-validating the same invariants.
func (rc *RoomConfiguration) Update(rt RoomType, rent money.Money, totalRooms int, now time.Time) error {
	if _, err := BedsPerRoom(rt); err != nil {
		return err
	}
	if totalRooms <= 0 {
		return ErrTotalRoomsInvalid
	}
	if rent.Amount <= 0 {
		return ErrRentInvalid
	}
	rc.Type = rt
	rc.RentPerMonth = rent
	rc.TotalRooms = totalRooms
	rc.UpdatedAt = now.UTC()
	return nil
}

type Repository interface {
	ByID(ctx context.Context, id RoomConfigID) (*RoomConfiguration, error)
	ByListing(ctx context.Context, id listings.ListingID) ([]*RoomConfiguration, error)
	Save(ctx context.Context, rc *RoomConfiguration) error
	Delete(ctx context.Context, id RoomConfigID) error
}

// OccupancyReserver is the serialization point for concurrent booking
// creation. Reserve atomically claims one bed-slot for the month and fails
// with ErrNoCapacity when the counter already equals capacity; Release
// returns a slot when a booking leaves the pending/confirmed set. Both run
// inside the surrounding unit-of-work transaction so the guard counter never
// drifts from the ledger.
type OccupancyReserver interface {
	Reserve(ctx context.Context, id RoomConfigID, m month.Month, capacity int) error
	Release(ctx context.Context, id RoomConfigID, m month.Month) error
}
