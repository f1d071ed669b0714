package dto

import (
	"livonto/internal/domain/rooms"
)

// RoomAvailability is the derived snapshot for one room configuration and
// month. booked+available always reconciles to total.
type RoomAvailability struct {
	RoomConfigID  string   `json:"room_config_id"`
	RoomType      string   `json:"room_type"`
	RentPerMonth  MoneyDTO `json:"rent_per_month"`
	TotalRooms    int      `json:"total_rooms"`
	TotalBeds     int      `json:"total_beds"`
	BookedBeds    int      `json:"booked_beds"`
	AvailableBeds int      `json:"available_beds"`
	IsAvailable   bool     `json:"is_available"`
}

type ListingAvailability struct {
	ListingID string             `json:"listing_id"`
	Month     string             `json:"month"`
	Rooms     []RoomAvailability `json:"rooms"`
}

func MapRoomAvailability(rc *rooms.RoomConfiguration, bookedBeds int) RoomAvailability {
	total := rc.TotalBeds()
	available := total - bookedBeds
	if available < 0 {
		available = 0
	}
	return RoomAvailability{
		RoomConfigID:  string(rc.ID),
		RoomType:      string(rc.Type),
		RentPerMonth:  MapMoney(rc.RentPerMonth),
		TotalRooms:    rc.TotalRooms,
		TotalBeds:     total,
		BookedBeds:    bookedBeds,
		AvailableBeds: available,
		IsAvailable:   available > 0,
	}
}
