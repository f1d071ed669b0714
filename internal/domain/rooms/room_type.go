package rooms

import "errors"

var ErrInvalidRoomType = errors.New("rooms: invalid room type")

// RoomType enumerates the sharing arrangements a PG offers. Each type fixes
// the number of beds a single room of that type holds.
type RoomType string

const (
	RoomTypeSingle RoomType = "single"
	RoomTypeDouble RoomType = "double-sharing"
	RoomTypeTriple RoomType = "triple-sharing"
	RoomTypeFour   RoomType = "four-sharing"
)

var bedsPerRoom = map[RoomType]int{
	RoomTypeSingle: 1,
	RoomTypeDouble: 2,
	RoomTypeTriple: 3,
	RoomTypeFour:   4,
}

// BedsPerRoom maps a room type to its fixed bed multiplier.
func BedsPerRoom(rt RoomType) (int, error) {
	beds, ok := bedsPerRoom[rt]
	if !ok {
		return 0, ErrInvalidRoomType
	}
	return beds, nil
}

// TotalBeds derives bed capacity from a room count and type.
func TotalBeds(totalRooms int, rt RoomType) (int, error) {
	beds, err := BedsPerRoom(rt)
	if err != nil {
		return 0, err
	}
	return totalRooms * beds, nil
}

// AvailableBeds subtracts booked beds from capacity, clamping at zero.
// Overbooking already present in the ledger is an upstream alarm, not
// something this calculation re-raises.
func AvailableBeds(totalRooms int, rt RoomType, bookedBeds int) (int, error) {
	total, err := TotalBeds(totalRooms, rt)
	if err != nil {
		return 0, err
	}
	free := total - bookedBeds
	if free < 0 {
		free = 0
	}
	return free, nil
}
