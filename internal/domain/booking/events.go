package booking

import (
	"time"

	"livonto/internal/domain/listings"
	"livonto/internal/domain/rooms"
	"livonto/internal/domain/shared/money"
	"livonto/internal/domain/shared/month"
)

type BookingRequested struct {
	BookingID    BookingID
	ListingID    listings.ListingID
	RoomConfigID rooms.RoomConfigID
	UserID       string
	Month        month.Month
	Amount       money.Money
	At           time.Time
}

func (e BookingRequested) EventName() string     { return "booking.requested" }
func (e BookingRequested) AggregateID() string   { return string(e.BookingID) }
func (e BookingRequested) OccurredAt() time.Time { return e.At }

type BookingConfirmed struct {
	BookingID BookingID
	ListingID listings.ListingID
	PaymentID string
	Month     month.Month
	At        time.Time
}

func (e BookingConfirmed) EventName() string     { return "booking.confirmed" }
func (e BookingConfirmed) AggregateID() string   { return string(e.BookingID) }
func (e BookingConfirmed) OccurredAt() time.Time { return e.At }

type BookingCancelled struct {
	BookingID BookingID
	ListingID listings.ListingID
	Month     month.Month
	Reason    string
	At        time.Time
}

func (e BookingCancelled) EventName() string     { return "booking.cancelled" }
func (e BookingCancelled) AggregateID() string   { return string(e.BookingID) }
func (e BookingCancelled) OccurredAt() time.Time { return e.At }

type BookingCompleted struct {
	BookingID BookingID
	ListingID listings.ListingID
	Month     month.Month
	At        time.Time
}

func (e BookingCompleted) EventName() string     { return "booking.completed" }
func (e BookingCompleted) AggregateID() string   { return string(e.BookingID) }
func (e BookingCompleted) OccurredAt() time.Time { return e.At }
