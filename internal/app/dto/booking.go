package dto

import (
	"time"

	domainbooking "livonto/internal/domain/booking"
	domainlistings "livonto/internal/domain/listings"
)

type BookingListingSnapshot struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	AddressLine1 string `json:"address_line1"`
	City         string `json:"city"`
}

type TenantBookingSummary struct {
	ID              string                 `json:"id"`
	Listing         BookingListingSnapshot `json:"listing"`
	RoomConfigID    string                 `json:"room_config_id"`
	Month           string                 `json:"month"`
	Status          string                 `json:"status"`
	Total           MoneyDTO               `json:"total"`
	SpecialRequests string                 `json:"special_requests,omitempty"`
	CreatedAt       time.Time              `json:"created_at"`
}

type TenantBookingCollection struct {
	Items []TenantBookingSummary `json:"items"`
}

func MapTenantBookingSummary(booking *domainbooking.Booking, listing *domainlistings.Listing) TenantBookingSummary {
	snapshot := BookingListingSnapshot{
		ID: string(booking.ListingID),
	}
	if listing != nil {
		snapshot.Title = listing.Title
		snapshot.AddressLine1 = listing.Address.Line1
		snapshot.City = listing.Address.City
	}
	return TenantBookingSummary{
		ID:              string(booking.ID),
		Listing:         snapshot,
		RoomConfigID:    string(booking.RoomConfigID),
		Month:           booking.StartMonth.String(),
		Status:          string(booking.Status),
		Total:           MapMoney(booking.TotalAmount),
		SpecialRequests: booking.SpecialRequests,
		CreatedAt:       booking.CreatedAt,
	}
}
