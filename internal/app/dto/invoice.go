package dto

import (
	"fmt"
	"time"

	domainbooking "livonto/internal/domain/booking"
	domainlistings "livonto/internal/domain/listings"
)

// Invoice is the structured invoice for a paid booking. Rendering (PDF,
// email) happens outside this service; the DTO is the contract.
type Invoice struct {
	Number         string        `json:"number"`
	BookingID      string        `json:"booking_id"`
	IssuedAt       time.Time     `json:"issued_at"`
	BilledTo       string        `json:"billed_to"`
	Listing        string        `json:"listing"`
	Address        string        `json:"address"`
	Month          string        `json:"month"`
	DurationMonths int           `json:"duration_months"`
	Lines          []InvoiceLine `json:"lines"`
	Total          MoneyDTO      `json:"total"`
}

type InvoiceLine struct {
	Description string   `json:"description"`
	Amount      MoneyDTO `json:"amount"`
}

func MapInvoice(booking *domainbooking.Booking, listing *domainlistings.Listing, issuedAt time.Time) Invoice {
	inv := Invoice{
		Number:         fmt.Sprintf("INV-%s-%s", booking.StartMonth.FirstDay().Format("200601"), booking.ID),
		BookingID:      string(booking.ID),
		IssuedAt:       issuedAt.UTC(),
		BilledTo:       booking.UserID,
		Month:          booking.StartMonth.String(),
		DurationMonths: booking.DurationMonths,
		Lines: []InvoiceLine{
			{
				Description: fmt.Sprintf("Bed rent for %s", booking.StartMonth),
				Amount:      MapMoney(booking.TotalAmount),
			},
		},
		Total: MapMoney(booking.TotalAmount),
	}
	if listing != nil {
		inv.Listing = listing.Title
		inv.Address = listing.Address.Line1 + ", " + listing.Address.City
	}
	return inv
}
