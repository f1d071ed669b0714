package me

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"livonto/internal/app/dto"
	handlersupport "livonto/internal/app/handlers/support"
	"livonto/internal/app/queries"
	"livonto/internal/app/uow"
	domainlistings "livonto/internal/domain/listings"
)

const listTenantBookingsKey = "me.bookings.list"

type ListTenantBookingsQuery struct {
	UserID string
}

func (q ListTenantBookingsQuery) Key() string { return listTenantBookingsKey }

type ListTenantBookingsHandler struct {
	UoWFactory uow.UoWFactory
	Logger     *slog.Logger
}

func (h *ListTenantBookingsHandler) Handle(ctx context.Context, q ListTenantBookingsQuery) (dto.TenantBookingCollection, error) {
	userID := strings.TrimSpace(q.UserID)
	if userID == "" {
		return dto.TenantBookingCollection{}, errors.New("user id is required")
	}
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.TenantBookingCollection{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	bookings, err := unit.Bookings().ListByUser(execCtx, userID)
	if err != nil {
		return dto.TenantBookingCollection{}, err
	}

	listingCache := make(map[domainlistings.ListingID]*domainlistings.Listing)
	items := make([]dto.TenantBookingSummary, 0, len(bookings))
	for _, booking := range bookings {
		listing, err := loadListing(execCtx, unit.Listings(), booking.ListingID, listingCache)
		if err != nil && h.Logger != nil {
			h.Logger.Warn("listing snapshot missing for booking", "booking_id", booking.ID, "listing_id", booking.ListingID, "error", err)
		}
		items = append(items, dto.MapTenantBookingSummary(booking, listing))
	}

	if h.Logger != nil {
		h.Logger.Debug("tenant bookings listed", "user_id", userID, "count", len(items))
	}
	return dto.TenantBookingCollection{Items: items}, nil
}

func loadListing(
	ctx context.Context,
	repo domainlistings.ListingRepository,
	id domainlistings.ListingID,
	cache map[domainlistings.ListingID]*domainlistings.Listing,
) (*domainlistings.Listing, error) {
	if listing, ok := cache[id]; ok {
		return listing, nil
	}
	listing, err := repo.ByID(ctx, id)
	if err != nil {
		return nil, err
	}
	cache[id] = listing
	return listing, nil
}

var _ queries.Handler[ListTenantBookingsQuery, dto.TenantBookingCollection] = (*ListTenantBookingsHandler)(nil)
