package uow

import (
	"context"

	domainbooking "livonto/internal/domain/booking"
	domainkyc "livonto/internal/domain/kyc"
	domainlistings "livonto/internal/domain/listings"
	domainpayment "livonto/internal/domain/payment"
	domainrooms "livonto/internal/domain/rooms"
)

// UnitOfWork coordinates repositories inside a transaction boundary.
type UnitOfWork interface {
	Listings() domainlistings.ListingRepository
	Rooms() domainrooms.Repository
	Occupancy() domainrooms.OccupancyReserver
	Bookings() domainbooking.Repository
	Payments() domainpayment.Repository
	Kyc() domainkyc.Store

	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// UoWFactory starts unit of work instances.
type UoWFactory interface {
	Begin(ctx context.Context, opts TxOptions) (UnitOfWork, error)
}

// TxOptions configure transaction boundaries.
type TxOptions struct {
	ReadOnly bool
}
