package memory

import (
	"context"
	"errors"

	"livonto/internal/app/uow"
	domainbooking "livonto/internal/domain/booking"
	domainkyc "livonto/internal/domain/kyc"
	domainlistings "livonto/internal/domain/listings"
	domainpayment "livonto/internal/domain/payment"
	domainrooms "livonto/internal/domain/rooms"
)

// Factory wires in-memory repositories into a unit-of-work boundary.
type Factory struct {
	ListingsRepo domainlistings.ListingRepository
	RoomsRepo    domainrooms.Repository
	Ledger       domainrooms.OccupancyReserver
	BookingRepo  domainbooking.Repository
	PaymentRepo  domainpayment.Repository
	KycRepo      domainkyc.Store
}

// NewFactory builds a factory backed by fresh in-memory stores.
func NewFactory() Factory {
	return Factory{
		ListingsRepo: NewListingRepository(),
		RoomsRepo:    NewRoomRepository(),
		Ledger:       NewOccupancyLedger(),
		BookingRepo:  NewBookingRepository(),
		PaymentRepo:  NewPaymentRepository(),
		KycRepo:      NewKycStore(),
	}
}

// ErrFactoryMisconfigured indicates missing repositories.
var ErrFactoryMisconfigured = errors.New("memory: unit of work factory misconfigured")

// Begin starts a lightweight transaction boundary. No isolation is provided
// but the abstraction matches the application ports; the occupancy ledger is
// the serialization point that matters for concurrent bookings.
func (f Factory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	if f.ListingsRepo == nil || f.RoomsRepo == nil || f.Ledger == nil ||
		f.BookingRepo == nil || f.PaymentRepo == nil || f.KycRepo == nil {
		return nil, ErrFactoryMisconfigured
	}
	return &Unit{
		listings:  f.ListingsRepo,
		rooms:     f.RoomsRepo,
		occupancy: f.Ledger,
		bookings:  f.BookingRepo,
		payments:  f.PaymentRepo,
		kyc:       f.KycRepo,
	}, nil
}

// Unit is a lightweight uow.UnitOfWork backed by in-memory stores.
type Unit struct {
	listings  domainlistings.ListingRepository
	rooms     domainrooms.Repository
	occupancy domainrooms.OccupancyReserver
	bookings  domainbooking.Repository
	payments  domainpayment.Repository
	kyc       domainkyc.Store
}

func (u *Unit) Listings() domainlistings.ListingRepository {
	return u.listings
}

func (u *Unit) Rooms() domainrooms.Repository {
	return u.rooms
}

func (u *Unit) Occupancy() domainrooms.OccupancyReserver {
	return u.occupancy
}

func (u *Unit) Bookings() domainbooking.Repository {
	return u.bookings
}

func (u *Unit) Payments() domainpayment.Repository {
	return u.payments
}

func (u *Unit) Kyc() domainkyc.Store {
	return u.kyc
}

func (u *Unit) Commit(ctx context.Context) error {
	return nil
}

func (u *Unit) Rollback(ctx context.Context) error {
	return nil
}
