package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"livonto/internal/app/uow"
	domainbooking "livonto/internal/domain/booking"
	domainkyc "livonto/internal/domain/kyc"
	domainlistings "livonto/internal/domain/listings"
	domainpayment "livonto/internal/domain/payment"
	domainrooms "livonto/internal/domain/rooms"
)

// Factory wires Mongo transactions into the generic UnitOfWork interface.
type Factory struct {
	DB *mongo.Database

	ListingsRepo domainlistings.ListingRepository
	RoomsRepo    domainrooms.Repository
	Ledger       domainrooms.OccupancyReserver
	BookingRepo  domainbooking.Repository
	PaymentRepo  domainpayment.Repository
	KycRepo      domainkyc.Store
}

var ErrUnitOfWorkNotConfigured = errors.New("mongo: unit of work factory missing database")

// NewFactory builds a factory with repositories bound to the database's
// collections.
func NewFactory(db *mongo.Database) Factory {
	return Factory{
		DB:           db,
		ListingsRepo: NewListingRepository(db),
		RoomsRepo:    NewRoomRepository(db),
		Ledger:       NewOccupancyLedger(db),
		BookingRepo:  NewBookingRepository(db),
		PaymentRepo:  NewPaymentRepository(db),
		KycRepo:      NewKycStore(db),
	}
}

// Begin starts a MongoDB session/transaction.
func (f Factory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	if f.DB == nil {
		return nil, ErrUnitOfWorkNotConfigured
	}
	session, err := f.DB.Client().StartSession()
	if err != nil {
		return nil, err
	}
	txnOpts := options.Transaction().SetReadConcern(f.DB.ReadConcern()).SetWriteConcern(f.DB.WriteConcern())
	if err := session.StartTransaction(txnOpts); err != nil {
		session.EndSession(ctx)
		return nil, err
	}
	return &Unit{
		db:        f.DB,
		session:   session,
		listings:  f.ListingsRepo,
		rooms:     f.RoomsRepo,
		occupancy: f.Ledger,
		bookings:  f.BookingRepo,
		payments:  f.PaymentRepo,
		kyc:       f.KycRepo,
	}, nil
}

type Unit struct {
	db      *mongo.Database
	session mongo.Session

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
	defer u.session.EndSession(ctx)
	if err := u.session.CommitTransaction(ctx); err != nil {
		return err
	}
	return nil
}

func (u *Unit) Rollback(ctx context.Context) error {
	defer u.session.EndSession(ctx)
	return u.session.AbortTransaction(ctx)
}

// InjectContext ensures the Mongo session is available in context for
// downstream repositories.
func (u *Unit) InjectContext(ctx context.Context) context.Context {
	return mongo.NewSessionContext(ctx, u.session)
}
