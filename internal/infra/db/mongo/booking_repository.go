package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainbooking "livonto/internal/domain/booking"
	"livonto/internal/domain/listings"
	domainrooms "livonto/internal/domain/rooms"
	"livonto/internal/domain/shared/money"
	"livonto/internal/domain/shared/month"
)

var ErrConcurrentUpdate = errors.New("mongo: concurrent update detected")

type BookingRepository struct {
	col *mongo.Collection
}

func NewBookingRepository(db *mongo.Database) *BookingRepository {
	return &BookingRepository{col: db.Collection("agg_booking")}
}

func (r *BookingRepository) ByID(ctx context.Context, id domainbooking.BookingID) (*domainbooking.Booking, error) {
	var doc bookingDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainbooking.ErrNotFound
		}
		return nil, err
	}
	return doc.toAggregate()
}

func (r *BookingRepository) Save(ctx context.Context, b *domainbooking.Booking) error {
	doc := newBookingDocument(b)
	filter := bson.M{"_id": doc.ID, "version": b.Version}
	doc.Version = b.Version + 1
	update := bson.M{"$set": doc}
	opts := options.Update().SetUpsert(true)
	res, err := r.col.UpdateOne(ctx, filter, update, opts)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrConcurrentUpdate
		}
		return err
	}
	if res.MatchedCount == 0 && res.UpsertedCount == 0 {
		return ErrConcurrentUpdate
	}
	b.Version = doc.Version
	return nil
}

func (r *BookingRepository) ListByUser(ctx context.Context, userID string) ([]*domainbooking.Booking, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cur, err := r.col.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	return decodeBookings(ctx, cur)
}

func (r *BookingRepository) CountActiveForMonth(ctx context.Context, id domainrooms.RoomConfigID, m month.Month) (int, error) {
	filter := bson.M{
		"room_config_id": string(id),
		"start_month":    m.String(),
		"status":         bson.M{"$in": activeStatuses()},
	}
	n, err := r.col.CountDocuments(ctx, filter)
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

func (r *BookingRepository) DueForCompletion(ctx context.Context, asOf time.Time) ([]*domainbooking.Booking, error) {
	// A month has elapsed once asOf reaches the first day of the following
	// month, so every start month strictly before the current one is due.
	cutoff := month.Of(asOf.UTC())
	filter := bson.M{
		"status":      string(domainbooking.StatusConfirmed),
		"start_month": bson.M{"$lt": cutoff.String()},
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	return decodeBookings(ctx, cur)
}

func (r *BookingRepository) ExistsForRoomConfig(ctx context.Context, id domainrooms.RoomConfigID) (bool, error) {
	err := r.col.FindOne(ctx, bson.M{"room_config_id": string(id)}).Err()
	if errors.Is(err, mongo.ErrNoDocuments) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func decodeBookings(ctx context.Context, cur *mongo.Cursor) ([]*domainbooking.Booking, error) {
	result := make([]*domainbooking.Booking, 0)
	for cur.Next(ctx) {
		var doc bookingDocument
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		agg, err := doc.toAggregate()
		if err != nil {
			return nil, err
		}
		result = append(result, agg)
	}
	return result, cur.Err()
}

func activeStatuses() []string {
	return []string{string(domainbooking.StatusPending), string(domainbooking.StatusConfirmed)}
}

type bookingDocument struct {
	ID              string `bson:"_id"`
	UserID          string `bson:"user_id"`
	ListingID       string `bson:"listing_id"`
	RoomConfigID    string `bson:"room_config_id"`
	StartMonth      string `bson:"start_month"`
	AmountPaise     int64  `bson:"amount_paise"`
	Currency        string `bson:"currency"`
	Status          string `bson:"status"`
	KycID           string `bson:"kyc_id"`
	AgreedToTerms   bool   `bson:"agreed_to_terms"`
	AgreedAt        int64  `bson:"agreed_at"`
	SpecialRequests string `bson:"special_requests,omitempty"`
	DurationMonths  int    `bson:"duration_months"`
	CreatedAt       int64  `bson:"created_at"`
	UpdatedAt       int64  `bson:"updated_at"`
	Version         int64  `bson:"version"`
}

func newBookingDocument(b *domainbooking.Booking) bookingDocument {
	return bookingDocument{
		ID:              string(b.ID),
		UserID:          b.UserID,
		ListingID:       string(b.ListingID),
		RoomConfigID:    string(b.RoomConfigID),
		StartMonth:      b.StartMonth.String(),
		AmountPaise:     b.TotalAmount.Amount,
		Currency:        b.TotalAmount.Currency,
		Status:          string(b.Status),
		KycID:           b.KycID,
		AgreedToTerms:   b.AgreedToTerms,
		AgreedAt:        b.AgreedAt.UnixMilli(),
		SpecialRequests: b.SpecialRequests,
		DurationMonths:  b.DurationMonths,
		CreatedAt:       b.CreatedAt.UnixMilli(),
		UpdatedAt:       b.UpdatedAt.UnixMilli(),
		Version:         b.Version,
	}
}

func (d bookingDocument) toAggregate() (*domainbooking.Booking, error) {
	startMonth, err := month.Parse(d.StartMonth)
	if err != nil {
		return nil, err
	}
	agg := &domainbooking.Booking{
		ID:              domainbooking.BookingID(d.ID),
		UserID:          d.UserID,
		ListingID:       listings.ListingID(d.ListingID),
		RoomConfigID:    domainrooms.RoomConfigID(d.RoomConfigID),
		StartMonth:      startMonth,
		TotalAmount:     money.Money{Amount: d.AmountPaise, Currency: d.Currency},
		Status:          domainbooking.Status(d.Status),
		KycID:           d.KycID,
		AgreedToTerms:   d.AgreedToTerms,
		AgreedAt:        timestampToTime(d.AgreedAt),
		SpecialRequests: d.SpecialRequests,
		DurationMonths:  d.DurationMonths,
		CreatedAt:       timestampToTime(d.CreatedAt),
		UpdatedAt:       timestampToTime(d.UpdatedAt),
		Version:         d.Version,
	}
	return agg, nil
}

func timestampToTime(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}
