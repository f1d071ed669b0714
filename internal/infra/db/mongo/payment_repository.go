package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainbooking "livonto/internal/domain/booking"
	domainpayment "livonto/internal/domain/payment"
	"livonto/internal/domain/shared/money"
)

type PaymentRepository struct {
	col *mongo.Collection
}

func NewPaymentRepository(db *mongo.Database) *PaymentRepository {
	return &PaymentRepository{col: db.Collection("agg_payment")}
}

func (r *PaymentRepository) ByID(ctx context.Context, id domainpayment.PaymentID) (*domainpayment.Payment, error) {
	var doc paymentDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainpayment.ErrNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (r *PaymentRepository) LatestByBooking(ctx context.Context, id domainbooking.BookingID) (*domainpayment.Payment, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "created_at", Value: -1}})
	var doc paymentDocument
	if err := r.col.FindOne(ctx, bson.M{"booking_id": string(id)}, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainpayment.ErrNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (r *PaymentRepository) Save(ctx context.Context, p *domainpayment.Payment) error {
	doc := newPaymentDocument(p)
	filter := bson.M{"_id": doc.ID, "version": p.Version}
	doc.Version = p.Version + 1
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
	p.Version = doc.Version
	return nil
}

type paymentDocument struct {
	ID                string `bson:"_id"`
	BookingID         string `bson:"booking_id"`
	AmountPaise       int64  `bson:"amount_paise"`
	Currency          string `bson:"currency"`
	Provider          string `bson:"provider"`
	ProviderOrderID   string `bson:"provider_order_id"`
	ProviderPaymentID string `bson:"provider_payment_id,omitempty"`
	Status            string `bson:"status"`
	CreatedAt         int64  `bson:"created_at"`
	UpdatedAt         int64  `bson:"updated_at"`
	Version           int64  `bson:"version"`
}

func newPaymentDocument(p *domainpayment.Payment) paymentDocument {
	return paymentDocument{
		ID:                string(p.ID),
		BookingID:         string(p.BookingID),
		AmountPaise:       p.Amount.Amount,
		Currency:          p.Amount.Currency,
		Provider:          p.Provider,
		ProviderOrderID:   p.ProviderOrderID,
		ProviderPaymentID: p.ProviderPaymentID,
		Status:            string(p.Status),
		CreatedAt:         p.CreatedAt.UnixMilli(),
		UpdatedAt:         p.UpdatedAt.UnixMilli(),
		Version:           p.Version,
	}
}

func (d paymentDocument) toAggregate() *domainpayment.Payment {
	return &domainpayment.Payment{
		ID:                domainpayment.PaymentID(d.ID),
		BookingID:         domainbooking.BookingID(d.BookingID),
		Amount:            money.Money{Amount: d.AmountPaise, Currency: d.Currency},
		Provider:          d.Provider,
		ProviderOrderID:   d.ProviderOrderID,
		ProviderPaymentID: d.ProviderPaymentID,
		Status:            domainpayment.Status(d.Status),
		CreatedAt:         timestampToTime(d.CreatedAt),
		UpdatedAt:         timestampToTime(d.UpdatedAt),
		Version:           d.Version,
	}
}
