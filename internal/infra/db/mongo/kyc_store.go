package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainkyc "livonto/internal/domain/kyc"
)

type KycStore struct {
	col *mongo.Collection
}

func NewKycStore(db *mongo.Database) *KycStore {
	return &KycStore{col: db.Collection("kyc_records")}
}

func (s *KycStore) ByID(ctx context.Context, id domainkyc.KycID) (*domainkyc.Record, error) {
	var doc kycDocument
	if err := s.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainkyc.ErrNotFound
		}
		return nil, err
	}
	return doc.toRecord(), nil
}

func (s *KycStore) Latest(ctx context.Context, userID string) (*domainkyc.Record, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "submitted_at", Value: -1}})
	var doc kycDocument
	if err := s.col.FindOne(ctx, bson.M{"user_id": userID}, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainkyc.ErrNotFound
		}
		return nil, err
	}
	return doc.toRecord(), nil
}

func (s *KycStore) Save(ctx context.Context, rec *domainkyc.Record) error {
	doc := kycDocument{
		ID:          string(rec.ID),
		UserID:      rec.UserID,
		DocType:     rec.DocType,
		DocNumber:   rec.DocNumber,
		DocumentURL: rec.DocumentURL,
		SubmittedAt: rec.SubmittedAt.UnixMilli(),
	}
	opts := options.Replace().SetUpsert(true)
	_, err := s.col.ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc, opts)
	return err
}

type kycDocument struct {
	ID          string `bson:"_id"`
	UserID      string `bson:"user_id"`
	DocType     string `bson:"doc_type"`
	DocNumber   string `bson:"doc_number"`
	DocumentURL string `bson:"document_url,omitempty"`
	SubmittedAt int64  `bson:"submitted_at"`
}

func (d kycDocument) toRecord() *domainkyc.Record {
	return &domainkyc.Record{
		ID:          domainkyc.KycID(d.ID),
		UserID:      d.UserID,
		DocType:     d.DocType,
		DocNumber:   d.DocNumber,
		DocumentURL: d.DocumentURL,
		SubmittedAt: timestampToTime(d.SubmittedAt),
	}
}
