package outbox

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	appoutbox "livonto/internal/app/outbox"
)

const (
	statusPending = "pending"
	statusSent    = "sent"
)

// EventDocument is a staged event awaiting publication.
type EventDocument struct {
	ID          string            `bson:"_id"`
	Name        string            `bson:"name"`
	Aggregate   string            `bson:"aggregate"`
	Payload     []byte            `bson:"payload"`
	Headers     map[string]string `bson:"headers,omitempty"`
	OccurredAt  time.Time         `bson:"occurred_at"`
	Status      string            `bson:"status"`
	Attempts    int               `bson:"attempts"`
	NextRetryAt time.Time         `bson:"next_retry_at"`
	LastError   string            `bson:"last_error,omitempty"`
	ClaimedBy   string            `bson:"claimed_by,omitempty"`
	ClaimedAt   time.Time         `bson:"claimed_at,omitempty"`
}

// Store persists outbox events in Mongo and leases them to workers.
type Store struct {
	col *mongo.Collection
}

func NewStore(db *mongo.Database) *Store {
	return &Store{col: db.Collection("outbox_events")}
}

// Append stages records for publication.
func (s *Store) Append(ctx context.Context, records []appoutbox.EventRecord) error {
	if len(records) == 0 {
		return nil
	}
	docs := make([]any, 0, len(records))
	now := time.Now().UTC()
	for _, record := range records {
		docs = append(docs, EventDocument{
			ID:          record.ID,
			Name:        record.Name,
			Aggregate:   record.Aggregate,
			Payload:     record.Payload,
			Headers:     record.Headers,
			OccurredAt:  record.OccurredAt,
			Status:      statusPending,
			NextRetryAt: now,
		})
	}
	_, err := s.col.InsertMany(ctx, docs)
	return err
}

// Claim leases the oldest due pending event to the worker, or returns nil
// when the queue is drained.
func (s *Store) Claim(ctx context.Context, workerID string) (*EventDocument, error) {
	now := time.Now().UTC()
	filter := bson.M{
		"status":        statusPending,
		"next_retry_at": bson.M{"$lte": now},
	}
	update := bson.M{"$set": bson.M{
		"claimed_by": workerID,
		"claimed_at": now,
	}}
	opts := options.FindOneAndUpdate().
		SetSort(bson.D{{Key: "occurred_at", Value: 1}}).
		SetReturnDocument(options.After)
	var doc EventDocument
	err := s.col.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

func (s *Store) MarkSent(ctx context.Context, id string) error {
	_, err := s.col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"status": statusSent}})
	return err
}

func (s *Store) MarkFailed(ctx context.Context, id string, nextRetry time.Time, reason string) error {
	update := bson.M{
		"$set": bson.M{
			"next_retry_at": nextRetry.UTC(),
			"last_error":    reason,
			"claimed_by":    "",
		},
		"$inc": bson.M{"attempts": 1},
	}
	_, err := s.col.UpdateOne(ctx, bson.M{"_id": id}, update)
	return err
}
