package mongo

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainrooms "livonto/internal/domain/rooms"
	"livonto/internal/domain/shared/month"
)

// OccupancyLedger claims bed-slots with single-document conditional updates.
// One document exists per (room configuration, month) pair; its _id doubles
// as the uniqueness guard, so two writers racing for the last slot resolve
// through either the $lt filter or a duplicate-key error.
type OccupancyLedger struct {
	col *mongo.Collection
}

func NewOccupancyLedger(db *mongo.Database) *OccupancyLedger {
	return &OccupancyLedger{col: db.Collection("slot_occupancy")}
}

// Reserve increments the month's counter if it is still below capacity and
// fails with rooms.ErrNoCapacity otherwise.
func (l *OccupancyLedger) Reserve(ctx context.Context, id domainrooms.RoomConfigID, m month.Month, capacity int) error {
	if capacity <= 0 {
		return domainrooms.ErrNoCapacity
	}
	key := occupancyKey(id, m)
	filter := bson.M{"_id": key, "reserved": bson.M{"$lt": capacity}}
	update := bson.M{
		"$inc": bson.M{"reserved": 1},
		"$setOnInsert": bson.M{
			"room_config_id": string(id),
			"month":          m.String(),
		},
	}
	opts := options.Update().SetUpsert(true)
	res, err := l.col.UpdateOne(ctx, filter, update, opts)
	if err != nil {
		// The upsert races the filter when the document already exists at
		// capacity; the unique _id turns that into a duplicate-key error.
		if mongo.IsDuplicateKeyError(err) {
			return domainrooms.ErrNoCapacity
		}
		return err
	}
	if res.MatchedCount == 0 && res.UpsertedCount == 0 {
		return domainrooms.ErrNoCapacity
	}
	return nil
}

// Release decrements the counter, never below zero.
func (l *OccupancyLedger) Release(ctx context.Context, id domainrooms.RoomConfigID, m month.Month) error {
	filter := bson.M{"_id": occupancyKey(id, m), "reserved": bson.M{"$gt": 0}}
	update := bson.M{"$inc": bson.M{"reserved": -1}}
	_, err := l.col.UpdateOne(ctx, filter, update)
	return err
}

func occupancyKey(id domainrooms.RoomConfigID, m month.Month) string {
	return string(id) + ":" + m.String()
}
