package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"livonto/internal/domain/listings"
	domainrooms "livonto/internal/domain/rooms"
	"livonto/internal/domain/shared/money"
)

type RoomRepository struct {
	col *mongo.Collection
}

func NewRoomRepository(db *mongo.Database) *RoomRepository {
	return &RoomRepository{col: db.Collection("agg_room_config")}
}

func (r *RoomRepository) ByID(ctx context.Context, id domainrooms.RoomConfigID) (*domainrooms.RoomConfiguration, error) {
	var doc roomConfigDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainrooms.ErrNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (r *RoomRepository) ByListing(ctx context.Context, id listings.ListingID) ([]*domainrooms.RoomConfiguration, error) {
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	cur, err := r.col.Find(ctx, bson.M{"listing_id": string(id)}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	result := make([]*domainrooms.RoomConfiguration, 0)
	for cur.Next(ctx) {
		var doc roomConfigDocument
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		result = append(result, doc.toAggregate())
	}
	return result, cur.Err()
}

func (r *RoomRepository) Save(ctx context.Context, rc *domainrooms.RoomConfiguration) error {
	doc := newRoomConfigDocument(rc)
	filter := bson.M{"_id": doc.ID, "version": rc.Version}
	doc.Version = rc.Version + 1
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
	rc.Version = doc.Version
	return nil
}

func (r *RoomRepository) Delete(ctx context.Context, id domainrooms.RoomConfigID) error {
	_, err := r.col.DeleteOne(ctx, bson.M{"_id": string(id)})
	return err
}

type roomConfigDocument struct {
	ID         string `bson:"_id"`
	ListingID  string `bson:"listing_id"`
	RoomType   string `bson:"room_type"`
	RentPaise  int64  `bson:"rent_paise"`
	Currency   string `bson:"currency"`
	TotalRooms int    `bson:"total_rooms"`
	CreatedAt  int64  `bson:"created_at"`
	UpdatedAt  int64  `bson:"updated_at"`
	Version    int64  `bson:"version"`
}

func newRoomConfigDocument(rc *domainrooms.RoomConfiguration) roomConfigDocument {
	return roomConfigDocument{
		ID:         string(rc.ID),
		ListingID:  string(rc.ListingID),
		RoomType:   string(rc.Type),
		RentPaise:  rc.RentPerMonth.Amount,
		Currency:   rc.RentPerMonth.Currency,
		TotalRooms: rc.TotalRooms,
		CreatedAt:  rc.CreatedAt.UnixMilli(),
		UpdatedAt:  rc.UpdatedAt.UnixMilli(),
		Version:    rc.Version,
	}
}

func (d roomConfigDocument) toAggregate() *domainrooms.RoomConfiguration {
	return &domainrooms.RoomConfiguration{
		ID:           domainrooms.RoomConfigID(d.ID),
		ListingID:    listings.ListingID(d.ListingID),
		Type:         domainrooms.RoomType(d.RoomType),
		RentPerMonth: money.Money{Amount: d.RentPaise, Currency: d.Currency},
		TotalRooms:   d.TotalRooms,
		CreatedAt:    timestampToTime(d.CreatedAt),
		UpdatedAt:    timestampToTime(d.UpdatedAt),
		Version:      d.Version,
	}
}
