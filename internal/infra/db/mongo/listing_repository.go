package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"livonto/internal/domain/listings"
)

type ListingRepository struct {
	col *mongo.Collection
}

func NewListingRepository(db *mongo.Database) *ListingRepository {
	return &ListingRepository{col: db.Collection("agg_listing")}
}

func (r *ListingRepository) ByID(ctx context.Context, id listings.ListingID) (*listings.Listing, error) {
	var doc listingDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, listings.ErrNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (r *ListingRepository) Save(ctx context.Context, listing *listings.Listing) error {
	doc := newListingDocument(listing)
	filter := bson.M{"_id": doc.ID, "version": listing.Version}
	doc.Version = listing.Version + 1
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
	listing.Version = doc.Version
	return nil
}

func (r *ListingRepository) ByOwner(ctx context.Context, owner listings.OwnerID) ([]*listings.Listing, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cur, err := r.col.Find(ctx, bson.M{"owner_id": string(owner)}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	result := make([]*listings.Listing, 0)
	for cur.Next(ctx) {
		var doc listingDocument
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		result = append(result, doc.toAggregate())
	}
	return result, cur.Err()
}

type listingDocument struct {
	ID          string          `bson:"_id"`
	OwnerID     string          `bson:"owner_id"`
	Title       string          `bson:"title"`
	Description string          `bson:"description,omitempty"`
	Address     addressDocument `bson:"address"`
	Amenities   []string        `bson:"amenities,omitempty"`
	GenderPref  string          `bson:"gender_pref,omitempty"`
	State       string          `bson:"state"`
	Photos      []string        `bson:"photos,omitempty"`
	CreatedAt   int64           `bson:"created_at"`
	UpdatedAt   int64           `bson:"updated_at"`
	Version     int64           `bson:"version"`
}

type addressDocument struct {
	Line1   string `bson:"line1"`
	Line2   string `bson:"line2,omitempty"`
	City    string `bson:"city"`
	State   string `bson:"state,omitempty"`
	Pincode string `bson:"pincode,omitempty"`
}

func newListingDocument(l *listings.Listing) listingDocument {
	return listingDocument{
		ID:          string(l.ID),
		OwnerID:     string(l.Owner),
		Title:       l.Title,
		Description: l.Description,
		Address: addressDocument{
			Line1:   l.Address.Line1,
			Line2:   l.Address.Line2,
			City:    l.Address.City,
			State:   l.Address.State,
			Pincode: l.Address.Pincode,
		},
		Amenities:  l.Amenities,
		GenderPref: l.GenderPref,
		State:      string(l.State),
		Photos:     l.Photos,
		CreatedAt:  l.CreatedAt.UnixMilli(),
		UpdatedAt:  l.UpdatedAt.UnixMilli(),
		Version:    l.Version,
	}
}

func (d listingDocument) toAggregate() *listings.Listing {
	return &listings.Listing{
		ID:          listings.ListingID(d.ID),
		Owner:       listings.OwnerID(d.OwnerID),
		Title:       d.Title,
		Description: d.Description,
		Address: listings.Address{
			Line1:   d.Address.Line1,
			Line2:   d.Address.Line2,
			City:    d.Address.City,
			State:   d.Address.State,
			Pincode: d.Address.Pincode,
		},
		Amenities:  d.Amenities,
		GenderPref: d.GenderPref,
		State:      listings.ListingState(d.State),
		Photos:     d.Photos,
		CreatedAt:  timestampToTime(d.CreatedAt),
		UpdatedAt:  timestampToTime(d.UpdatedAt),
		Version:    d.Version,
	}
}
