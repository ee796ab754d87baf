package mongostore

import (
	"context"
	"time"

	"marketplace-backend/internal/domain"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type FavoriteRepository struct {
	collection *mongo.Collection
}

// Add relies on the unique (user, listing) index; a second insert yields ErrDuplicate.
func (r *FavoriteRepository) Add(ctx context.Context, f *domain.Favorite) error {
	if f.ID == "" {
		f.ID = domain.NewID()
	}
	oid, err := toOID(f.ID)
	if err != nil {
		return err
	}
	user, err := toOID(f.UserID)
	if err != nil {
		return err
	}
	listing, err := toOID(f.ListingID)
	if err != nil {
		return err
	}
	f.CreatedAt = time.Now().UTC()
	_, err = r.collection.InsertOne(ctx, favoriteDoc{ID: oid, User: user, Listing: listing, CreatedAt: f.CreatedAt})
	return translate(err)
}

func (r *FavoriteRepository) Find(ctx context.Context, userID, listingID string) (*domain.Favorite, error) {
	filter, err := pairFilter(userID, listingID)
	if err != nil {
		return nil, err
	}
	var doc favoriteDoc
	if err := r.collection.FindOne(ctx, filter).Decode(&doc); err != nil {
		return nil, translate(err)
	}
	return doc.toDomain(), nil
}

func (r *FavoriteRepository) ListForUser(ctx context.Context, userID string) ([]domain.Favorite, error) {
	oid, err := toOID(userID)
	if err != nil {
		return nil, err
	}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})
	cur, err := r.collection.Find(ctx, bson.M{"user": oid}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var docs []favoriteDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]domain.Favorite, 0, len(docs))
	for i := range docs {
		out = append(out, *docs[i].toDomain())
	}
	return out, nil
}

func (r *FavoriteRepository) Remove(ctx context.Context, userID, listingID string) error {
	filter, err := pairFilter(userID, listingID)
	if err != nil {
		return err
	}
	res, err := r.collection.DeleteOne(ctx, filter)
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func pairFilter(userID, listingID string) (bson.M, error) {
	user, err := toOID(userID)
	if err != nil {
		return nil, err
	}
	listing, err := toOID(listingID)
	if err != nil {
		return nil, err
	}
	return bson.M{"user": user, "listing": listing}, nil
}
