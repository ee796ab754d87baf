package mongostore

import (
	"context"
	"errors"
	"regexp"
	"time"

	"marketplace-backend/internal/domain"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type ListingRepository struct {
	collection *mongo.Collection
}

func (r *ListingRepository) Create(ctx context.Context, l *domain.Listing) error {
	if l.ID == "" {
		l.ID = domain.NewID()
	}
	oid, err := toOID(l.ID)
	if err != nil {
		return err
	}
	owner, err := toOID(l.CreatedBy)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	l.CreatedAt, l.UpdatedAt = now, now
	if l.Images == nil {
		l.Images = []domain.Image{}
	}
	doc := listingDoc{
		ID:          oid,
		Title:       l.Title,
		Description: l.Description,
		Price:       l.Price,
		Category:    l.Category,
		Condition:   l.Condition,
		Images:      toImageDocs(l.Images),
		Location:    toLocationDoc(l.Location),
		CreatedBy:   owner,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	_, err = r.collection.InsertOne(ctx, doc)
	return translate(err)
}

func (r *ListingRepository) FindByID(ctx context.Context, id string) (*domain.Listing, error) {
	oid, err := toOID(id)
	if err != nil {
		return nil, err
	}
	var doc listingDoc
	if err := r.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		return nil, translate(err)
	}
	return doc.toDomain(), nil
}

func (r *ListingRepository) FindByIDs(ctx context.Context, ids []string) ([]domain.Listing, error) {
	oids := toOIDs(ids)
	if len(oids) == 0 {
		return nil, nil
	}
	cur, err := r.collection.Find(ctx, bson.M{"_id": bson.M{"$in": oids}})
	if err != nil {
		return nil, err
	}
	return decodeListings(ctx, cur)
}

// Find runs a filtered query. With f.Near it becomes a $geoNear aggregation,
// which must be the first stage and only sees listings with coordinates.
func (r *ListingRepository) Find(ctx context.Context, f domain.ListingFilter) ([]domain.Listing, error) {
	filter, err := listingQuery(f)
	if err != nil {
		return nil, err
	}

	if len(f.Near) == 2 {
		pipeline := mongo.Pipeline{
			{{Key: "$geoNear", Value: bson.D{
				{Key: "near", Value: bson.D{
					{Key: "type", Value: "Point"},
					{Key: "coordinates", Value: bson.A{f.Near[0], f.Near[1]}},
				}},
				{Key: "distanceField", Value: "distance"},
				{Key: "key", Value: "location.coordinates"},
				{Key: "spherical", Value: true},
				{Key: "query", Value: filter},
			}}},
		}
		if f.Sort != domain.SortDistance {
			pipeline = append(pipeline, bson.D{{Key: "$sort", Value: listingSort(f.Sort)}})
		}
		if f.Limit > 0 {
			pipeline = append(pipeline, bson.D{{Key: "$limit", Value: f.Limit}})
		}
		cur, err := r.collection.Aggregate(ctx, pipeline)
		if err != nil {
			return nil, err
		}
		return decodeListings(ctx, cur)
	}

	opts := options.Find().SetSort(listingSort(f.Sort))
	if f.Limit > 0 {
		opts.SetLimit(int64(f.Limit))
	}
	cur, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	return decodeListings(ctx, cur)
}

func listingQuery(f domain.ListingFilter) (bson.M, error) {
	q := bson.M{}
	if f.Sold != nil {
		q["sold"] = *f.Sold
	}
	if f.Query != "" {
		pattern := primitive.Regex{Pattern: regexp.QuoteMeta(f.Query), Options: "i"}
		q["$or"] = bson.A{
			bson.M{"title": pattern},
			bson.M{"description": pattern},
		}
	}
	if f.Category != "" {
		q["category"] = f.Category
	}
	if f.Condition != "" {
		q["condition"] = f.Condition
	}
	if f.MinPrice != nil || f.MaxPrice != nil {
		price := bson.M{}
		if f.MinPrice != nil {
			price["$gte"] = *f.MinPrice
		}
		if f.MaxPrice != nil {
			price["$lte"] = *f.MaxPrice
		}
		q["price"] = price
	}
	if f.CreatedBy != "" {
		oid, err := toOID(f.CreatedBy)
		if err != nil {
			return nil, err
		}
		q["createdBy"] = oid
	}
	if f.BuyerID != "" {
		oid, err := toOID(f.BuyerID)
		if err != nil {
			return nil, err
		}
		q["buyerId"] = oid
	}
	return q, nil
}

func listingSort(s domain.ListingSort) bson.D {
	switch s {
	case domain.SortPriceAsc:
		return bson.D{{Key: "price", Value: 1}, {Key: "createdAt", Value: -1}}
	case domain.SortPriceDesc:
		return bson.D{{Key: "price", Value: -1}, {Key: "createdAt", Value: -1}}
	}
	return bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}
}

func decodeListings(ctx context.Context, cur *mongo.Cursor) ([]domain.Listing, error) {
	defer cur.Close(ctx)
	var docs []listingDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]domain.Listing, 0, len(docs))
	for i := range docs {
		out = append(out, *docs[i].toDomain())
	}
	return out, nil
}

func (r *ListingRepository) Update(ctx context.Context, id string, ch domain.ListingChanges) (*domain.Listing, error) {
	oid, err := toOID(id)
	if err != nil {
		return nil, err
	}
	set := bson.M{"updatedAt": time.Now().UTC()}
	if ch.Title != nil {
		set["title"] = *ch.Title
	}
	if ch.Description != nil {
		set["description"] = *ch.Description
	}
	if ch.Price != nil {
		set["price"] = *ch.Price
	}
	if ch.Category != nil {
		set["category"] = *ch.Category
	}
	if ch.Condition != nil {
		set["condition"] = *ch.Condition
	}
	if ch.Location != nil {
		set["location"] = toLocationDoc(ch.Location)
	}
	if ch.Images != nil {
		set["images"] = toImageDocs(ch.Images)
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc listingDoc
	if err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": oid}, bson.M{"$set": set}, opts).Decode(&doc); err != nil {
		return nil, translate(err)
	}
	return doc.toDomain(), nil
}

func (r *ListingRepository) Delete(ctx context.Context, id string) error {
	oid, err := toOID(id)
	if err != nil {
		return err
	}
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *ListingRepository) MarkSold(ctx context.Context, id, buyerID string, external bool) (*domain.Listing, error) {
	oid, err := toOID(id)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	set := bson.M{
		"sold":           true,
		"soldExternally": external,
		"soldAt":         now,
		"updatedAt":      now,
	}
	if !external {
		buyer, err := toOID(buyerID)
		if err != nil {
			return nil, err
		}
		set["buyerId"] = buyer
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc listingDoc
	err = r.collection.FindOneAndUpdate(ctx, bson.M{"_id": oid, "sold": false}, bson.M{"$set": set}, opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		n, cerr := r.collection.CountDocuments(ctx, bson.M{"_id": oid})
		if cerr != nil {
			return nil, cerr
		}
		if n == 0 {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrConflict
	}
	if err != nil {
		return nil, err
	}
	return doc.toDomain(), nil
}
