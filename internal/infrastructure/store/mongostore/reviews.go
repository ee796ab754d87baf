package mongostore

import (
	"context"
	"time"

	"marketplace-backend/internal/domain"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type ReviewRepository struct {
	collection *mongo.Collection
}

func (r *ReviewRepository) Create(ctx context.Context, rv *domain.Review) error {
	if rv.ID == "" {
		rv.ID = domain.NewID()
	}
	oid, err := toOID(rv.ID)
	if err != nil {
		return err
	}
	reviewer, err := toOID(rv.ReviewerID)
	if err != nil {
		return err
	}
	reviewee, err := toOID(rv.RevieweeID)
	if err != nil {
		return err
	}
	tx, err := toOID(rv.TransactionID)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	rv.CreatedAt, rv.UpdatedAt = now, now
	_, err = r.collection.InsertOne(ctx, reviewDoc{
		ID:           oid,
		Reviewer:     reviewer,
		Reviewee:     reviewee,
		RoleReviewed: string(rv.RoleReviewed),
		Rating:       rv.Rating,
		Comment:      rv.Comment,
		Transaction:  tx,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	return translate(err)
}

func (r *ReviewRepository) Exists(ctx context.Context, reviewerID, revieweeID, transactionID string) (bool, error) {
	filter := bson.M{}
	for field, id := range map[string]string{"reviewer": reviewerID, "reviewee": revieweeID, "transaction": transactionID} {
		oid, err := toOID(id)
		if err != nil {
			return false, err
		}
		filter[field] = oid
	}
	n, err := r.collection.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *ReviewRepository) ListForReviewee(ctx context.Context, revieweeID string, limit int) ([]domain.Review, error) {
	oid, err := toOID(revieweeID)
	if err != nil {
		return nil, err
	}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	cur, err := r.collection.Find(ctx, bson.M{"reviewee": oid}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var docs []reviewDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]domain.Review, 0, len(docs))
	for i := range docs {
		out = append(out, *docs[i].toDomain())
	}
	return out, nil
}

func (r *ReviewRepository) CountForReviewee(ctx context.Context, revieweeID string) (int64, error) {
	oid, err := toOID(revieweeID)
	if err != nil {
		return 0, err
	}
	return r.collection.CountDocuments(ctx, bson.M{"reviewee": oid})
}
