package mongostore

import (
	"context"
	"time"

	"marketplace-backend/internal/domain"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type ConversationRepository struct {
	collection *mongo.Collection
}

// FindOrCreate upserts on the participant/listing key. Two concurrent first
// messages race on the unique key index; the loser reads the winner's document.
func (r *ConversationRepository) FindOrCreate(ctx context.Context, a, b, listingID string) (*domain.Conversation, error) {
	aID, err := toOID(a)
	if err != nil {
		return nil, err
	}
	bID, err := toOID(b)
	if err != nil {
		return nil, err
	}
	lID, err := toOID(listingID)
	if err != nil {
		return nil, err
	}
	key := domain.ConversationKey(a, b, listingID)
	now := time.Now().UTC()
	update := bson.M{"$setOnInsert": bson.M{
		"_id":          primitive.NewObjectID(),
		"participants": bson.A{aID, bID},
		"listingId":    lID,
		"createdAt":    now,
		"updatedAt":    now,
	}}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var doc conversationDoc
	err = r.collection.FindOneAndUpdate(ctx, bson.M{"key": key}, update, opts).Decode(&doc)
	if mongo.IsDuplicateKeyError(err) {
		err = r.collection.FindOne(ctx, bson.M{"key": key}).Decode(&doc)
	}
	if err != nil {
		return nil, translate(err)
	}
	return doc.toDomain(), nil
}

func (r *ConversationRepository) FindByID(ctx context.Context, id string) (*domain.Conversation, error) {
	oid, err := toOID(id)
	if err != nil {
		return nil, err
	}
	var doc conversationDoc
	if err := r.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		return nil, translate(err)
	}
	return doc.toDomain(), nil
}

func (r *ConversationRepository) ListForUser(ctx context.Context, userID string) ([]domain.Conversation, error) {
	oid, err := toOID(userID)
	if err != nil {
		return nil, err
	}
	opts := options.Find().SetSort(bson.D{{Key: "updatedAt", Value: -1}})
	return r.list(ctx, bson.M{"participants": oid}, opts)
}

func (r *ConversationRepository) ListForListing(ctx context.Context, listingID string) ([]domain.Conversation, error) {
	oid, err := toOID(listingID)
	if err != nil {
		return nil, err
	}
	return r.list(ctx, bson.M{"listingId": oid}, options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}))
}

func (r *ConversationRepository) list(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]domain.Conversation, error) {
	cur, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var docs []conversationDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]domain.Conversation, 0, len(docs))
	for i := range docs {
		out = append(out, *docs[i].toDomain())
	}
	return out, nil
}

func (r *ConversationRepository) Touch(ctx context.Context, id, lastMessageID string) error {
	oid, err := toOID(id)
	if err != nil {
		return err
	}
	msgID, err := toOID(lastMessageID)
	if err != nil {
		return err
	}
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": bson.M{
		"lastMessage": msgID,
		"updatedAt":   time.Now().UTC(),
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *ConversationRepository) SetOffer(ctx context.Context, id, lastMessageID string, offer domain.OfferState, expectMessageID string) error {
	oid, err := toOID(id)
	if err != nil {
		return err
	}
	msgID, err := toOID(lastMessageID)
	if err != nil {
		return err
	}
	state, err := toOfferStateDoc(offer)
	if err != nil {
		return err
	}
	filter := bson.M{"_id": oid}
	if expectMessageID != "" {
		expected, err := toOID(expectMessageID)
		if err != nil {
			return err
		}
		filter["offer.messageId"] = expected
	}
	res, err := r.collection.UpdateOne(ctx, filter, bson.M{"$set": bson.M{
		"offer":       state,
		"lastMessage": msgID,
		"updatedAt":   time.Now().UTC(),
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		if expectMessageID != "" {
			return domain.ErrConflict
		}
		return domain.ErrNotFound
	}
	return nil
}
