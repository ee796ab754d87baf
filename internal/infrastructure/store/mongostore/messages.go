package mongostore

import (
	"context"
	"time"

	"marketplace-backend/internal/domain"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MessageRepository struct {
	collection *mongo.Collection
}

func (r *MessageRepository) Create(ctx context.Context, m *domain.Message) error {
	if m.ID == "" {
		m.ID = domain.NewID()
	}
	oid, err := toOID(m.ID)
	if err != nil {
		return err
	}
	conv, err := toOID(m.ConversationID)
	if err != nil {
		return err
	}
	sender, err := toOID(m.SenderID)
	if err != nil {
		return err
	}
	recipient, err := toOID(m.RecipientID)
	if err != nil {
		return err
	}
	m.CreatedAt = time.Now().UTC()
	doc := messageDoc{
		ID:           oid,
		Conversation: conv,
		Sender:       sender,
		Recipient:    recipient,
		Content:      m.Content,
		Read:         m.Read,
		CreatedAt:    m.CreatedAt,
	}
	if m.ListingID != "" {
		lID, err := toOID(m.ListingID)
		if err != nil {
			return err
		}
		doc.ListingID = &lID
	}
	if m.Offer != nil {
		doc.Offer = &offerDoc{
			Type:          string(m.Offer.Type),
			OriginalPrice: m.Offer.OriginalPrice,
			OfferedPrice:  m.Offer.OfferedPrice,
		}
	}
	_, err = r.collection.InsertOne(ctx, doc)
	return translate(err)
}

func (r *MessageRepository) FindByID(ctx context.Context, id string) (*domain.Message, error) {
	oid, err := toOID(id)
	if err != nil {
		return nil, err
	}
	var doc messageDoc
	if err := r.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		return nil, translate(err)
	}
	return doc.toDomain(), nil
}

func (r *MessageRepository) FindByIDs(ctx context.Context, ids []string) ([]domain.Message, error) {
	oids := toOIDs(ids)
	if len(oids) == 0 {
		return nil, nil
	}
	return r.list(ctx, bson.M{"_id": bson.M{"$in": oids}}, nil)
}

func (r *MessageRepository) ListForConversation(ctx context.Context, conversationID string) ([]domain.Message, error) {
	oid, err := toOID(conversationID)
	if err != nil {
		return nil, err
	}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}})
	return r.list(ctx, bson.M{"conversation": oid}, opts)
}

func (r *MessageRepository) list(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]domain.Message, error) {
	if opts == nil {
		opts = options.Find()
	}
	cur, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var docs []messageDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]domain.Message, 0, len(docs))
	for i := range docs {
		out = append(out, *docs[i].toDomain())
	}
	return out, nil
}

func (r *MessageRepository) MarkRead(ctx context.Context, conversationID, recipientID string) (int64, error) {
	conv, err := toOID(conversationID)
	if err != nil {
		return 0, err
	}
	recipient, err := toOID(recipientID)
	if err != nil {
		return 0, err
	}
	res, err := r.collection.UpdateMany(ctx,
		bson.M{"conversation": conv, "recipient": recipient, "read": false},
		bson.M{"$set": bson.M{"read": true}})
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

func (r *MessageRepository) Delete(ctx context.Context, id string) error {
	oid, err := toOID(id)
	if err != nil {
		return err
	}
	_, err = r.collection.DeleteOne(ctx, bson.M{"_id": oid})
	return err
}
