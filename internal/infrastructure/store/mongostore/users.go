package mongostore

import (
	"context"
	"time"

	"marketplace-backend/internal/domain"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type UserRepository struct {
	collection *mongo.Collection
}

var userRefProjection = bson.D{{Key: "username", Value: 1}, {Key: "email", Value: 1}}

func (r *UserRepository) Create(ctx context.Context, u *domain.User) error {
	if u.ID == "" {
		u.ID = domain.NewID()
	}
	oid, err := toOID(u.ID)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	u.CreatedAt, u.UpdatedAt = now, now
	doc := userDoc{
		ID:        oid,
		Username:  u.Username,
		Email:     u.Email,
		Password:  u.PasswordHash,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Location:  toLocationDoc(u.Location),
		CreatedAt: now,
		UpdatedAt: now,
	}
	_, err = r.collection.InsertOne(ctx, doc)
	return translate(err)
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	oid, err := toOID(id)
	if err != nil {
		return nil, err
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"username": username})
}

func (r *UserRepository) findOne(ctx context.Context, filter bson.M) (*domain.User, error) {
	var doc userDoc
	if err := r.collection.FindOne(ctx, filter).Decode(&doc); err != nil {
		return nil, translate(err)
	}
	return doc.toDomain(), nil
}

func (r *UserRepository) FindRefs(ctx context.Context, ids []string) ([]domain.UserRef, error) {
	oids := toOIDs(ids)
	if len(oids) == 0 {
		return nil, nil
	}
	return r.refs(ctx, bson.M{"_id": bson.M{"$in": oids}}, options.Find().SetProjection(userRefProjection))
}

func (r *UserRepository) ListExcept(ctx context.Context, id string) ([]domain.UserRef, error) {
	filter := bson.M{}
	if oid, err := toOID(id); err == nil {
		filter["_id"] = bson.M{"$ne": oid}
	}
	opts := options.Find().
		SetProjection(userRefProjection).
		SetSort(bson.D{{Key: "username", Value: 1}})
	return r.refs(ctx, filter, opts)
}

func (r *UserRepository) refs(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]domain.UserRef, error) {
	cur, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var docs []userDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]domain.UserRef, 0, len(docs))
	for _, d := range docs {
		out = append(out, domain.UserRef{ID: d.ID.Hex(), Username: d.Username, Email: d.Email})
	}
	return out, nil
}

func (r *UserRepository) UpdateProfile(ctx context.Context, id string, upd domain.ProfileUpdate) (*domain.User, error) {
	oid, err := toOID(id)
	if err != nil {
		return nil, err
	}
	set := bson.M{"updatedAt": time.Now().UTC()}
	if upd.Username != nil {
		set["username"] = *upd.Username
	}
	if upd.FirstName != nil {
		set["firstName"] = *upd.FirstName
	}
	if upd.LastName != nil {
		set["lastName"] = *upd.LastName
	}
	if upd.Location != nil {
		set["location"] = toLocationDoc(upd.Location)
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc userDoc
	if err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": oid}, bson.M{"$set": set}, opts).Decode(&doc); err != nil {
		return nil, translate(err)
	}
	return doc.toDomain(), nil
}
