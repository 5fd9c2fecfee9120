package contact

import (
	"context"
	"onion_chat/internal/model"
	"onion_chat/internal/store"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type (
	ContactRepo struct {
		contacts *mongo.Collection
		primary  *mongo.Collection
	}
)

func NewContactRepo(db *mongo.Database) *ContactRepo {
	return &ContactRepo{
		contacts: db.Collection("contacts"),
		primary:  db.Collection("primary_user"),
	}
}

// EnsureIndexes creates the unique name index contact inserts rely on.
func (r *ContactRepo) EnsureIndexes(ctx context.Context) error {
	_, err := r.contacts.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "name", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}

func (r *ContactRepo) InsertContact(ctx context.Context, contact *model.Contact) error {
	_, err := r.contacts.InsertOne(ctx, contact)
	if mongo.IsDuplicateKeyError(err) {
		return store.ErrDuplicateKey
	}
	return err
}

func (r *ContactRepo) GetContact(ctx context.Context, name string) (*model.Contact, error) {
	filter := bson.M{
		"name": name,
	}

	var contact model.Contact
	err := r.contacts.FindOne(ctx, filter).Decode(&contact)
	if err == mongo.ErrNoDocuments {
		return nil, store.ErrNotFound
	}

	if err != nil {
		return nil, err
	}

	return &contact, nil
}

func (r *ContactRepo) ListContacts(ctx context.Context) ([]*model.Contact, error) {
	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})
	cursor, err := r.contacts.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}

	var contacts []*model.Contact
	if err := cursor.All(ctx, &contacts); err != nil {
		return nil, err
	}

	return contacts, nil
}

func (r *ContactRepo) UpdateContactAddress(ctx context.Context, name, address string) error {
	filter := bson.M{
		"name": name,
	}
	update := bson.M{
		"$set": bson.M{"address": address},
	}

	res, err := r.contacts.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *ContactRepo) InsertPrimaryUser(ctx context.Context, user *model.PrimaryUser) error {
	user.ID = model.PrimaryUserID
	_, err := r.primary.InsertOne(ctx, user)
	if mongo.IsDuplicateKeyError(err) {
		return store.ErrDuplicateKey
	}
	return err
}

func (r *ContactRepo) GetPrimaryUser(ctx context.Context) (*model.PrimaryUser, error) {
	filter := bson.M{
		"_id": model.PrimaryUserID,
	}

	var user model.PrimaryUser
	err := r.primary.FindOne(ctx, filter).Decode(&user)
	if err == mongo.ErrNoDocuments {
		return nil, store.ErrNotFound
	}

	if err != nil {
		return nil, err
	}

	return &user, nil
}

func (r *ContactRepo) UpdatePrimaryUserAddress(ctx context.Context, address string) error {
	filter := bson.M{
		"_id": model.PrimaryUserID,
	}
	update := bson.M{
		"$set": bson.M{"address": address},
	}

	res, err := r.primary.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}
