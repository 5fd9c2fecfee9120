package conversation

import (
	"context"
	"onion_chat/internal/model"
	"onion_chat/internal/repository/sequence"
	"onion_chat/internal/store"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type (
	ConversationRepo struct {
		collection *mongo.Collection
		sequence   *sequence.Sequence
	}
)

func NewConversationRepo(db *mongo.Database, seq *sequence.Sequence) *ConversationRepo {
	return &ConversationRepo{
		collection: db.Collection("conversations"),
		sequence:   seq,
	}
}

// EnsureIndexes creates the unique conversation-name index the single-user
// model relies on.
func (r *ConversationRepo) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "conversationName", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}

func (r *ConversationRepo) InsertConversation(ctx context.Context, contactName, conversationName string) (*model.Conversation, error) {
	id, err := r.sequence.Next(ctx, "conversations")
	if err != nil {
		return nil, err
	}

	convo := &model.Conversation{
		ID:               id,
		ContactName:      contactName,
		ConversationName: conversationName,
	}

	_, err = r.collection.InsertOne(ctx, convo)
	if mongo.IsDuplicateKeyError(err) {
		return nil, store.ErrDuplicateKey
	}
	if err != nil {
		return nil, err
	}

	return convo, nil
}

func (r *ConversationRepo) GetConversation(ctx context.Context, conversationName string) (*model.Conversation, error) {
	filter := bson.M{
		"conversationName": conversationName,
	}

	var convo model.Conversation
	err := r.collection.FindOne(ctx, filter).Decode(&convo)
	if err == mongo.ErrNoDocuments {
		return nil, store.ErrNotFound
	}

	if err != nil {
		return nil, err
	}

	return &convo, nil
}

func (r *ConversationRepo) ListConversations(ctx context.Context) ([]*model.Conversation, error) {
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}

	var convos []*model.Conversation
	if err := cursor.All(ctx, &convos); err != nil {
		return nil, err
	}

	return convos, nil
}
