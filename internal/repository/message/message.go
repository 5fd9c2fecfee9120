package message

import (
	"context"
	"onion_chat/internal/model"
	"onion_chat/internal/repository/sequence"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type (
	// MessageRepo is the append-only conversation log. The id sequence also
	// serves as the append-order tiebreak for equal timestamps.
	MessageRepo struct {
		collection *mongo.Collection
		sequence   *sequence.Sequence
	}
)

func NewMessageRepo(db *mongo.Database, seq *sequence.Sequence) *MessageRepo {
	return &MessageRepo{
		collection: db.Collection("messages"),
		sequence:   seq,
	}
}

// EnsureIndexes creates the read-order index for per-conversation listing.
func (r *MessageRepo) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "conversationName", Value: 1},
			{Key: "timestamp", Value: 1},
			{Key: "seq", Value: 1},
		},
	})
	return err
}

func (r *MessageRepo) AppendMessage(ctx context.Context, message *model.Message) error {
	id, err := r.sequence.Next(ctx, "messages")
	if err != nil {
		return err
	}

	message.ID = id
	message.Seq = id

	_, err = r.collection.InsertOne(ctx, message)
	return err
}

func (r *MessageRepo) ListMessages(ctx context.Context, conversationName string) ([]*model.Message, error) {
	filter := bson.M{
		"conversationName": conversationName,
	}
	opts := options.Find().SetSort(bson.D{
		{Key: "timestamp", Value: 1},
		{Key: "seq", Value: 1},
	})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}

	var messages []*model.Message
	if err := cursor.All(ctx, &messages); err != nil {
		return nil, err
	}

	return messages, nil
}
