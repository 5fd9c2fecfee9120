package sequence

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type (
	// Sequence hands out monotonically increasing int64 ids backed by a
	// counters collection, one counter document per name.
	Sequence struct {
		collection *mongo.Collection
	}
)

func NewSequence(db *mongo.Database) *Sequence {
	return &Sequence{
		collection: db.Collection("counters"),
	}
}

func (s *Sequence) Next(ctx context.Context, name string) (int64, error) {
	filter := bson.M{
		"_id": name,
	}
	update := bson.M{
		"$inc": bson.M{"value": int64(1)},
	}
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var counter struct {
		Value int64 `bson:"value"`
	}
	if err := s.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&counter); err != nil {
		return 0, err
	}

	return counter.Value, nil
}
