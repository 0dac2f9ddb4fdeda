package db

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CounterRepo keeps named monotonically increasing sequences.
type CounterRepo struct {
	coll *mongo.Collection
}

// Increment atomically bumps the counter and returns the new value.
// It returns ErrNotFound when the counter has not been initialised.
func (r *CounterRepo) Increment(ctx context.Context, key string) (int64, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var out struct {
		Seq int64 `bson:"seq"`
	}
	err := r.coll.FindOneAndUpdate(ctx, bson.M{"_id": key}, bson.M{"$inc": bson.M{"seq": 1}}, opts).Decode(&out)
	if err != nil {
		return 0, notFound(err)
	}
	return out.Seq, nil
}

// Init creates the counter at value unless it already exists.
func (r *CounterRepo) Init(ctx context.Context, key string, value int64) error {
	_, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": key},
		bson.M{"$setOnInsert": bson.M{"seq": value}},
		options.Update().SetUpsert(true),
	)
	if err != nil && !isDuplicateKeyError(err) {
		return err
	}
	return nil
}
