package db

import (
	"context"

	"kondapalli/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// idempotencyTTLField carries the TTL index; it must match IdempotencyRecord.ExpiresAt.
const idempotencyTTLField = "expiresAt"

type IdempotencyRepo struct {
	coll *mongo.Collection
}

// Claim stores the placeholder record. ErrDuplicate means the key was seen before.
func (r *IdempotencyRepo) Claim(ctx context.Context, rec models.IdempotencyRecord) error {
	_, err := r.coll.InsertOne(ctx, rec)
	if isDuplicateKeyError(err) {
		return ErrDuplicate
	}
	return err
}

func (r *IdempotencyRepo) Find(ctx context.Context, key string) (*models.IdempotencyRecord, error) {
	var rec models.IdempotencyRecord
	if err := r.coll.FindOne(ctx, bson.M{"key": key}).Decode(&rec); err != nil {
		return nil, notFound(err)
	}
	return &rec, nil
}

func (r *IdempotencyRepo) SaveResponse(ctx context.Context, key string, response map[string]interface{}) error {
	_, err := r.coll.UpdateOne(ctx, bson.M{"key": key}, bson.M{"$set": bson.M{"response": response}})
	return err
}

// Release drops a claim whose request did not complete.
func (r *IdempotencyRepo) Release(ctx context.Context, key string) error {
	_, err := r.coll.DeleteOne(ctx, bson.M{"key": key})
	return err
}
