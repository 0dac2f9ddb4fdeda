package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	ErrNotFound  = errors.New("document not found")
	ErrDuplicate = errors.New("duplicate key")
)

// Store owns the database handle and hands out one repository per record kind.
type Store struct {
	Client *mongo.Client
	DB     *mongo.Database

	Products    *ProductRepo
	Orders      *OrderRepo
	Users       *UserRepo
	Visits      *VisitRepo
	Counters    *CounterRepo
	Idempotency *IdempotencyRepo
}

// Connect dials MongoDB and verifies the connection.
func Connect(ctx context.Context, uri, database string) (*Store, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return New(client.Database(database)), nil
}

func New(database *mongo.Database) *Store {
	return &Store{
		Client:      database.Client(),
		DB:          database,
		Products:    &ProductRepo{coll: database.Collection("products")},
		Orders:      &OrderRepo{coll: database.Collection("orders")},
		Users:       &UserRepo{coll: database.Collection("users")},
		Visits:      &VisitRepo{coll: database.Collection("workshopvisits")},
		Counters:    &CounterRepo{coll: database.Collection("counters")},
		Idempotency: &IdempotencyRepo{coll: database.Collection("idempotency")},
	}
}

func (s *Store) Close(ctx context.Context) error {
	return s.Client.Disconnect(ctx)
}

// EnsureIndexes creates the indexes every repository relies on.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	specs := map[*mongo.Collection][]mongo.IndexModel{
		s.Orders.coll: {
			{Keys: bson.D{{Key: "orderNumber", Value: 1}}, Options: options.Index().SetUnique(true).SetName("unique_order_number")},
			{Keys: bson.D{{Key: "customer.email", Value: 1}}},
			{Keys: bson.D{{Key: "status", Value: 1}, {Key: "createdAt", Value: -1}}},
		},
		s.Products.coll: {
			{Keys: bson.D{{Key: "title", Value: "text"}, {Key: "description", Value: "text"}, {Key: "materials", Value: "text"}}},
			{Keys: bson.D{{Key: "category", Value: 1}}},
		},
		s.Users.coll: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true).SetName("unique_email")},
		},
		s.Visits.coll: {
			{Keys: bson.D{{Key: "preferredDate", Value: 1}, {Key: "preferredTime", Value: 1}}},
			{Keys: bson.D{{Key: "email", Value: 1}}},
		},
		s.Idempotency.coll: {
			{Keys: bson.D{{Key: "key", Value: 1}}, Options: options.Index().SetUnique(true).SetName("unique_key")},
			{Keys: bson.D{{Key: idempotencyTTLField, Value: 1}}, Options: options.Index().SetExpireAfterSeconds(0).SetName("ttl_expiresAt")},
		},
	}
	for coll, idx := range specs {
		if _, err := coll.Indexes().CreateMany(ctx, idx); err != nil {
			return fmt.Errorf("create indexes on %s: %w", coll.Name(), err)
		}
	}
	return nil
}

// helper to detect duplicate key errors from Mongo writes
func isDuplicateKeyError(err error) bool {
	return mongo.IsDuplicateKeyError(err)
}

func notFound(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	return err
}

// between matches field in [from, to); zero bounds are open.
func between(field string, from, to time.Time) bson.M {
	rng := bson.M{}
	if !from.IsZero() {
		rng["$gte"] = from
	}
	if !to.IsZero() {
		rng["$lt"] = to
	}
	if len(rng) == 0 {
		return bson.M{}
	}
	return bson.M{field: rng}
}

type groupCount struct {
	ID    string `bson:"_id"`
	Count int64  `bson:"count"`
}

// countBy groups the matching documents by field.
func countBy(ctx context.Context, coll *mongo.Collection, field string, match bson.M) (map[string]int64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$group", Value: bson.M{"_id": "$" + field, "count": bson.M{"$sum": 1}}}},
	}
	cursor, err := coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var rows []groupCount
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(rows))
	for _, r := range rows {
		out[r.ID] = r.Count
	}
	return out, nil
}
