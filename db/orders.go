package db

import (
	"context"
	"time"

	"kondapalli/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type OrderRepo struct {
	coll *mongo.Collection
}

// Insert stores a new order. A clash on orderNumber returns ErrDuplicate.
func (r *OrderRepo) Insert(ctx context.Context, o *models.Order) error {
	now := time.Now()
	if o.CreatedAt.IsZero() {
		o.CreatedAt = now
	}
	o.UpdatedAt = now
	res, err := r.coll.InsertOne(ctx, o)
	if err != nil {
		if isDuplicateKeyError(err) {
			return ErrDuplicate
		}
		return err
	}
	o.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

func (r *OrderRepo) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Order, error) {
	var o models.Order
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&o); err != nil {
		return nil, notFound(err)
	}
	return &o, nil
}

func (r *OrderRepo) FindByNumber(ctx context.Context, number string) (*models.Order, error) {
	var o models.Order
	if err := r.coll.FindOne(ctx, bson.M{"orderNumber": number}).Decode(&o); err != nil {
		return nil, notFound(err)
	}
	return &o, nil
}

// OrderQuery translates an order filter into a Mongo filter.
func OrderQuery(f models.OrderFilter) bson.M {
	filter := bson.M{}
	if f.Status != "" {
		filter["status"] = f.Status
	}
	if f.Email != "" {
		filter["customer.email"] = f.Email
	}
	if f.OrderNumber != "" {
		filter["orderNumber"] = f.OrderNumber
	}
	return filter
}

// Find returns one page of orders, newest first, plus the total number of matches.
func (r *OrderRepo) Find(ctx context.Context, f models.OrderFilter, skip, limit int64) ([]models.Order, int64, error) {
	filter := OrderQuery(f)
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip(skip).
		SetLimit(limit)

	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	orders := []models.Order{}
	if err := cursor.All(ctx, &orders); err != nil {
		return nil, 0, err
	}

	total, err := r.coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

// UpdateStatus applies u only while the order is still in status from, so a
// concurrent transition is never overwritten. A lost race returns ErrNotFound.
func (r *OrderRepo) UpdateStatus(ctx context.Context, id primitive.ObjectID, from models.OrderStatus, u models.OrderStatusUpdate) (*models.Order, error) {
	set := bson.M{"status": u.Status, "updatedAt": time.Now()}
	if u.TrackingNumber != nil {
		set["trackingNumber"] = *u.TrackingNumber
	}
	if u.EstimatedDelivery != nil {
		set["estimatedDelivery"] = *u.EstimatedDelivery
	}
	if u.Notes != nil {
		set["notes"] = *u.Notes
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var out models.Order
	err := r.coll.FindOneAndUpdate(ctx, bson.M{"_id": id, "status": from}, bson.M{"$set": set}, opts).Decode(&out)
	if err != nil {
		return nil, notFound(err)
	}
	return &out, nil
}

func (r *OrderRepo) CountCreatedBetween(ctx context.Context, from, to time.Time) (int64, error) {
	return r.coll.CountDocuments(ctx, between("createdAt", from, to))
}

// Totals counts orders created in [from, to) and sums the revenue of the
// ones that were not cancelled.
func (r *OrderRepo) Totals(ctx context.Context, from, to time.Time) (models.OrderTotals, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: between("createdAt", from, to)}},
		{{Key: "$group", Value: bson.M{
			"_id":   nil,
			"count": bson.M{"$sum": 1},
			"revenue": bson.M{"$sum": bson.M{"$cond": bson.A{
				bson.M{"$ne": bson.A{"$status", models.OrderCancelled}},
				"$total",
				0,
			}}},
		}}},
	}
	cursor, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return models.OrderTotals{}, err
	}
	defer cursor.Close(ctx)

	var rows []models.OrderTotals
	if err := cursor.All(ctx, &rows); err != nil {
		return models.OrderTotals{}, err
	}
	if len(rows) == 0 {
		return models.OrderTotals{}, nil
	}
	return rows[0], nil
}

func (r *OrderRepo) StatusCounts(ctx context.Context) (map[string]int64, error) {
	return countBy(ctx, r.coll, "status", bson.M{})
}

func (r *OrderRepo) Recent(ctx context.Context, n int64) ([]models.Order, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}).SetLimit(n)
	cursor, err := r.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	out := []models.Order{}
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
