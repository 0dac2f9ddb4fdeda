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

// activeVisit matches requests that still hold their slot.
var activeVisit = bson.M{"$in": bson.A{models.VisitPending, models.VisitConfirmed}}

type VisitRepo struct {
	coll *mongo.Collection
}

func (r *VisitRepo) Insert(ctx context.Context, v *models.WorkshopVisit) error {
	now := time.Now()
	v.CreatedAt, v.UpdatedAt = now, now
	res, err := r.coll.InsertOne(ctx, v)
	if err != nil {
		return err
	}
	v.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

func (r *VisitRepo) FindByID(ctx context.Context, id primitive.ObjectID) (*models.WorkshopVisit, error) {
	var v models.WorkshopVisit
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&v); err != nil {
		return nil, notFound(err)
	}
	return &v, nil
}

// SlotTaken reports whether an active request already holds time on day [from, to).
func (r *VisitRepo) SlotTaken(ctx context.Context, from, to time.Time, slot string) (bool, error) {
	filter := between("preferredDate", from, to)
	filter["preferredTime"] = slot
	filter["status"] = activeVisit
	n, err := r.coll.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// BookedTimes lists the times held by active requests on day [from, to).
func (r *VisitRepo) BookedTimes(ctx context.Context, from, to time.Time) ([]string, error) {
	filter := between("preferredDate", from, to)
	filter["status"] = activeVisit
	values, err := r.coll.Distinct(ctx, "preferredTime", filter)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(values))
	for _, v := range values {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out, nil
}

// VisitQuery translates a visit listing filter into a Mongo filter.
func VisitQuery(f models.VisitFilter) bson.M {
	filter := between("preferredDate", f.From, f.To)
	if f.Status != "" {
		filter["status"] = f.Status
	}
	if f.Email != "" {
		filter["email"] = f.Email
	}
	return filter
}

func (r *VisitRepo) Find(ctx context.Context, f models.VisitFilter, skip, limit int64) ([]models.WorkshopVisit, int64, error) {
	filter := VisitQuery(f)
	opts := options.Find().
		SetSort(bson.D{{Key: "preferredDate", Value: 1}, {Key: "preferredTime", Value: 1}}).
		SetSkip(skip).
		SetLimit(limit)

	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	visits := []models.WorkshopVisit{}
	if err := cursor.All(ctx, &visits); err != nil {
		return nil, 0, err
	}
	total, err := r.coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	return visits, total, nil
}

func (r *VisitRepo) UpdateStatus(ctx context.Context, id primitive.ObjectID, u models.VisitStatusUpdate) (*models.WorkshopVisit, error) {
	set := bson.M{"status": u.Status, "updatedAt": time.Now()}
	if u.ConfirmedDate != nil {
		set["confirmedDate"] = *u.ConfirmedDate
	}
	if u.ConfirmedTime != nil {
		set["confirmedTime"] = *u.ConfirmedTime
	}
	if u.AdminNotes != nil {
		set["adminNotes"] = *u.AdminNotes
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var out models.WorkshopVisit
	if err := r.coll.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&out); err != nil {
		return nil, notFound(err)
	}
	return &out, nil
}

func (r *VisitRepo) Count(ctx context.Context, f models.VisitFilter) (int64, error) {
	return r.coll.CountDocuments(ctx, VisitQuery(f))
}

func (r *VisitRepo) CountBy(ctx context.Context, field string) (map[string]int64, error) {
	return countBy(ctx, r.coll, field, bson.M{})
}
