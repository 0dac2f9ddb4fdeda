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

type ProductRepo struct {
	coll *mongo.Collection
}

func (r *ProductRepo) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Product, error) {
	var p models.Product
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&p); err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

// ProductQuery translates a listing filter into a Mongo filter and sort.
func ProductQuery(f models.ProductFilter) (bson.M, bson.D) {
	filter := bson.M{}
	if f.Category != "" && f.Category != "All" {
		filter["category"] = f.Category
	}
	if f.Search != "" {
		filter["$text"] = bson.M{"$search": f.Search}
	}
	if f.MinPrice != nil || f.MaxPrice != nil {
		price := bson.M{}
		if f.MinPrice != nil {
			price["$gte"] = *f.MinPrice
		}
		if f.MaxPrice != nil {
			price["$lte"] = *f.MaxPrice
		}
		filter["salePrice"] = price
	}
	if f.Featured {
		filter["isFeatured"] = true
	}
	if f.FlashSale {
		filter["isFlashSale"] = true
	}
	if len(f.IDs) > 0 {
		filter["_id"] = bson.M{"$in": f.IDs}
	}

	var sort bson.D
	switch f.Sort {
	case models.SortPriceLow:
		sort = bson.D{{Key: "salePrice", Value: 1}}
	case models.SortPriceHigh:
		sort = bson.D{{Key: "salePrice", Value: -1}}
	case models.SortRating:
		sort = bson.D{{Key: "rating", Value: -1}}
	case models.SortFeatured:
		sort = bson.D{{Key: "isFeatured", Value: -1}, {Key: "createdAt", Value: -1}}
	default:
		sort = bson.D{{Key: "createdAt", Value: -1}}
	}
	return filter, sort
}

// Find returns one page of products plus the total number of matches.
func (r *ProductRepo) Find(ctx context.Context, f models.ProductFilter, skip, limit int64) ([]models.Product, int64, error) {
	filter, sort := ProductQuery(f)
	opts := options.Find().SetSort(sort).SetSkip(skip)
	if limit > 0 {
		opts.SetLimit(limit)
	}

	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	products := []models.Product{}
	if err := cursor.All(ctx, &products); err != nil {
		return nil, 0, err
	}

	total, err := r.coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

func (r *ProductRepo) Insert(ctx context.Context, p *models.Product) error {
	now := time.Now()
	p.CreatedAt, p.UpdatedAt = now, now
	res, err := r.coll.InsertOne(ctx, p)
	if err != nil {
		return err
	}
	p.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

// Replace overwrites every editable field of the product and returns the new document.
func (r *ProductRepo) Replace(ctx context.Context, p *models.Product) (*models.Product, error) {
	p.UpdatedAt = time.Now()
	set := bson.M{
		"title":            p.Title,
		"description":      p.Description,
		"originalPrice":    p.OriginalPrice,
		"salePrice":        p.SalePrice,
		"discount":         p.Discount,
		"images":           p.Images,
		"category":         p.Category,
		"rating":           p.Rating,
		"reviews":          p.Reviews,
		"stock":            p.Stock,
		"isFlashSale":      p.IsFlashSale,
		"isFeatured":       p.IsFeatured,
		"artisan":          p.Artisan,
		"dimensions":       p.Dimensions,
		"weight":           p.Weight,
		"materials":        p.Materials,
		"careInstructions": p.CareInstructions,
		"shippingInfo":     p.ShippingInfo,
		"updatedAt":        p.UpdatedAt,
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var out models.Product
	if err := r.coll.FindOneAndUpdate(ctx, bson.M{"_id": p.ID}, bson.M{"$set": set}, opts).Decode(&out); err != nil {
		return nil, notFound(err)
	}
	return &out, nil
}

func (r *ProductRepo) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Reserve takes qty units only while at least qty are in stock. ok is false
// when the product is missing or short; stock is the level after the take.
func (r *ProductRepo) Reserve(ctx context.Context, id primitive.ObjectID, qty int) (stock int, ok bool, err error) {
	filter := bson.M{"_id": id, "stock": bson.M{"$gte": qty}}
	update := bson.M{
		"$inc": bson.M{"stock": -qty},
		"$set": bson.M{"updatedAt": time.Now()},
	}
	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.After).
		SetProjection(bson.M{"stock": 1})

	var out struct {
		Stock int `bson:"stock"`
	}
	err = r.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&out)
	if err == mongo.ErrNoDocuments {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return out.Stock, true, nil
}

// Release puts qty units back and returns the new stock level.
func (r *ProductRepo) Release(ctx context.Context, id primitive.ObjectID, qty int) (int, error) {
	update := bson.M{
		"$inc": bson.M{"stock": qty},
		"$set": bson.M{"updatedAt": time.Now()},
	}
	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.After).
		SetProjection(bson.M{"stock": 1})

	var out struct {
		Stock int `bson:"stock"`
	}
	if err := r.coll.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&out); err != nil {
		return 0, notFound(err)
	}
	return out.Stock, nil
}

func (r *ProductRepo) AppendImage(ctx context.Context, id primitive.ObjectID, url string) (*models.Product, error) {
	update := bson.M{
		"$push": bson.M{"images": url},
		"$set":  bson.M{"updatedAt": time.Now()},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var out models.Product
	if err := r.coll.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&out); err != nil {
		return nil, notFound(err)
	}
	return &out, nil
}

// Categories counts products per category, sorted by name.
func (r *ProductRepo) Categories(ctx context.Context) ([]models.CategoryCount, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.M{"_id": "$category", "count": bson.M{"$sum": 1}}}},
		{{Key: "$sort", Value: bson.M{"_id": 1}}},
	}
	cursor, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	out := []models.CategoryCount{}
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *ProductRepo) Count(ctx context.Context) (int64, error) {
	return r.coll.CountDocuments(ctx, bson.M{})
}

// TopRated returns the n best-rated products.
func (r *ProductRepo) TopRated(ctx context.Context, n int64) ([]models.Product, error) {
	opts := options.Find().SetSort(bson.D{{Key: "rating", Value: -1}}).SetLimit(n)
	cursor, err := r.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	out := []models.Product{}
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
