package db

import (
	"context"
	"regexp"
	"time"

	"kondapalli/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type UserRepo struct {
	coll *mongo.Collection
}

// Insert stores a new user. A clash on email returns ErrDuplicate.
func (r *UserRepo) Insert(ctx context.Context, u *models.User) error {
	now := time.Now()
	u.CreatedAt, u.UpdatedAt = now, now
	res, err := r.coll.InsertOne(ctx, u)
	if err != nil {
		if isDuplicateKeyError(err) {
			return ErrDuplicate
		}
		return err
	}
	u.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

func (r *UserRepo) FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var u models.User
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

func (r *UserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := r.coll.FindOne(ctx, bson.M{"email": email}).Decode(&u); err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

// FindByResetToken finds the user holding an unexpired reset token hash.
func (r *UserRepo) FindByResetToken(ctx context.Context, hash string, now time.Time) (*models.User, error) {
	var u models.User
	filter := bson.M{"resetPasswordToken": hash, "resetPasswordExpires": bson.M{"$gt": now}}
	if err := r.coll.FindOne(ctx, filter).Decode(&u); err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

// UserQuery translates a user listing filter into a Mongo filter.
func UserQuery(f models.UserFilter) bson.M {
	filter := bson.M{}
	if f.Search != "" {
		pattern := primitive.Regex{Pattern: regexp.QuoteMeta(f.Search), Options: "i"}
		filter["$or"] = bson.A{
			bson.M{"name": pattern},
			bson.M{"email": pattern},
		}
	}
	if f.Role != "" {
		filter["role"] = f.Role
	}
	if f.Verified != nil {
		filter["isEmailVerified"] = *f.Verified
	}
	return filter
}

func (r *UserRepo) Find(ctx context.Context, f models.UserFilter, skip, limit int64) ([]models.User, int64, error) {
	filter := UserQuery(f)
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip(skip).
		SetLimit(limit)

	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	users := []models.User{}
	if err := cursor.All(ctx, &users); err != nil {
		return nil, 0, err
	}
	total, err := r.coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

func (r *UserRepo) Update(ctx context.Context, id primitive.ObjectID, u models.UserUpdate) (*models.User, error) {
	set := bson.M{"updatedAt": time.Now()}
	if u.Name != nil {
		set["name"] = *u.Name
	}
	if u.Email != nil {
		set["email"] = *u.Email
	}
	if u.Phone != nil {
		set["phone"] = *u.Phone
	}
	if u.Role != nil {
		set["role"] = *u.Role
	}
	if u.IsEmailVerified != nil {
		set["isEmailVerified"] = *u.IsEmailVerified
	}
	if u.Profile != nil {
		set["profile"] = *u.Profile
	}
	if u.Preferences != nil {
		set["preferences"] = *u.Preferences
	}
	return r.findAndSet(ctx, id, bson.M{"$set": set})
}

// SetPassword stores a new hash and clears any pending reset token.
func (r *UserRepo) SetPassword(ctx context.Context, id primitive.ObjectID, hash string) error {
	_, err := r.findAndSet(ctx, id, bson.M{
		"$set":   bson.M{"password": hash, "updatedAt": time.Now()},
		"$unset": bson.M{"resetPasswordToken": "", "resetPasswordExpires": ""},
	})
	return err
}

func (r *UserRepo) SetResetToken(ctx context.Context, id primitive.ObjectID, hash string, expires time.Time) error {
	_, err := r.findAndSet(ctx, id, bson.M{"$set": bson.M{
		"resetPasswordToken":   hash,
		"resetPasswordExpires": expires,
	}})
	return err
}

// IncLoginAttempts bumps the failure counter and returns the new count.
func (r *UserRepo) IncLoginAttempts(ctx context.Context, id primitive.ObjectID) (int, error) {
	u, err := r.findAndSet(ctx, id, bson.M{"$inc": bson.M{"loginAttempts": 1}})
	if err != nil {
		return 0, err
	}
	return u.LoginAttempts, nil
}

func (r *UserRepo) Lock(ctx context.Context, id primitive.ObjectID, until time.Time) error {
	_, err := r.findAndSet(ctx, id, bson.M{"$set": bson.M{"lockUntil": until}})
	return err
}

// ResetLoginAttempts clears the failure counter and the lock. A non-zero
// login time is recorded as lastLogin.
func (r *UserRepo) ResetLoginAttempts(ctx context.Context, id primitive.ObjectID, login time.Time) error {
	update := bson.M{
		"$set":   bson.M{"loginAttempts": 0},
		"$unset": bson.M{"lockUntil": ""},
	}
	if !login.IsZero() {
		update["$set"] = bson.M{"loginAttempts": 0, "lastLogin": login}
	}
	_, err := r.findAndSet(ctx, id, update)
	return err
}

func (r *UserRepo) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *UserRepo) Count(ctx context.Context) (int64, error) {
	return r.coll.CountDocuments(ctx, bson.M{})
}

func (r *UserRepo) findAndSet(ctx context.Context, id primitive.ObjectID, update bson.M) (*models.User, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var out models.User
	if err := r.coll.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&out); err != nil {
		if isDuplicateKeyError(err) {
			return nil, ErrDuplicate
		}
		return nil, notFound(err)
	}
	return &out, nil
}
