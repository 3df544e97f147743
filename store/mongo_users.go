package store

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"locallink-be/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MongoUserRepository struct {
	coll *mongo.Collection
}

func NewMongoUserRepository(db *mongo.Database) *MongoUserRepository {
	return &MongoUserRepository{coll: db.Collection(models.UsersCollection)}
}

// Upsert is one findOneAndUpdate keyed by uid, so two first contacts for the
// same identity cannot create two records.
func (r *MongoUserRepository) Upsert(ctx context.Context, user models.User) (models.User, error) {
	now := time.Now()
	role := user.Role
	if role == "" {
		role = models.RoleUser
	}

	update := bson.M{
		"$set": bson.M{
			"email":     user.Email,
			"name":      user.Name,
			"photoURL":  user.PhotoURL,
			"updatedAt": now,
		},
		"$setOnInsert": bson.M{
			"uid":       user.UID,
			"role":      role,
			"createdAt": now,
		},
	}

	var saved models.User
	err := r.coll.FindOneAndUpdate(ctx, bson.M{"uid": user.UID}, update,
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)).Decode(&saved)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return models.User{}, ErrDuplicate
		}
		return models.User{}, fmt.Errorf("upsert user: %w", err)
	}
	return saved, nil
}

func (r *MongoUserRepository) Get(ctx context.Context, id primitive.ObjectID) (models.User, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *MongoUserRepository) GetByUID(ctx context.Context, uid string) (models.User, error) {
	return r.findOne(ctx, bson.M{"uid": uid})
}

func userQuery(filter UserFilter) bson.M {
	query := bson.M{}
	if role := strings.TrimSpace(filter.Role); role != "" {
		query["role"] = role
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		pattern := primitive.Regex{Pattern: regexp.QuoteMeta(search), Options: "i"}
		query["$or"] = []bson.M{
			{"name": pattern},
			{"email": pattern},
		}
	}
	return query
}

func (r *MongoUserRepository) List(ctx context.Context, filter UserFilter, page Page) ([]models.User, int64, error) {
	query := userQuery(filter)

	total, err := r.coll.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}

	findOptions := options.Find().
		SetSort(newestFirst).
		SetSkip(page.Skip()).
		SetLimit(int64(page.Limit))

	cursor, err := r.coll.Find(ctx, query, findOptions)
	if err != nil {
		return nil, 0, fmt.Errorf("find users: %w", err)
	}
	defer cursor.Close(ctx)

	users := make([]models.User, 0)
	if err := cursor.All(ctx, &users); err != nil {
		return nil, 0, fmt.Errorf("decode users: %w", err)
	}
	return users, total, nil
}

func (r *MongoUserRepository) SetRole(ctx context.Context, id primitive.ObjectID, role models.Role) (models.User, error) {
	var user models.User
	err := r.coll.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"role": role, "updatedAt": time.Now()}},
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&user)
	if err != nil {
		if isNoDocuments(err) {
			return models.User{}, ErrNotFound
		}
		return models.User{}, fmt.Errorf("set user role: %w", err)
	}
	return user, nil
}

func (r *MongoUserRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoUserRepository) findOne(ctx context.Context, filter bson.M) (models.User, error) {
	var user models.User
	if err := r.coll.FindOne(ctx, filter).Decode(&user); err != nil {
		if isNoDocuments(err) {
			return models.User{}, ErrNotFound
		}
		return models.User{}, fmt.Errorf("find user: %w", err)
	}
	return user, nil
}
