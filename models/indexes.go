package models

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection names.
const (
	IssuesCollection   = "issues"
	CommentsCollection = "comments"
	UsersCollection    = "users"
)

// indexSpecs lists the indexes each collection relies on: unique identity keys
// for users, the newest-first sort and filter keys for issues, and the cascade
// key for comments.
var indexSpecs = map[string][]mongo.IndexModel{
	UsersCollection: {
		{Keys: bson.D{{Key: "uid", Value: 1}}, Options: options.Index().SetUnique(true)},
		// Tokens without an email claim store "", which must not collide.
		{
			Keys: bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).
				SetPartialFilterExpression(bson.M{"email": bson.M{"$gt": ""}}),
		},
	},
	IssuesCollection: {
		{Keys: bson.D{{Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "category", Value: 1}}},
		{Keys: bson.D{{Key: "author.uid", Value: 1}}},
	},
	CommentsCollection: {
		{Keys: bson.D{{Key: "issueId", Value: 1}, {Key: "createdAt", Value: -1}}},
	},
}

// EnsureIndexes creates the indexes for every collection. Existing indexes
// with the same keys are left as they are.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	for name, models := range indexSpecs {
		if _, err := db.Collection(name).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("create %s indexes: %w", name, err)
		}
	}
	return nil
}
