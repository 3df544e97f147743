package store

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"locallink-be/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MongoCommentRepository struct {
	coll *mongo.Collection
}

func NewMongoCommentRepository(db *mongo.Database) *MongoCommentRepository {
	return &MongoCommentRepository{coll: db.Collection(models.CommentsCollection)}
}

func (r *MongoCommentRepository) Create(ctx context.Context, comment *models.Comment) error {
	if comment.ID.IsZero() {
		comment.ID = primitive.NewObjectID()
	}
	if _, err := r.coll.InsertOne(ctx, comment); err != nil {
		return fmt.Errorf("insert comment: %w", err)
	}
	return nil
}

func (r *MongoCommentRepository) ListByIssue(ctx context.Context, issueID primitive.ObjectID) ([]models.Comment, error) {
	cursor, err := r.coll.Find(ctx, bson.M{"issueId": issueID}, options.Find().SetSort(newestFirst))
	if err != nil {
		return nil, fmt.Errorf("find comments: %w", err)
	}
	defer cursor.Close(ctx)

	comments := make([]models.Comment, 0)
	if err := cursor.All(ctx, &comments); err != nil {
		return nil, fmt.Errorf("decode comments: %w", err)
	}
	return comments, nil
}

func commentQuery(search string) bson.M {
	query := bson.M{}
	if search = strings.TrimSpace(search); search != "" {
		query["text"] = primitive.Regex{Pattern: regexp.QuoteMeta(search), Options: "i"}
	}
	return query
}

func (r *MongoCommentRepository) List(ctx context.Context, search string, page Page) ([]models.Comment, int64, error) {
	query := commentQuery(search)

	total, err := r.coll.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, fmt.Errorf("count comments: %w", err)
	}

	findOptions := options.Find().
		SetSort(newestFirst).
		SetSkip(page.Skip()).
		SetLimit(int64(page.Limit))

	cursor, err := r.coll.Find(ctx, query, findOptions)
	if err != nil {
		return nil, 0, fmt.Errorf("find comments: %w", err)
	}
	defer cursor.Close(ctx)

	comments := make([]models.Comment, 0)
	if err := cursor.All(ctx, &comments); err != nil {
		return nil, 0, fmt.Errorf("decode comments: %w", err)
	}
	return comments, total, nil
}

func (r *MongoCommentRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoCommentRepository) DeleteByIssue(ctx context.Context, issueID primitive.ObjectID) (int64, error) {
	res, err := r.coll.DeleteMany(ctx, bson.M{"issueId": issueID})
	if err != nil {
		return 0, fmt.Errorf("delete comments for issue: %w", err)
	}
	return res.DeletedCount, nil
}

// compile-time checks
var (
	_ IssueRepository   = (*MongoIssueRepository)(nil)
	_ CommentRepository = (*MongoCommentRepository)(nil)
	_ UserRepository    = (*MongoUserRepository)(nil)
)

// isNoDocuments maps the driver's miss to ErrNotFound.
func isNoDocuments(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}
