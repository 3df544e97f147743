package store

import (
	"context"
	"errors"
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

// toggleAttempts bounds the retries when a toggle races with another toggle
// by the same user.
const toggleAttempts = 3

type MongoIssueRepository struct {
	coll *mongo.Collection
}

func NewMongoIssueRepository(db *mongo.Database) *MongoIssueRepository {
	return &MongoIssueRepository{coll: db.Collection(models.IssuesCollection)}
}

func (r *MongoIssueRepository) Create(ctx context.Context, issue *models.Issue) error {
	if issue.ID.IsZero() {
		issue.ID = primitive.NewObjectID()
	}
	issue.Normalize()
	if _, err := r.coll.InsertOne(ctx, issue); err != nil {
		return fmt.Errorf("insert issue: %w", err)
	}
	return nil
}

func (r *MongoIssueRepository) Get(ctx context.Context, id primitive.ObjectID) (models.Issue, error) {
	var issue models.Issue
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&issue); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Issue{}, ErrNotFound
		}
		return models.Issue{}, fmt.Errorf("find issue: %w", err)
	}
	issue.Normalize()
	return issue, nil
}

// issueQuery builds the Mongo filter for an IssueFilter.
func issueQuery(filter IssueFilter) bson.M {
	query := bson.M{}
	if s := strings.TrimSpace(filter.Status); s != "" {
		query["status"] = s
	}
	if c := strings.TrimSpace(filter.Category); c != "" {
		query["category"] = c
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		pattern := primitive.Regex{Pattern: regexp.QuoteMeta(search), Options: "i"}
		query["$or"] = []bson.M{
			{"title": pattern},
			{"description": pattern},
		}
	}
	return query
}

var newestFirst = bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}

func (r *MongoIssueRepository) List(ctx context.Context, filter IssueFilter, page *Page) ([]models.Issue, int64, error) {
	query := issueQuery(filter)

	total, err := r.coll.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, fmt.Errorf("count issues: %w", err)
	}

	findOptions := options.Find().SetSort(newestFirst)
	if page != nil {
		findOptions.SetSkip(page.Skip()).SetLimit(int64(page.Limit))
	}

	cursor, err := r.coll.Find(ctx, query, findOptions)
	if err != nil {
		return nil, 0, fmt.Errorf("find issues: %w", err)
	}
	defer cursor.Close(ctx)

	issues := make([]models.Issue, 0)
	if err := cursor.All(ctx, &issues); err != nil {
		return nil, 0, fmt.Errorf("decode issues: %w", err)
	}
	for i := range issues {
		issues[i].Normalize()
	}
	return issues, total, nil
}

// patchUpdate builds the $set document for a patch.
func patchUpdate(patch models.IssuePatch, now time.Time) bson.M {
	set := bson.M{"updatedAt": now}
	if patch.Title != nil {
		set["title"] = *patch.Title
	}
	if patch.Description != nil {
		set["description"] = *patch.Description
	}
	if patch.Category != nil {
		set["category"] = *patch.Category
	}
	if patch.Latitude != nil {
		set["latitude"] = *patch.Latitude
	}
	if patch.Longitude != nil {
		set["longitude"] = *patch.Longitude
	}
	if patch.ImageURL != nil {
		if *patch.ImageURL == "" {
			set["imageUrl"] = nil
		} else {
			set["imageUrl"] = *patch.ImageURL
		}
	}
	return bson.M{"$set": set}
}

func (r *MongoIssueRepository) Update(ctx context.Context, id primitive.ObjectID, patch models.IssuePatch) (models.Issue, error) {
	return r.findOneAndUpdate(ctx, bson.M{"_id": id}, patchUpdate(patch, time.Now()))
}

func (r *MongoIssueRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete issue: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoIssueRepository) SetStatus(ctx context.Context, id primitive.ObjectID, status models.IssueStatus) (models.Issue, error) {
	update := bson.M{"$set": bson.M{"status": status, "updatedAt": time.Now()}}
	return r.findOneAndUpdate(ctx, bson.M{"_id": id}, update)
}

func (r *MongoIssueRepository) CompareAndSetStatus(ctx context.Context, id primitive.ObjectID, from, to models.IssueStatus) (models.Issue, error) {
	update := bson.M{"$set": bson.M{"status": to, "updatedAt": time.Now()}}
	issue, err := r.findOneAndUpdate(ctx, bson.M{"_id": id, "status": from}, update)
	if errors.Is(err, ErrNotFound) {
		if _, getErr := r.Get(ctx, id); getErr != nil {
			return models.Issue{}, getErr
		}
		return models.Issue{}, ErrConflict
	}
	return issue, err
}

// ToggleUpvote runs two guarded updates: add when uid is not a member, remove
// when it is. Each is a single atomic document update, so concurrent toggles
// can never duplicate a voter or skew the counter.
func (r *MongoIssueRepository) ToggleUpvote(ctx context.Context, id primitive.ObjectID, uid string) (models.UpvoteResult, error) {
	for attempt := 0; attempt < toggleAttempts; attempt++ {
		now := time.Now()

		issue, err := r.findOneAndUpdate(ctx,
			bson.M{"_id": id, "upvoters": bson.M{"$ne": uid}},
			bson.M{
				"$addToSet": bson.M{"upvoters": uid},
				"$inc":      bson.M{"upvotes": 1},
				"$set":      bson.M{"updatedAt": now},
			})
		if err == nil {
			return models.UpvoteResult{Upvotes: issue.Upvotes, Upvoted: true}, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return models.UpvoteResult{}, err
		}

		issue, err = r.findOneAndUpdate(ctx,
			bson.M{"_id": id, "upvoters": uid},
			bson.M{
				"$pull": bson.M{"upvoters": uid},
				"$inc":  bson.M{"upvotes": -1},
				"$set":  bson.M{"updatedAt": now},
			})
		if err == nil {
			return models.UpvoteResult{Upvotes: max(issue.Upvotes, 0), Upvoted: false}, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return models.UpvoteResult{}, err
		}

		// Neither predicate matched: the issue is gone, or another toggle
		// flipped membership between the two updates.
		if _, err := r.Get(ctx, id); err != nil {
			return models.UpvoteResult{}, err
		}
	}
	return models.UpvoteResult{}, ErrConflict
}

func (r *MongoIssueRepository) Count(ctx context.Context) (int64, error) {
	total, err := r.coll.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("count issues: %w", err)
	}
	return total, nil
}

// CountBy groups the whole collection by field.
func (r *MongoIssueRepository) CountBy(ctx context.Context, field string) (map[string]int64, error) {
	if field != FieldStatus && field != FieldCategory {
		return nil, fmt.Errorf("unsupported aggregation field %q", field)
	}

	pipeline := []bson.M{
		{
			"$group": bson.M{
				"_id":   "$" + field,
				"count": bson.M{"$sum": 1},
			},
		},
	}

	cursor, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("aggregate issues by %s: %w", field, err)
	}
	defer cursor.Close(ctx)

	var rows []struct {
		Key   string `bson:"_id"`
		Count int64  `bson:"count"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("decode %s counts: %w", field, err)
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.Key] = row.Count
	}
	return counts, nil
}

func (r *MongoIssueRepository) Titles(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]string, error) {
	titles := make(map[primitive.ObjectID]string, len(ids))
	if len(ids) == 0 {
		return titles, nil
	}

	cursor, err := r.coll.Find(ctx,
		bson.M{"_id": bson.M{"$in": ids}},
		options.Find().SetProjection(bson.M{"_id": 1, "title": 1}))
	if err != nil {
		return nil, fmt.Errorf("find issue titles: %w", err)
	}
	defer cursor.Close(ctx)

	var rows []struct {
		ID    primitive.ObjectID `bson:"_id"`
		Title string             `bson:"title"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("decode issue titles: %w", err)
	}
	for _, row := range rows {
		titles[row.ID] = row.Title
	}
	return titles, nil
}

func (r *MongoIssueRepository) findOneAndUpdate(ctx context.Context, filter, update bson.M) (models.Issue, error) {
	var issue models.Issue
	err := r.coll.FindOneAndUpdate(ctx, filter, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&issue)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Issue{}, ErrNotFound
		}
		return models.Issue{}, fmt.Errorf("update issue: %w", err)
	}
	issue.Normalize()
	return issue, nil
}
