package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"locallink-be/models"
	"locallink-be/store"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	MaxTitleLength       = 200
	MaxDescriptionLength = 1000

	statusAttempts = 3
)

// Status change actions accepted by SetStatus.
const (
	ActionNext = "next"
	ActionSet  = "set"
)

const issueNotFound = "Issue not found"

// StatusChange is an admin request to move an issue through the workflow.
type StatusChange struct {
	Action string
	Status models.IssueStatus
}

type IssueService struct {
	issues   store.IssueRepository
	comments store.CommentRepository
	access   *AccessControl
	logger   *slog.Logger
}

func NewIssueService(repos store.Repositories, access *AccessControl, logger *slog.Logger) *IssueService {
	return &IssueService{
		issues:   repos.Issues,
		comments: repos.Comments,
		access:   access,
		logger:   logger,
	}
}

func validateText(field, value string, limit int) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", Invalid("%s is required", field)
	}
	if utf8.RuneCountInString(value) > limit {
		return "", Invalid("%s must be at most %d characters", field, limit)
	}
	return value, nil
}

func validateCategory(category models.IssueCategory) error {
	if !category.Valid() {
		names := make([]string, len(models.Categories))
		for i, c := range models.Categories {
			names[i] = string(c)
		}
		return Invalid("Invalid category. Must be one of: %s", strings.Join(names, ", "))
	}
	return nil
}

func validateLatitude(lat float64) error {
	if lat < -90 || lat > 90 {
		return Invalid("Latitude must be between -90 and 90")
	}
	return nil
}

func validateLongitude(lng float64) error {
	if lng < -180 || lng > 180 {
		return Invalid("Longitude must be between -180 and 180")
	}
	return nil
}

func normalizeImageURL(url *string) *string {
	if url == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*url)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

// Create validates a submission and stores it as a Pending issue owned by the
// caller.
func (s *IssueService) Create(ctx context.Context, identity models.Identity, in models.NewIssue) (models.Issue, error) {
	if identity.UID == "" {
		return models.Issue{}, Invalid("Invalid token: missing user ID")
	}

	title, err := validateText("Title", in.Title, MaxTitleLength)
	if err != nil {
		return models.Issue{}, err
	}
	description, err := validateText("Description", in.Description, MaxDescriptionLength)
	if err != nil {
		return models.Issue{}, err
	}
	if err := validateCategory(in.Category); err != nil {
		return models.Issue{}, err
	}
	if in.Latitude == nil || in.Longitude == nil {
		return models.Issue{}, Invalid("Latitude and longitude are required")
	}
	if err := validateLatitude(*in.Latitude); err != nil {
		return models.Issue{}, err
	}
	if err := validateLongitude(*in.Longitude); err != nil {
		return models.Issue{}, err
	}

	now := time.Now()
	issue := models.Issue{
		Title:       title,
		Description: description,
		Category:    in.Category,
		Latitude:    *in.Latitude,
		Longitude:   *in.Longitude,
		Status:      models.Pending,
		Upvotes:     0,
		Upvoters:    []string{},
		Author:      identity.Author(),
		ImageURL:    normalizeImageURL(in.ImageURL),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.issues.Create(ctx, &issue); err != nil {
		return models.Issue{}, storeError(err, issueNotFound)
	}

	s.logger.InfoContext(ctx, "issue created", "id", issue.ID.Hex(), "uid", identity.UID, "category", issue.Category)
	return issue, nil
}

func (s *IssueService) Get(ctx context.Context, id primitive.ObjectID) (models.Issue, error) {
	issue, err := s.issues.Get(ctx, id)
	if err != nil {
		return models.Issue{}, storeError(err, issueNotFound)
	}
	return issue, nil
}

// Detail returns the issue and its comments, newest first.
func (s *IssueService) Detail(ctx context.Context, id primitive.ObjectID) (models.Issue, []models.Comment, error) {
	issue, err := s.Get(ctx, id)
	if err != nil {
		return models.Issue{}, nil, err
	}
	comments, err := s.comments.ListByIssue(ctx, id)
	if err != nil {
		return models.Issue{}, nil, err
	}
	return issue, comments, nil
}

// List returns matching issues newest first. A nil page returns all of them.
func (s *IssueService) List(ctx context.Context, filter store.IssueFilter, page *store.Page) ([]models.Issue, int64, error) {
	return s.issues.List(ctx, filter, page)
}

func validatePatch(patch models.IssuePatch) (models.IssuePatch, error) {
	if patch.Empty() {
		return patch, Invalid("No fields to update")
	}
	if patch.Title != nil {
		title, err := validateText("Title", *patch.Title, MaxTitleLength)
		if err != nil {
			return patch, err
		}
		patch.Title = &title
	}
	if patch.Description != nil {
		description, err := validateText("Description", *patch.Description, MaxDescriptionLength)
		if err != nil {
			return patch, err
		}
		patch.Description = &description
	}
	if patch.Category != nil {
		if err := validateCategory(*patch.Category); err != nil {
			return patch, err
		}
	}
	if patch.Latitude != nil {
		if err := validateLatitude(*patch.Latitude); err != nil {
			return patch, err
		}
	}
	if patch.Longitude != nil {
		if err := validateLongitude(*patch.Longitude); err != nil {
			return patch, err
		}
	}
	if patch.ImageURL != nil {
		url := strings.TrimSpace(*patch.ImageURL)
		patch.ImageURL = &url
	}
	return patch, nil
}

// Update applies the owner's edits. Only present fields change.
func (s *IssueService) Update(ctx context.Context, id primitive.ObjectID, identity models.Identity, patch models.IssuePatch) (models.Issue, error) {
	issue, err := s.Get(ctx, id)
	if err != nil {
		return models.Issue{}, err
	}
	if err := RequireOwner(identity, issue); err != nil {
		return models.Issue{}, err
	}

	patch, err = validatePatch(patch)
	if err != nil {
		return models.Issue{}, err
	}

	updated, err := s.issues.Update(ctx, id, patch)
	if err != nil {
		return models.Issue{}, storeError(err, issueNotFound)
	}
	return updated, nil
}

// Delete removes the caller's own issue and its comments.
func (s *IssueService) Delete(ctx context.Context, id primitive.ObjectID, identity models.Identity) error {
	issue, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := RequireOwner(identity, issue); err != nil {
		return err
	}
	return s.deleteWithComments(ctx, id, identity)
}

// AdminDelete removes any issue and its comments.
func (s *IssueService) AdminDelete(ctx context.Context, id primitive.ObjectID, identity models.Identity) error {
	if err := s.access.RequireAdmin(ctx, identity); err != nil {
		return err
	}
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	return s.deleteWithComments(ctx, id, identity)
}

// deleteWithComments is not transactional: comments go first, so a failure
// leaves the issue in place rather than orphaned comments.
func (s *IssueService) deleteWithComments(ctx context.Context, id primitive.ObjectID, identity models.Identity) error {
	removed, err := s.comments.DeleteByIssue(ctx, id)
	if err != nil {
		return fmt.Errorf("delete comments of issue %s: %w", id.Hex(), err)
	}
	if err := s.issues.Delete(ctx, id); err != nil {
		return storeError(err, issueNotFound)
	}

	s.logger.InfoContext(ctx, "issue deleted", "id", id.Hex(), "uid", identity.UID, "comments", removed)
	return nil
}

// SetStatus is admin-only. "next" advances one step with a compare-and-set so
// concurrent advances never skip a step.
func (s *IssueService) SetStatus(ctx context.Context, id primitive.ObjectID, identity models.Identity, change StatusChange) (models.Issue, error) {
	if err := s.access.RequireAdmin(ctx, identity); err != nil {
		return models.Issue{}, err
	}

	switch change.Action {
	case ActionSet:
		if !change.Status.Valid() {
			names := make([]string, len(models.Statuses))
			for i, st := range models.Statuses {
				names[i] = string(st)
			}
			return models.Issue{}, Invalid("Invalid status. Must be one of: %s", strings.Join(names, ", "))
		}
		issue, err := s.issues.SetStatus(ctx, id, change.Status)
		if err != nil {
			return models.Issue{}, storeError(err, issueNotFound)
		}
		s.logger.InfoContext(ctx, "issue status set", "id", id.Hex(), "status", issue.Status, "by", identity.UID)
		return issue, nil

	case ActionNext:
		return s.advance(ctx, id, identity)

	default:
		return models.Issue{}, Invalid("Invalid action. Use 'next' for automatic transition or 'set' for manual override")
	}
}

func (s *IssueService) advance(ctx context.Context, id primitive.ObjectID, identity models.Identity) (models.Issue, error) {
	for attempt := 0; attempt < statusAttempts; attempt++ {
		current, err := s.Get(ctx, id)
		if err != nil {
			return models.Issue{}, err
		}
		next, changed := current.Status.Next()
		if !changed {
			return models.Issue{}, newError(ErrNoTransition, "Issue is already resolved or no further transitions available")
		}

		issue, err := s.issues.CompareAndSetStatus(ctx, id, current.Status, next)
		if errors.Is(err, store.ErrConflict) {
			continue
		}
		if err != nil {
			return models.Issue{}, storeError(err, issueNotFound)
		}
		s.logger.InfoContext(ctx, "issue status advanced", "id", id.Hex(), "from", current.Status, "to", next, "by", identity.UID)
		return issue, nil
	}
	return models.Issue{}, fmt.Errorf("advance status of issue %s: %w", id.Hex(), store.ErrConflict)
}

// ToggleUpvote flips uid's vote on the issue.
func (s *IssueService) ToggleUpvote(ctx context.Context, id primitive.ObjectID, uid string) (models.UpvoteResult, error) {
	if strings.TrimSpace(uid) == "" {
		return models.UpvoteResult{}, Invalid("User ID required")
	}
	result, err := s.issues.ToggleUpvote(ctx, id, uid)
	if err != nil {
		return models.UpvoteResult{}, storeError(err, issueNotFound)
	}
	return result, nil
}
