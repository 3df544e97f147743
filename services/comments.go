package services

import (
	"context"
	"log/slog"
	"time"

	"locallink-be/models"
	"locallink-be/store"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const MaxCommentLength = 1000

type CommentService struct {
	comments store.CommentRepository
	issues   store.IssueRepository
	access   *AccessControl
	logger   *slog.Logger
}

func NewCommentService(repos store.Repositories, access *AccessControl, logger *slog.Logger) *CommentService {
	return &CommentService{
		comments: repos.Comments,
		issues:   repos.Issues,
		access:   access,
		logger:   logger,
	}
}

// Create posts a comment on an existing issue. The username is taken from the
// verified identity, never from the request.
func (s *CommentService) Create(ctx context.Context, issueID primitive.ObjectID, identity models.Identity, text string) (models.Comment, error) {
	text, err := validateText("Comment text", text, MaxCommentLength)
	if err != nil {
		return models.Comment{}, err
	}
	if _, err := s.issues.Get(ctx, issueID); err != nil {
		return models.Comment{}, storeError(err, issueNotFound)
	}

	now := time.Now()
	comment := models.Comment{
		IssueID:   issueID,
		AuthorUID: identity.UID,
		Username:  identity.DisplayName(),
		Text:      text,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.comments.Create(ctx, &comment); err != nil {
		return models.Comment{}, err
	}
	return comment, nil
}

func (s *CommentService) ListByIssue(ctx context.Context, issueID primitive.ObjectID) ([]models.Comment, error) {
	if _, err := s.issues.Get(ctx, issueID); err != nil {
		return nil, storeError(err, issueNotFound)
	}
	return s.comments.ListByIssue(ctx, issueID)
}

// Delete is a moderation action, admin only.
func (s *CommentService) Delete(ctx context.Context, id primitive.ObjectID, identity models.Identity) error {
	if err := s.access.RequireAdmin(ctx, identity); err != nil {
		return err
	}
	if err := s.comments.Delete(ctx, id); err != nil {
		return storeError(err, "Comment not found")
	}
	s.logger.InfoContext(ctx, "comment deleted", "id", id.Hex(), "by", identity.UID)
	return nil
}
