package services

import (
	"context"
	"log/slog"

	"locallink-be/models"
	"locallink-be/store"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Pagination struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
	Pages int   `json:"pages"`
}

func NewPagination(page store.Page, total int64) Pagination {
	return Pagination{Page: page.Page, Limit: page.Limit, Total: total, Pages: page.Pages(total)}
}

// Analytics is computed over the whole collection, ignoring filters.
type Analytics struct {
	TotalIssues    int64            `json:"totalIssues"`
	StatusCounts   map[string]int64 `json:"statusCounts"`
	CategoryCounts map[string]int64 `json:"categoryCounts"`
}

type AdminIssuePage struct {
	Issues     []models.Issue `json:"issues"`
	Pagination Pagination     `json:"pagination"`
	Analytics  Analytics      `json:"analytics"`
}

type AdminCommentPage struct {
	Comments   []models.CommentWithIssue `json:"comments"`
	Pagination Pagination                `json:"pagination"`
}

type AnalyticsService struct {
	issues   store.IssueRepository
	comments store.CommentRepository
	access   *AccessControl
	logger   *slog.Logger
}

func NewAnalyticsService(repos store.Repositories, access *AccessControl, logger *slog.Logger) *AnalyticsService {
	return &AnalyticsService{
		issues:   repos.Issues,
		comments: repos.Comments,
		access:   access,
		logger:   logger,
	}
}

func (s *AnalyticsService) AdminIssues(ctx context.Context, identity models.Identity, filter store.IssueFilter, page store.Page) (AdminIssuePage, error) {
	if err := s.access.RequireAdmin(ctx, identity); err != nil {
		return AdminIssuePage{}, err
	}

	issues, total, err := s.issues.List(ctx, filter, &page)
	if err != nil {
		return AdminIssuePage{}, err
	}
	analytics, err := s.Summary(ctx)
	if err != nil {
		return AdminIssuePage{}, err
	}

	return AdminIssuePage{
		Issues:     issues,
		Pagination: NewPagination(page, total),
		Analytics:  analytics,
	}, nil
}

func (s *AnalyticsService) Summary(ctx context.Context) (Analytics, error) {
	total, err := s.issues.Count(ctx)
	if err != nil {
		return Analytics{}, err
	}
	byStatus, err := s.issues.CountBy(ctx, store.FieldStatus)
	if err != nil {
		return Analytics{}, err
	}
	byCategory, err := s.issues.CountBy(ctx, store.FieldCategory)
	if err != nil {
		return Analytics{}, err
	}
	return Analytics{TotalIssues: total, StatusCounts: byStatus, CategoryCounts: byCategory}, nil
}

// AdminComments lists comments for moderation, each with its issue title.
// Comments whose issue is gone get an empty title.
func (s *AnalyticsService) AdminComments(ctx context.Context, identity models.Identity, search string, page store.Page) (AdminCommentPage, error) {
	if err := s.access.RequireAdmin(ctx, identity); err != nil {
		return AdminCommentPage{}, err
	}

	comments, total, err := s.comments.List(ctx, search, page)
	if err != nil {
		return AdminCommentPage{}, err
	}

	seen := make(map[primitive.ObjectID]struct{}, len(comments))
	ids := make([]primitive.ObjectID, 0, len(comments))
	for _, c := range comments {
		if _, ok := seen[c.IssueID]; !ok {
			seen[c.IssueID] = struct{}{}
			ids = append(ids, c.IssueID)
		}
	}
	titles, err := s.issues.Titles(ctx, ids)
	if err != nil {
		return AdminCommentPage{}, err
	}

	decorated := make([]models.CommentWithIssue, len(comments))
	for i, c := range comments {
		decorated[i] = models.CommentWithIssue{Comment: c, IssueTitle: titles[c.IssueID]}
	}
	return AdminCommentPage{Comments: decorated, Pagination: NewPagination(page, total)}, nil
}
