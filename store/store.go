// Package store persists issues, comments and users. Each repository has a
// MongoDB implementation and an in-memory one used in development mode and
// tests.
package store

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"locallink-be/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	// ErrNotFound is returned when a record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate is returned when a unique key is already taken.
	ErrDuplicate = errors.New("duplicate key")
	// ErrConflict is returned when a conditional update lost to a concurrent write.
	ErrConflict = errors.New("concurrent modification")
)

// Aggregation keys accepted by IssueRepository.CountBy.
const (
	FieldStatus   = "status"
	FieldCategory = "category"
)

const (
	DefaultLimit = 10
	MaxLimit     = 100
	// MaxPage keeps (page-1)*limit far from overflow.
	MaxPage = 1_000_000
)

// Page is an offset/limit window, 1-based.
type Page struct {
	Page  int
	Limit int
}

// NewPage clamps page and limit the way every listing endpoint does.
func NewPage(page, limit int) Page {
	if page < 1 {
		page = 1
	}
	if page > MaxPage {
		page = MaxPage
	}
	if limit < 1 || limit > MaxLimit {
		limit = DefaultLimit
	}
	return Page{Page: page, Limit: limit}
}

func (p Page) Skip() int64 {
	if p.Page < 1 {
		return 0
	}
	return int64(p.Page-1) * int64(p.Limit)
}

// Pages is ceil(total/limit).
func (p Page) Pages(total int64) int {
	if p.Limit <= 0 {
		return 0
	}
	return int((total + int64(p.Limit) - 1) / int64(p.Limit))
}

// IssueFilter narrows issue listings. Empty fields match everything.
type IssueFilter struct {
	Status   string
	Category string
	Search   string
}

// UserFilter narrows user listings.
type UserFilter struct {
	Search string
	Role   string
}

type IssueRepository interface {
	Create(ctx context.Context, issue *models.Issue) error
	Get(ctx context.Context, id primitive.ObjectID) (models.Issue, error)
	// List returns one page, newest first, and the number of matching issues.
	// A nil page returns every match.
	List(ctx context.Context, filter IssueFilter, page *Page) ([]models.Issue, int64, error)
	Update(ctx context.Context, id primitive.ObjectID, patch models.IssuePatch) (models.Issue, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	SetStatus(ctx context.Context, id primitive.ObjectID, status models.IssueStatus) (models.Issue, error)
	// CompareAndSetStatus moves the issue from one status to another and
	// returns ErrConflict when the stored status is no longer from.
	CompareAndSetStatus(ctx context.Context, id primitive.ObjectID, from, to models.IssueStatus) (models.Issue, error)
	// ToggleUpvote adds uid to the upvoter set when absent and removes it when
	// present, keeping the counter equal to the set size.
	ToggleUpvote(ctx context.Context, id primitive.ObjectID, uid string) (models.UpvoteResult, error)
	Count(ctx context.Context) (int64, error)
	CountBy(ctx context.Context, field string) (map[string]int64, error)
	Titles(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]string, error)
}

type CommentRepository interface {
	Create(ctx context.Context, comment *models.Comment) error
	ListByIssue(ctx context.Context, issueID primitive.ObjectID) ([]models.Comment, error)
	List(ctx context.Context, search string, page Page) ([]models.Comment, int64, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	DeleteByIssue(ctx context.Context, issueID primitive.ObjectID) (int64, error)
}

type UserRepository interface {
	// Upsert finds the user by UID, refreshing email, name and photo, or
	// creates it with the given role.
	Upsert(ctx context.Context, user models.User) (models.User, error)
	Get(ctx context.Context, id primitive.ObjectID) (models.User, error)
	GetByUID(ctx context.Context, uid string) (models.User, error)
	List(ctx context.Context, filter UserFilter, page Page) ([]models.User, int64, error)
	SetRole(ctx context.Context, id primitive.ObjectID, role models.Role) (models.User, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// Repositories bundles the three collections.
type Repositories struct {
	Issues   IssueRepository
	Comments CommentRepository
	Users    UserRepository
}

// searchPattern turns user input into a case-insensitive literal substring
// regex.
func searchPattern(search string) *regexp.Regexp {
	search = strings.TrimSpace(search)
	if search == "" {
		return nil
	}
	return regexp.MustCompile("(?i)" + regexp.QuoteMeta(search))
}
