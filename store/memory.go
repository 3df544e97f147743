package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"locallink-be/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// NewMemoryRepositories returns empty in-process repositories. Data lives as
// long as the process does.
func NewMemoryRepositories() Repositories {
	return Repositories{
		Issues:   NewMemoryIssueRepository(),
		Comments: NewMemoryCommentRepository(),
		Users:    NewMemoryUserRepository(),
	}
}

type MemoryIssueRepository struct {
	mu     sync.RWMutex
	issues map[primitive.ObjectID]models.Issue
}

func NewMemoryIssueRepository() *MemoryIssueRepository {
	return &MemoryIssueRepository{issues: make(map[primitive.ObjectID]models.Issue)}
}

func copyIssue(issue models.Issue) models.Issue {
	issue.Upvoters = append([]string{}, issue.Upvoters...)
	if issue.ImageURL != nil {
		url := *issue.ImageURL
		issue.ImageURL = &url
	}
	return issue
}

func (r *MemoryIssueRepository) Create(_ context.Context, issue *models.Issue) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if issue.ID.IsZero() {
		issue.ID = primitive.NewObjectID()
	}
	if _, exists := r.issues[issue.ID]; exists {
		return ErrDuplicate
	}
	issue.Normalize()
	r.issues[issue.ID] = copyIssue(*issue)
	return nil
}

func (r *MemoryIssueRepository) Get(_ context.Context, id primitive.ObjectID) (models.Issue, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	issue, ok := r.issues[id]
	if !ok {
		return models.Issue{}, ErrNotFound
	}
	return copyIssue(issue), nil
}

func matchesIssue(issue models.Issue, filter IssueFilter) bool {
	if s := strings.TrimSpace(filter.Status); s != "" && string(issue.Status) != s {
		return false
	}
	if c := strings.TrimSpace(filter.Category); c != "" && string(issue.Category) != c {
		return false
	}
	if pattern := searchPattern(filter.Search); pattern != nil {
		if !pattern.MatchString(issue.Title) && !pattern.MatchString(issue.Description) {
			return false
		}
	}
	return true
}

func newer(aAt, bAt time.Time, aID, bID primitive.ObjectID) bool {
	if !aAt.Equal(bAt) {
		return aAt.After(bAt)
	}
	return aID.Hex() > bID.Hex()
}

// window slices one page out of n sorted items.
func window(n int, page *Page) (int, int) {
	if page == nil {
		return 0, n
	}
	skip := page.Skip()
	if skip < 0 || skip > int64(n) {
		skip = int64(n)
	}
	start := int(skip)
	end := start + page.Limit
	if end > n {
		end = n
	}
	return start, end
}

func (r *MemoryIssueRepository) List(_ context.Context, filter IssueFilter, page *Page) ([]models.Issue, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := make([]models.Issue, 0, len(r.issues))
	for _, issue := range r.issues {
		if matchesIssue(issue, filter) {
			matched = append(matched, copyIssue(issue))
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		return newer(matched[i].CreatedAt, matched[j].CreatedAt, matched[i].ID, matched[j].ID)
	})

	start, end := window(len(matched), page)
	return matched[start:end], int64(len(matched)), nil
}

// mutate applies fn to the stored issue under the write lock.
func (r *MemoryIssueRepository) mutate(id primitive.ObjectID, fn func(issue *models.Issue) error) (models.Issue, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	issue, ok := r.issues[id]
	if !ok {
		return models.Issue{}, ErrNotFound
	}
	issue = copyIssue(issue)
	if err := fn(&issue); err != nil {
		return models.Issue{}, err
	}
	issue.UpdatedAt = time.Now()
	r.issues[id] = issue
	return copyIssue(issue), nil
}

func (r *MemoryIssueRepository) Update(_ context.Context, id primitive.ObjectID, patch models.IssuePatch) (models.Issue, error) {
	return r.mutate(id, func(issue *models.Issue) error {
		patch.Apply(issue)
		return nil
	})
}

func (r *MemoryIssueRepository) Delete(_ context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.issues[id]; !ok {
		return ErrNotFound
	}
	delete(r.issues, id)
	return nil
}

func (r *MemoryIssueRepository) SetStatus(_ context.Context, id primitive.ObjectID, status models.IssueStatus) (models.Issue, error) {
	return r.mutate(id, func(issue *models.Issue) error {
		issue.Status = status
		return nil
	})
}

func (r *MemoryIssueRepository) CompareAndSetStatus(_ context.Context, id primitive.ObjectID, from, to models.IssueStatus) (models.Issue, error) {
	return r.mutate(id, func(issue *models.Issue) error {
		if issue.Status != from {
			return ErrConflict
		}
		issue.Status = to
		return nil
	})
}

func (r *MemoryIssueRepository) ToggleUpvote(_ context.Context, id primitive.ObjectID, uid string) (models.UpvoteResult, error) {
	var result models.UpvoteResult
	_, err := r.mutate(id, func(issue *models.Issue) error {
		kept := issue.Upvoters[:0]
		removed := false
		for _, voter := range issue.Upvoters {
			if voter == uid {
				removed = true
				continue
			}
			kept = append(kept, voter)
		}
		if removed {
			issue.Upvoters = kept
		} else {
			issue.Upvoters = append(kept, uid)
		}
		issue.Upvotes = len(issue.Upvoters)
		result = models.UpvoteResult{Upvotes: issue.Upvotes, Upvoted: !removed}
		return nil
	})
	if err != nil {
		return models.UpvoteResult{}, err
	}
	return result, nil
}

func (r *MemoryIssueRepository) Count(_ context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.issues)), nil
}

func (r *MemoryIssueRepository) CountBy(_ context.Context, field string) (map[string]int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	counts := make(map[string]int64)
	for _, issue := range r.issues {
		switch field {
		case FieldStatus:
			counts[string(issue.Status)]++
		case FieldCategory:
			counts[string(issue.Category)]++
		default:
			return nil, fmt.Errorf("unsupported aggregation field %q", field)
		}
	}
	return counts, nil
}

func (r *MemoryIssueRepository) Titles(_ context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	titles := make(map[primitive.ObjectID]string, len(ids))
	for _, id := range ids {
		if issue, ok := r.issues[id]; ok {
			titles[id] = issue.Title
		}
	}
	return titles, nil
}

type MemoryCommentRepository struct {
	mu       sync.RWMutex
	comments map[primitive.ObjectID]models.Comment
}

func NewMemoryCommentRepository() *MemoryCommentRepository {
	return &MemoryCommentRepository{comments: make(map[primitive.ObjectID]models.Comment)}
}

func (r *MemoryCommentRepository) Create(_ context.Context, comment *models.Comment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if comment.ID.IsZero() {
		comment.ID = primitive.NewObjectID()
	}
	if _, exists := r.comments[comment.ID]; exists {
		return ErrDuplicate
	}
	r.comments[comment.ID] = *comment
	return nil
}

func (r *MemoryCommentRepository) sorted(keep func(models.Comment) bool) []models.Comment {
	out := make([]models.Comment, 0)
	for _, c := range r.comments {
		if keep(c) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return newer(out[i].CreatedAt, out[j].CreatedAt, out[i].ID, out[j].ID)
	})
	return out
}

func (r *MemoryCommentRepository) ListByIssue(_ context.Context, issueID primitive.ObjectID) ([]models.Comment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.sorted(func(c models.Comment) bool { return c.IssueID == issueID }), nil
}

func (r *MemoryCommentRepository) List(_ context.Context, search string, page Page) ([]models.Comment, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	pattern := searchPattern(search)
	matched := r.sorted(func(c models.Comment) bool {
		return pattern == nil || pattern.MatchString(c.Text)
	})
	start, end := window(len(matched), &page)
	return matched[start:end], int64(len(matched)), nil
}

func (r *MemoryCommentRepository) Delete(_ context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.comments[id]; !ok {
		return ErrNotFound
	}
	delete(r.comments, id)
	return nil
}

func (r *MemoryCommentRepository) DeleteByIssue(_ context.Context, issueID primitive.ObjectID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var deleted int64
	for id, c := range r.comments {
		if c.IssueID == issueID {
			delete(r.comments, id)
			deleted++
		}
	}
	return deleted, nil
}

type MemoryUserRepository struct {
	mu    sync.RWMutex
	users map[primitive.ObjectID]models.User
}

func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{users: make(map[primitive.ObjectID]models.User)}
}

func (r *MemoryUserRepository) Upsert(_ context.Context, user models.User) (models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	var existing *models.User
	for id, u := range r.users {
		if u.UID == user.UID {
			found := r.users[id]
			existing = &found
			continue
		}
		if user.Email != "" && u.Email == user.Email {
			return models.User{}, ErrDuplicate
		}
	}

	if existing != nil {
		existing.Email = user.Email
		existing.Name = user.Name
		existing.PhotoURL = user.PhotoURL
		existing.UpdatedAt = now
		r.users[existing.ID] = *existing
		return *existing, nil
	}

	created := models.User{
		ID:        primitive.NewObjectID(),
		UID:       user.UID,
		Email:     user.Email,
		Name:      user.Name,
		PhotoURL:  user.PhotoURL,
		Role:      user.Role,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if created.Role == "" {
		created.Role = models.RoleUser
	}
	r.users[created.ID] = created
	return created, nil
}

func (r *MemoryUserRepository) Get(_ context.Context, id primitive.ObjectID) (models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[id]
	if !ok {
		return models.User{}, ErrNotFound
	}
	return user, nil
}

func (r *MemoryUserRepository) GetByUID(_ context.Context, uid string) (models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, user := range r.users {
		if user.UID == uid {
			return user, nil
		}
	}
	return models.User{}, ErrNotFound
}

func (r *MemoryUserRepository) List(_ context.Context, filter UserFilter, page Page) ([]models.User, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	pattern := searchPattern(filter.Search)
	role := strings.TrimSpace(filter.Role)

	matched := make([]models.User, 0)
	for _, user := range r.users {
		if role != "" && string(user.Role) != role {
			continue
		}
		if pattern != nil && !pattern.MatchString(user.Name) && !pattern.MatchString(user.Email) {
			continue
		}
		matched = append(matched, user)
	}
	sort.Slice(matched, func(i, j int) bool {
		return newer(matched[i].CreatedAt, matched[j].CreatedAt, matched[i].ID, matched[j].ID)
	})

	start, end := window(len(matched), &page)
	return matched[start:end], int64(len(matched)), nil
}

func (r *MemoryUserRepository) SetRole(_ context.Context, id primitive.ObjectID, role models.Role) (models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[id]
	if !ok {
		return models.User{}, ErrNotFound
	}
	user.Role = role
	user.UpdatedAt = time.Now()
	r.users[id] = user
	return user, nil
}

func (r *MemoryUserRepository) Delete(_ context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[id]; !ok {
		return ErrNotFound
	}
	delete(r.users, id)
	return nil
}

var (
	_ IssueRepository   = (*MemoryIssueRepository)(nil)
	_ CommentRepository = (*MemoryCommentRepository)(nil)
	_ UserRepository    = (*MemoryUserRepository)(nil)
)
