package services

import (
	"context"
	"strings"
	"sync"
	"testing"

	"locallink-be/logging"
	"locallink-be/models"
	"locallink-be/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type fixture struct {
	repos     store.Repositories
	access    *AccessControl
	issues    *IssueService
	comments  *CommentService
	users     *UserService
	analytics *AnalyticsService
}

var (
	u1    = models.Identity{UID: "u1", Email: "u1@example.com", Name: "User One"}
	u2    = models.Identity{UID: "u2", Email: "u2@example.com"}
	admin = models.Identity{UID: "admin-1", Email: "ops@city.gov", Role: "admin"}
)

func newFixture(t *testing.T, adminEmails ...string) fixture {
	t.Helper()
	log := logging.Discard()
	repos := store.NewMemoryRepositories()
	access := NewAccessControl(adminEmails, repos.Users, log)
	return fixture{
		repos:     repos,
		access:    access,
		issues:    NewIssueService(repos, access, log),
		comments:  NewCommentService(repos, access, log),
		users:     NewUserService(repos.Users, access, log),
		analytics: NewAnalyticsService(repos, access, log),
	}
}

func ptr[T any](v T) *T { return &v }

func streetlight() models.NewIssue {
	return models.NewIssue{
		Title:       "Broken streetlight",
		Description: "The light at the corner has been out for a week",
		Category:    models.Infrastructure,
		Latitude:    ptr(24.86),
		Longitude:   ptr(67.00),
	}
}

func (f fixture) create(t *testing.T, who models.Identity, in models.NewIssue) models.Issue {
	t.Helper()
	issue, err := f.issues.Create(context.Background(), who, in)
	require.NoError(t, err)
	return issue
}

func TestCreateIssueDefaults(t *testing.T) {
	f := newFixture(t)
	in := streetlight()
	in.Title = "  Broken streetlight  "
	in.ImageURL = ptr("   ")

	issue := f.create(t, u1, in)
	assert.False(t, issue.ID.IsZero())
	assert.Equal(t, "Broken streetlight", issue.Title)
	assert.Equal(t, models.Pending, issue.Status)
	assert.Equal(t, 0, issue.Upvotes)
	assert.Empty(t, issue.Upvoters)
	assert.Equal(t, models.Author{UID: "u1", Email: "u1@example.com", Name: "User One"}, issue.Author)
	assert.Nil(t, issue.ImageURL)
	assert.False(t, issue.CreatedAt.IsZero())
}

func TestCreateIssueValidation(t *testing.T) {
	f := newFixture(t)
	cases := map[string]func(*models.NewIssue){
		"blank title":        func(in *models.NewIssue) { in.Title = "   " },
		"long title":         func(in *models.NewIssue) { in.Title = strings.Repeat("a", MaxTitleLength+1) },
		"blank description":  func(in *models.NewIssue) { in.Description = "" },
		"long description":   func(in *models.NewIssue) { in.Description = strings.Repeat("d", MaxDescriptionLength+1) },
		"unknown category":   func(in *models.NewIssue) { in.Category = "Roads" },
		"missing latitude":   func(in *models.NewIssue) { in.Latitude = nil },
		"missing longitude":  func(in *models.NewIssue) { in.Longitude = nil },
		"latitude too large": func(in *models.NewIssue) { in.Latitude = ptr(91.0) },
		"longitude too low":  func(in *models.NewIssue) { in.Longitude = ptr(-180.5) },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			in := streetlight()
			mutate(&in)
			_, err := f.issues.Create(context.Background(), u1, in)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}

	total, err := f.repos.Issues.Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, total, "nothing is persisted on validation failure")
}

func TestStreetlightScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	issue := f.create(t, u1, streetlight())
	assert.Equal(t, "u1", issue.Author.UID)
	assert.Equal(t, models.Pending, issue.Status)

	resolved, err := f.issues.SetStatus(ctx, issue.ID, admin, StatusChange{Action: ActionSet, Status: models.Resolved})
	require.NoError(t, err)
	assert.Equal(t, models.Resolved, resolved.Status)

	_, err = f.issues.SetStatus(ctx, issue.ID, u1, StatusChange{Action: ActionNext})
	assert.ErrorIs(t, err, ErrForbidden, "u1 is not an admin")

	f.access.adminEmails["u1@example.com"] = struct{}{}
	_, err = f.issues.SetStatus(ctx, issue.ID, u1, StatusChange{Action: ActionNext})
	assert.ErrorIs(t, err, ErrNoTransition)
}

func TestStatusNextWalksWorkflow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	issue := f.create(t, u1, streetlight())

	next := StatusChange{Action: ActionNext}
	got, err := f.issues.SetStatus(ctx, issue.ID, admin, next)
	require.NoError(t, err)
	assert.Equal(t, models.InProgress, got.Status)

	got, err = f.issues.SetStatus(ctx, issue.ID, admin, next)
	require.NoError(t, err)
	assert.Equal(t, models.Resolved, got.Status)

	_, err = f.issues.SetStatus(ctx, issue.ID, admin, next)
	assert.ErrorIs(t, err, ErrNoTransition)

	_, err = f.issues.SetStatus(ctx, issue.ID, admin, StatusChange{Action: ActionSet, Status: "Closed"})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.issues.SetStatus(ctx, issue.ID, admin, StatusChange{Action: "skip"})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.issues.SetStatus(ctx, primitive.NewObjectID(), admin, next)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestConcurrentStatusNextNeverSkips(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	issue := f.create(t, u1, streetlight())

	var wg sync.WaitGroup
	results := make(chan error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.issues.SetStatus(ctx, issue.ID, admin, StatusChange{Action: ActionNext})
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	for err := range results {
		assert.NoError(t, err)
	}
	got, err := f.issues.Get(ctx, issue.ID)
	require.NoError(t, err)
	assert.Equal(t, models.Resolved, got.Status)
}

func TestUpvoteScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	issue := f.create(t, u1, streetlight())

	res, err := f.issues.ToggleUpvote(ctx, issue.ID, "u1")
	require.NoError(t, err)
	assert.Equal(t, models.UpvoteResult{Upvotes: 1, Upvoted: true}, res)

	res, err = f.issues.ToggleUpvote(ctx, issue.ID, "u2")
	require.NoError(t, err)
	assert.Equal(t, models.UpvoteResult{Upvotes: 2, Upvoted: true}, res)

	res, err = f.issues.ToggleUpvote(ctx, issue.ID, "u1")
	require.NoError(t, err)
	assert.Equal(t, models.UpvoteResult{Upvotes: 1, Upvoted: false}, res)

	got, err := f.issues.Get(ctx, issue.ID)
	require.NoError(t, err)
	assert.Equal(t, len(got.Upvoters), got.Upvotes)

	_, err = f.issues.ToggleUpvote(ctx, issue.ID, " ")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.issues.ToggleUpvote(ctx, primitive.NewObjectID(), "u1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDoubleToggleRestoresCount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	issue := f.create(t, u1, streetlight())
	_, err := f.issues.ToggleUpvote(ctx, issue.ID, "u2")
	require.NoError(t, err)

	for _, uid := range []string{"u2", "u3"} {
		_, err := f.issues.ToggleUpvote(ctx, issue.ID, uid)
		require.NoError(t, err)
		res, err := f.issues.ToggleUpvote(ctx, issue.ID, uid)
		require.NoError(t, err)
		assert.Equal(t, 1, res.Upvotes, uid)
	}
}

func TestNonOwnerCannotUpdateAnyField(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	issue := f.create(t, u1, streetlight())

	category := models.Safety
	patches := map[string]models.IssuePatch{
		"title":       {Title: ptr("Hijacked")},
		"description": {Description: ptr("Hijacked")},
		"category":    {Category: &category},
		"latitude":    {Latitude: ptr(1.0)},
		"longitude":   {Longitude: ptr(1.0)},
		"imageUrl":    {ImageURL: ptr("https://evil.example/x.png")},
	}
	for field, patch := range patches {
		t.Run(field, func(t *testing.T) {
			_, err := f.issues.Update(ctx, issue.ID, u2, patch)
			assert.ErrorIs(t, err, ErrForbidden)
			_, err = f.issues.Update(ctx, issue.ID, admin, patch)
			assert.ErrorIs(t, err, ErrForbidden, "admins have no owner override")
		})
	}

	got, err := f.issues.Get(ctx, issue.ID)
	require.NoError(t, err)
	assert.Equal(t, issue.Title, got.Title)
}

func TestOwnerUpdate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	in := streetlight()
	in.ImageURL = ptr("https://img.example/a.png")
	issue := f.create(t, u1, in)

	updated, err := f.issues.Update(ctx, issue.ID, u1, models.IssuePatch{
		Title:    ptr("  Streetlight still broken "),
		ImageURL: ptr(""),
	})
	require.NoError(t, err)
	assert.Equal(t, "Streetlight still broken", updated.Title)
	assert.Equal(t, issue.Description, updated.Description)
	assert.Nil(t, updated.ImageURL)
	assert.Equal(t, issue.Author, updated.Author)

	_, err = f.issues.Update(ctx, issue.ID, u1, models.IssuePatch{})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.issues.Update(ctx, issue.ID, u1, models.IssuePatch{Latitude: ptr(-95.0)})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.issues.Update(ctx, primitive.NewObjectID(), u1, models.IssuePatch{Title: ptr("x")})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteCascadesComments(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	issue := f.create(t, u1, streetlight())
	other := f.create(t, u2, streetlight())

	for _, text := range []string{"same here", "+1"} {
		_, err := f.comments.Create(ctx, issue.ID, u2, text)
		require.NoError(t, err)
	}
	_, err := f.comments.Create(ctx, other.ID, u1, "unrelated")
	require.NoError(t, err)

	assert.ErrorIs(t, f.issues.Delete(ctx, issue.ID, u2), ErrForbidden)
	require.NoError(t, f.issues.Delete(ctx, issue.ID, u1))

	_, err = f.issues.Get(ctx, issue.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	left, err := f.repos.Comments.ListByIssue(ctx, issue.ID)
	require.NoError(t, err)
	assert.Empty(t, left)

	kept, err := f.comments.ListByIssue(ctx, other.ID)
	require.NoError(t, err)
	assert.Len(t, kept, 1)

	assert.ErrorIs(t, f.issues.AdminDelete(ctx, other.ID, u1), ErrForbidden)
	require.NoError(t, f.issues.AdminDelete(ctx, other.ID, admin))
	assert.ErrorIs(t, f.issues.AdminDelete(ctx, other.ID, admin), ErrNotFound)
}

func TestListFiltersIntersect(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.create(t, u1, streetlight())
	noise := streetlight()
	noise.Title, noise.Category = "Construction at night", models.Noise
	f.create(t, u1, noise)
	resolved := f.create(t, u1, streetlight())
	_, err := f.issues.SetStatus(ctx, resolved.ID, admin, StatusChange{Action: ActionSet, Status: models.Resolved})
	require.NoError(t, err)

	issues, total, err := f.issues.List(ctx, store.IssueFilter{Status: "Pending", Category: "Infrastructure"}, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, models.Pending, issues[0].Status)
	assert.Equal(t, models.Infrastructure, issues[0].Category)

	issues, _, err = f.issues.List(ctx, store.IssueFilter{Search: "NIGHT"}, nil)
	require.NoError(t, err)
	require.Len(t, issues, 1)
	assert.Equal(t, models.Noise, issues[0].Category)
}

func TestComments(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	issue := f.create(t, u1, streetlight())

	c, err := f.comments.Create(ctx, issue.ID, u1, "  Reported to the council  ")
	require.NoError(t, err)
	assert.Equal(t, "Reported to the council", c.Text)
	assert.Equal(t, "User One", c.Username)
	assert.Equal(t, "u1", c.AuthorUID)

	c, err = f.comments.Create(ctx, issue.ID, u2, "me too")
	require.NoError(t, err)
	assert.Equal(t, "u2@example.com", c.Username)

	c, err = f.comments.Create(ctx, issue.ID, models.Identity{UID: "anon"}, "hello")
	require.NoError(t, err)
	assert.Equal(t, "Anonymous", c.Username)

	_, err = f.comments.Create(ctx, issue.ID, u1, "   ")
	assert.ErrorIs(t, err, ErrValidation)
	_, err = f.comments.Create(ctx, issue.ID, u1, strings.Repeat("x", MaxCommentLength+1))
	assert.ErrorIs(t, err, ErrValidation)
	_, err = f.comments.Create(ctx, primitive.NewObjectID(), u1, "orphan")
	assert.ErrorIs(t, err, ErrNotFound)

	list, err := f.comments.ListByIssue(ctx, issue.ID)
	require.NoError(t, err)
	assert.Len(t, list, 3)
	_, err = f.comments.ListByIssue(ctx, primitive.NewObjectID())
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, f.comments.Delete(ctx, list[0].ID, u1), ErrForbidden)
	require.NoError(t, f.comments.Delete(ctx, list[0].ID, admin))
	assert.ErrorIs(t, f.comments.Delete(ctx, list[0].ID, admin), ErrNotFound)
}

func TestAccessControl(t *testing.T) {
	f := newFixture(t, "Root@City.gov")
	ctx := context.Background()

	assert.True(t, f.access.IsAdmin(ctx, models.Identity{UID: "a", Role: "admin"}))
	assert.True(t, f.access.IsAdmin(ctx, models.Identity{UID: "b", AdminClaim: true}))
	assert.True(t, f.access.IsAdmin(ctx, models.Identity{UID: "c", Email: "root@city.gov"}))
	assert.True(t, f.access.IsAdmin(ctx, models.Identity{UID: "d", Insecure: true}))
	assert.False(t, f.access.IsAdmin(ctx, models.Identity{UID: "e", Role: "moderator"}))
	assert.False(t, f.access.IsAdmin(ctx, models.Identity{Role: "admin"}), "no uid, no access")

	stored, err := f.users.Upsert(ctx, u2)
	require.NoError(t, err)
	assert.False(t, f.access.IsAdmin(ctx, u2))

	_, err = f.users.SetRole(ctx, admin, stored.ID, models.RoleAdmin)
	require.NoError(t, err)
	assert.True(t, f.access.IsAdmin(ctx, u2), "stored role makes setRole effective")

	assert.NoError(t, RequireOwner(u1, models.Issue{Author: models.Author{UID: "u1"}}))
	assert.ErrorIs(t, RequireOwner(u2, models.Issue{Author: models.Author{UID: "u1"}}), ErrForbidden)
}

func TestUserDirectory(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.users.Upsert(ctx, models.Identity{UID: "u1", Email: "Ann@Example.com", Picture: "https://img/p.png"})
	require.NoError(t, err)
	assert.Equal(t, models.RoleUser, created.Role)
	assert.Equal(t, "ann@example.com", created.Email)
	assert.Equal(t, "Ann@Example.com", created.Name)

	again, err := f.users.Upsert(ctx, models.Identity{UID: "u1", Email: "ann@example.com", Name: "Ann"})
	require.NoError(t, err)
	assert.Equal(t, created.ID, again.ID)
	assert.Equal(t, "Ann", again.Name)

	_, err = f.users.Upsert(ctx, models.Identity{UID: "u9", Email: "ann@example.com"})
	assert.ErrorIs(t, err, ErrValidation)

	me, err := f.users.Me(ctx, models.Identity{UID: "u1"})
	require.NoError(t, err)
	assert.Equal(t, created.ID, me.ID)
	_, err = f.users.Me(ctx, models.Identity{UID: "nobody"})
	assert.ErrorIs(t, err, ErrNotFound)

	_, _, err = f.users.List(ctx, u2, store.UserFilter{}, store.NewPage(1, 10))
	assert.ErrorIs(t, err, ErrForbidden)
	users, total, err := f.users.List(ctx, admin, store.UserFilter{Search: "ANN"}, store.NewPage(1, 10))
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, "u1", users[0].UID)

	_, err = f.users.SetRole(ctx, admin, created.ID, "owner")
	assert.ErrorIs(t, err, ErrValidation)
	_, err = f.users.SetRole(ctx, u2, created.ID, models.RoleAdmin)
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = f.users.SetRole(ctx, admin, primitive.NewObjectID(), models.RoleAdmin)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, f.users.Delete(ctx, admin, created.ID))
	assert.ErrorIs(t, f.users.Delete(ctx, admin, created.ID), ErrNotFound)
}

func TestAdminIssuesAnalytics(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		f.create(t, u1, streetlight())
	}
	noise := streetlight()
	noise.Category = models.Noise
	n := f.create(t, u2, noise)
	_, err := f.issues.SetStatus(ctx, n.ID, admin, StatusChange{Action: ActionNext})
	require.NoError(t, err)

	_, err = f.analytics.AdminIssues(ctx, u1, store.IssueFilter{}, store.NewPage(1, 10))
	assert.ErrorIs(t, err, ErrForbidden)

	page, err := f.analytics.AdminIssues(ctx, admin, store.IssueFilter{Category: "Noise"}, store.NewPage(1, 2))
	require.NoError(t, err)
	assert.Len(t, page.Issues, 1)
	assert.Equal(t, Pagination{Page: 1, Limit: 2, Total: 1, Pages: 1}, page.Pagination)
	assert.Equal(t, int64(4), page.Analytics.TotalIssues, "analytics ignore the filter")
	assert.Equal(t, map[string]int64{"Pending": 3, "In Progress": 1}, page.Analytics.StatusCounts)
	assert.Equal(t, map[string]int64{"Infrastructure": 3, "Noise": 1}, page.Analytics.CategoryCounts)

	page, err = f.analytics.AdminIssues(ctx, admin, store.IssueFilter{}, store.NewPage(2, 3))
	require.NoError(t, err)
	assert.Len(t, page.Issues, 1)
	assert.Equal(t, 2, page.Pagination.Pages)
}

func TestAdminCommentsDecoratesTitles(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	issue := f.create(t, u1, streetlight())

	_, err := f.comments.Create(ctx, issue.ID, u2, "Still dark tonight")
	require.NoError(t, err)
	orphan := models.Comment{IssueID: primitive.NewObjectID(), Username: "ghost", Text: "left behind"}
	require.NoError(t, f.repos.Comments.Create(ctx, &orphan))

	page, err := f.analytics.AdminComments(ctx, admin, "", store.NewPage(1, 10))
	require.NoError(t, err)
	require.Len(t, page.Comments, 2)
	titles := map[string]string{}
	for _, c := range page.Comments {
		titles[c.Text] = c.IssueTitle
	}
	assert.Equal(t, "Broken streetlight", titles["Still dark tonight"])
	assert.Equal(t, "", titles["left behind"])

	page, err = f.analytics.AdminComments(ctx, admin, "DARK", store.NewPage(1, 10))
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.Pagination.Total)

	_, err = f.analytics.AdminComments(ctx, u2, "", store.NewPage(1, 10))
	assert.ErrorIs(t, err, ErrForbidden)
}
