package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIssueStatusNext(t *testing.T) {
	cases := []struct {
		from    IssueStatus
		want    IssueStatus
		changed bool
	}{
		{Pending, InProgress, true},
		{InProgress, Resolved, true},
		{Resolved, Resolved, false},
		{IssueStatus("Closed"), IssueStatus("Closed"), false},
	}
	for _, tc := range cases {
		t.Run(string(tc.from), func(t *testing.T) {
			got, changed := tc.from.Next()
			assert.Equal(t, tc.want, got)
			assert.Equal(t, tc.changed, changed)
		})
	}
}

func TestCategoryAndRoleValidation(t *testing.T) {
	for _, c := range Categories {
		assert.True(t, c.Valid(), c)
	}
	assert.False(t, IssueCategory("Road").Valid())
	assert.False(t, IssueCategory("").Valid())

	assert.True(t, RoleModerator.Valid())
	assert.False(t, Role("owner").Valid())
	assert.False(t, IssueStatus("pending").Valid())
}

func TestIssuePatchApply(t *testing.T) {
	url := "https://img.example/a.png"
	issue := Issue{Title: "old", Description: "desc", ImageURL: &url}

	title := "new"
	empty := ""
	lat := 24.86
	IssuePatch{Title: &title, Latitude: &lat, ImageURL: &empty}.Apply(&issue)

	assert.Equal(t, "new", issue.Title)
	assert.Equal(t, "desc", issue.Description)
	assert.Equal(t, 24.86, issue.Latitude)
	assert.Nil(t, issue.ImageURL)
	assert.True(t, IssuePatch{}.Empty())
}

func TestIdentityFallbacks(t *testing.T) {
	id := Identity{UID: "u1", Email: "a@b.c"}
	assert.Equal(t, Author{UID: "u1", Email: "a@b.c", Name: "a@b.c"}, id.Author())
	assert.Equal(t, "a@b.c", id.DisplayName())
	assert.Equal(t, "Anonymous", Identity{UID: "u2"}.DisplayName())
	assert.Equal(t, "Ann", Identity{Name: " Ann "}.DisplayName())
}

func TestParseID(t *testing.T) {
	_, err := ParseID("not-an-id")
	assert.Error(t, err)

	id, err := ParseID("64b7f0c2a1b2c3d4e5f60718")
	assert.NoError(t, err)
	assert.Equal(t, "64b7f0c2a1b2c3d4e5f60718", id.Hex())
}
