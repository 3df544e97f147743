package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// IssueCategory enum
type IssueCategory string

const (
	Infrastructure IssueCategory = "Infrastructure"
	Sanitation     IssueCategory = "Sanitation"
	Safety         IssueCategory = "Safety"
	Environment    IssueCategory = "Environment"
	Traffic        IssueCategory = "Traffic"
	Noise          IssueCategory = "Noise"
	Other          IssueCategory = "Other"
)

// Categories lists every accepted category in display order.
var Categories = []IssueCategory{Infrastructure, Sanitation, Safety, Environment, Traffic, Noise, Other}

func (c IssueCategory) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// IssueStatus enum
type IssueStatus string

const (
	Pending    IssueStatus = "Pending"
	InProgress IssueStatus = "In Progress"
	Resolved   IssueStatus = "Resolved"
)

var Statuses = []IssueStatus{Pending, InProgress, Resolved}

func (s IssueStatus) Valid() bool {
	switch s {
	case Pending, InProgress, Resolved:
		return true
	}
	return false
}

// statusTransition is the admin workflow. Resolved maps to itself.
var statusTransition = map[IssueStatus]IssueStatus{
	Pending:    InProgress,
	InProgress: Resolved,
	Resolved:   Resolved,
}

// Next returns the following status in the workflow and whether it differs
// from the current one.
func (s IssueStatus) Next() (IssueStatus, bool) {
	next, ok := statusTransition[s]
	if !ok {
		return s, false
	}
	return next, next != s
}

// Author is the identity snapshot taken when the issue was reported.
type Author struct {
	UID   string `bson:"uid" json:"uid"`
	Email string `bson:"email" json:"email"`
	Name  string `bson:"name" json:"name"`
}

// Issue represents a civic issue reported by a user
type Issue struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title       string             `bson:"title" json:"title"`
	Description string             `bson:"description" json:"description"`
	Category    IssueCategory      `bson:"category" json:"category"`
	Latitude    float64            `bson:"latitude" json:"latitude"`
	Longitude   float64            `bson:"longitude" json:"longitude"`
	Status      IssueStatus        `bson:"status" json:"status"`
	Upvotes     int                `bson:"upvotes" json:"upvotes"`
	Upvoters    []string           `bson:"upvoters" json:"upvoters"`
	Author      Author             `bson:"author" json:"author"`
	ImageURL    *string            `bson:"imageUrl" json:"imageUrl"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// Normalize fills in the zero values a decoded document may lack so the JSON
// form always carries an upvoters array.
func (i *Issue) Normalize() {
	if i.Upvoters == nil {
		i.Upvoters = []string{}
	}
	if i.Status == "" {
		i.Status = Pending
	}
}

// HasUpvoter reports whether uid is in the upvoter set.
func (i Issue) HasUpvoter(uid string) bool {
	for _, v := range i.Upvoters {
		if v == uid {
			return true
		}
	}
	return false
}

// NewIssue carries the caller-supplied fields for a submission.
type NewIssue struct {
	Title       string
	Description string
	Category    IssueCategory
	Latitude    *float64
	Longitude   *float64
	ImageURL    *string
}

// IssuePatch holds the owner-editable fields. Nil fields are left untouched.
type IssuePatch struct {
	Title       *string
	Description *string
	Category    *IssueCategory
	Latitude    *float64
	Longitude   *float64
	ImageURL    *string
}

func (p IssuePatch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.Category == nil &&
		p.Latitude == nil && p.Longitude == nil && p.ImageURL == nil
}

// Apply copies the set fields onto issue. An empty image URL clears it.
func (p IssuePatch) Apply(issue *Issue) {
	if p.Title != nil {
		issue.Title = *p.Title
	}
	if p.Description != nil {
		issue.Description = *p.Description
	}
	if p.Category != nil {
		issue.Category = *p.Category
	}
	if p.Latitude != nil {
		issue.Latitude = *p.Latitude
	}
	if p.Longitude != nil {
		issue.Longitude = *p.Longitude
	}
	if p.ImageURL != nil {
		if *p.ImageURL == "" {
			issue.ImageURL = nil
		} else {
			url := *p.ImageURL
			issue.ImageURL = &url
		}
	}
}

// UpvoteResult is the state after a toggle.
type UpvoteResult struct {
	Upvotes int  `json:"upvotes"`
	Upvoted bool `json:"upvoted"`
}
