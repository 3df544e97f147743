package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Comment on an issue. Username is a snapshot taken at posting time.
type Comment struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	IssueID   primitive.ObjectID `bson:"issueId" json:"issueId"`
	AuthorUID string             `bson:"authorUid,omitempty" json:"authorUid,omitempty"`
	Username  string             `bson:"username" json:"username"`
	Text      string             `bson:"text" json:"text"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// CommentWithIssue is the moderation view of a comment.
type CommentWithIssue struct {
	Comment    `bson:",inline"`
	IssueTitle string `bson:"-" json:"issueTitle"`
}
