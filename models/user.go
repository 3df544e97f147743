package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role enum
type Role string

const (
	RoleUser      Role = "user"
	RoleModerator Role = "moderator"
	RoleAdmin     Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleModerator, RoleAdmin:
		return true
	}
	return false
}

// User is the local record of an external identity.
type User struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UID       string             `bson:"uid" json:"uid"`
	Email     string             `bson:"email" json:"email"`
	Name      string             `bson:"name" json:"name"`
	PhotoURL  string             `bson:"photoURL,omitempty" json:"photoURL,omitempty"`
	Role      Role               `bson:"role" json:"role"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}
