package models

import (
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Identity is what a verified bearer token says about the caller.
type Identity struct {
	UID        string
	Email      string
	Name       string
	Picture    string
	Role       string
	AdminClaim bool
	// Insecure marks identities produced without signature verification.
	Insecure bool
}

// Author snapshots the identity for an issue. Name falls back to email.
func (i Identity) Author() Author {
	name := i.Name
	if name == "" {
		name = i.Email
	}
	return Author{UID: i.UID, Email: i.Email, Name: name}
}

// DisplayName is the name shown next to comments.
func (i Identity) DisplayName() string {
	switch {
	case strings.TrimSpace(i.Name) != "":
		return strings.TrimSpace(i.Name)
	case strings.TrimSpace(i.Email) != "":
		return strings.TrimSpace(i.Email)
	default:
		return "Anonymous"
	}
}

// ParseID converts a hex path parameter into an ObjectID.
func ParseID(raw string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(strings.TrimSpace(raw))
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("invalid id %q", raw)
	}
	return id, nil
}
