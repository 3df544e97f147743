// Package services holds the domain rules: validation, ownership and admin
// checks, and the translation of storage errors into domain errors.
package services

import (
	"errors"
	"fmt"

	"locallink-be/models"
	"locallink-be/store"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("validation failed")
	ErrNoTransition = errors.New("no further status transition")
)

// Error carries a client-facing message and unwraps to one of the sentinels
// above.
type Error struct {
	kind error
	msg  string
}

func (e *Error) Error() string { return e.msg }

func (e *Error) Unwrap() error { return e.kind }

func newError(kind error, format string, args ...any) error {
	return &Error{kind: kind, msg: fmt.Sprintf(format, args...)}
}

// Invalid returns a validation error with the given message.
func Invalid(format string, args ...any) error {
	return newError(ErrValidation, format, args...)
}

// ParseID validates a path id. what names the resource in the message.
func ParseID(raw, what string) (primitive.ObjectID, error) {
	id, err := models.ParseID(raw)
	if err != nil {
		return primitive.NilObjectID, Invalid("Invalid %s ID", what)
	}
	return id, nil
}

// storeError maps repository errors. notFound is the message for a miss.
func storeError(err error, notFound string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrNotFound):
		return newError(ErrNotFound, "%s", notFound)
	case errors.Is(err, store.ErrDuplicate):
		return Invalid("A record with the same unique key already exists")
	default:
		return err
	}
}
