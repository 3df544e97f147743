package services

import (
	"context"
	"log/slog"
	"strings"

	"locallink-be/models"
	"locallink-be/store"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const userNotFound = "User not found"

type UserService struct {
	users  store.UserRepository
	access *AccessControl
	logger *slog.Logger
}

func NewUserService(users store.UserRepository, access *AccessControl, logger *slog.Logger) *UserService {
	return &UserService{users: users, access: access, logger: logger}
}

// Upsert records the caller, refreshing the profile fields on every contact.
func (s *UserService) Upsert(ctx context.Context, identity models.Identity) (models.User, error) {
	if identity.UID == "" {
		return models.User{}, Invalid("Invalid token: missing user ID")
	}
	name := strings.TrimSpace(identity.Name)
	if name == "" {
		name = identity.Email
	}

	user, err := s.users.Upsert(ctx, models.User{
		UID:      identity.UID,
		Email:    strings.ToLower(strings.TrimSpace(identity.Email)),
		Name:     name,
		PhotoURL: identity.Picture,
		Role:     models.RoleUser,
	})
	if err != nil {
		return models.User{}, storeError(err, userNotFound)
	}
	return user, nil
}

// Me returns the stored record of the caller.
func (s *UserService) Me(ctx context.Context, identity models.Identity) (models.User, error) {
	user, err := s.users.GetByUID(ctx, identity.UID)
	if err != nil {
		return models.User{}, storeError(err, userNotFound)
	}
	return user, nil
}

func (s *UserService) List(ctx context.Context, identity models.Identity, filter store.UserFilter, page store.Page) ([]models.User, int64, error) {
	if err := s.access.RequireAdmin(ctx, identity); err != nil {
		return nil, 0, err
	}
	return s.users.List(ctx, filter, page)
}

func (s *UserService) SetRole(ctx context.Context, identity models.Identity, id primitive.ObjectID, role models.Role) (models.User, error) {
	if err := s.access.RequireAdmin(ctx, identity); err != nil {
		return models.User{}, err
	}
	if !role.Valid() {
		return models.User{}, Invalid("Invalid role")
	}

	user, err := s.users.SetRole(ctx, id, role)
	if err != nil {
		return models.User{}, storeError(err, userNotFound)
	}
	s.logger.InfoContext(ctx, "user role changed", "id", id.Hex(), "role", role, "by", identity.UID)
	return user, nil
}

// Delete removes the user record only. Their issues and comments stay.
func (s *UserService) Delete(ctx context.Context, identity models.Identity, id primitive.ObjectID) error {
	if err := s.access.RequireAdmin(ctx, identity); err != nil {
		return err
	}
	if err := s.users.Delete(ctx, id); err != nil {
		return storeError(err, userNotFound)
	}
	s.logger.InfoContext(ctx, "user deleted", "id", id.Hex(), "by", identity.UID)
	return nil
}
