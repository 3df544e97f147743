package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"locallink-be/models"
	"locallink-be/store"
)

// AccessControl decides admin and ownership questions.
type AccessControl struct {
	adminEmails map[string]struct{}
	users       store.UserRepository
	logger      *slog.Logger
}

func NewAccessControl(adminEmails []string, users store.UserRepository, logger *slog.Logger) *AccessControl {
	emails := make(map[string]struct{}, len(adminEmails))
	for _, email := range adminEmails {
		if email = strings.ToLower(strings.TrimSpace(email)); email != "" {
			emails[email] = struct{}{}
		}
	}
	return &AccessControl{adminEmails: emails, users: users, logger: logger}
}

// IsAdmin checks the token's role and admin claims, then the ADMIN_EMAILS
// allow-list, then the stored user role.
func (a *AccessControl) IsAdmin(ctx context.Context, identity models.Identity) bool {
	if identity.UID == "" {
		return false
	}
	if identity.Insecure {
		a.logger.WarnContext(ctx, "granting admin without verification in insecure development mode", "uid", identity.UID)
		return true
	}
	if identity.Role == string(models.RoleAdmin) || identity.AdminClaim {
		return true
	}
	if _, ok := a.adminEmails[strings.ToLower(identity.Email)]; ok && identity.Email != "" {
		return true
	}

	user, err := a.users.GetByUID(ctx, identity.UID)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			a.logger.ErrorContext(ctx, "admin lookup failed", "uid", identity.UID, "error", err)
		}
		return false
	}
	return user.Role == models.RoleAdmin
}

func (a *AccessControl) RequireAdmin(ctx context.Context, identity models.Identity) error {
	if !a.IsAdmin(ctx, identity) {
		return newError(ErrForbidden, "Forbidden: Admin privileges required")
	}
	return nil
}

// RequireOwner passes only for the issue's author. Admins get no override
// here.
func RequireOwner(identity models.Identity, issue models.Issue) error {
	if identity.UID == "" || identity.UID != issue.Author.UID {
		return newError(ErrForbidden, "Forbidden: Not the issue owner")
	}
	return nil
}
