package middlewares

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"locallink-be/auth"
	"locallink-be/models"
	"locallink-be/services"

	"github.com/gin-gonic/gin"
)

const identityKey = "identity"

const upsertTimeout = 5 * time.Second

// Authenticator verifies bearer tokens and records the caller in the user
// directory.
type Authenticator struct {
	verifier auth.Verifier
	users    *services.UserService
	logger   *slog.Logger
}

func NewAuthenticator(verifier auth.Verifier, users *services.UserService, logger *slog.Logger) *Authenticator {
	return &Authenticator{verifier: verifier, users: users, logger: logger}
}

// Insecure reports whether tokens are accepted without signature checks.
func (a *Authenticator) Insecure() bool {
	return a.verifier.Mode() == auth.ModeInsecure
}

// RequireAuth rejects the request unless it carries a valid bearer token.
func (a *Authenticator) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := auth.BearerToken(c.GetHeader("Authorization"))
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized: No token provided"})
			return
		}

		identity, err := a.verifier.Verify(c.Request.Context(), token)
		if err != nil {
			a.logger.InfoContext(c.Request.Context(), "token rejected", "path", c.FullPath(), "request_id", c.GetString(requestIDKey), "error", err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized: Invalid token"})
			return
		}

		a.record(c, identity)
		c.Set(identityKey, identity)
		c.Next()
	}
}

// OptionalAuth attaches the identity when a valid token is present and lets
// the request through either way.
func (a *Authenticator) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if token, ok := auth.BearerToken(c.GetHeader("Authorization")); ok {
			if identity, err := a.verifier.Verify(c.Request.Context(), token); err == nil {
				a.record(c, identity)
				c.Set(identityKey, identity)
			}
		}
		c.Next()
	}
}

// record upserts the caller. Failures are logged and never fail the request.
func (a *Authenticator) record(c *gin.Context, identity models.Identity) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), upsertTimeout)
	defer cancel()

	if _, err := a.users.Upsert(ctx, identity); err != nil {
		a.logger.WarnContext(ctx, "user upsert failed", "uid", identity.UID, "request_id", c.GetString(requestIDKey), "error", err)
	}
}

// CurrentIdentity returns the identity set by RequireAuth or OptionalAuth.
func CurrentIdentity(c *gin.Context) (models.Identity, bool) {
	value, ok := c.Get(identityKey)
	if !ok {
		return models.Identity{}, false
	}
	identity, ok := value.(models.Identity)
	return identity, ok
}
