package controllers

import (
	"log/slog"
	"net/http"

	"locallink-be/services"

	"github.com/gin-gonic/gin"
)

// AuthController exposes the caller's own user record. Sign-in itself
// happens at the identity provider.
type AuthController struct {
	users  *services.UserService
	logger *slog.Logger
}

func NewAuthController(users *services.UserService, logger *slog.Logger) *AuthController {
	return &AuthController{users: users, logger: logger}
}

// SyncUser creates or refreshes the caller's user record from the token
func (ctl *AuthController) SyncUser(c *gin.Context) {
	identity, ok := identityOrAbort(c)
	if !ok {
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	user, err := ctl.users.Upsert(ctx, identity)
	if err != nil {
		respondError(c, ctl.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user})
}

// GetMe retrieves the authenticated user's information
func (ctl *AuthController) GetMe(c *gin.Context) {
	identity, ok := identityOrAbort(c)
	if !ok {
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	user, err := ctl.users.Me(ctx, identity)
	if err != nil {
		respondError(c, ctl.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user})
}
