package controllers

import (
	"log/slog"
	"net/http"

	"locallink-be/models"
	"locallink-be/services"
	"locallink-be/store"

	"github.com/gin-gonic/gin"
)

// UserController is the admin view of the user directory.
type UserController struct {
	users  *services.UserService
	logger *slog.Logger
}

func NewUserController(users *services.UserService, logger *slog.Logger) *UserController {
	return &UserController{users: users, logger: logger}
}

// ListUsers returns one page of users, optionally filtered by search and role
func (ctl *UserController) ListUsers(c *gin.Context) {
	identity, ok := identityOrAbort(c)
	if !ok {
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	page := pageFromQuery(c)
	users, total, err := ctl.users.List(ctx, identity, store.UserFilter{
		Search: c.Query("search"),
		Role:   c.Query("role"),
	}, page)
	if err != nil {
		respondError(c, ctl.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"users":      users,
		"pagination": services.NewPagination(page, total),
	})
}

// UpdateUserRole changes a user's role
func (ctl *UserController) UpdateUserRole(c *gin.Context) {
	identity, ok := identityOrAbort(c)
	if !ok {
		return
	}
	id, err := services.ParseID(c.Param("id"), "user")
	if err != nil {
		respondError(c, ctl.logger, err)
		return
	}

	var input struct {
		Role string `json:"role"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	user, err := ctl.users.SetRole(ctx, identity, id, models.Role(input.Role))
	if err != nil {
		respondError(c, ctl.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user, "message": "User role updated successfully"})
}

// DeleteUser removes a user record. Their issues and comments are kept.
func (ctl *UserController) DeleteUser(c *gin.Context) {
	identity, ok := identityOrAbort(c)
	if !ok {
		return
	}
	id, err := services.ParseID(c.Param("id"), "user")
	if err != nil {
		respondError(c, ctl.logger, err)
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	if err := ctl.users.Delete(ctx, identity, id); err != nil {
		respondError(c, ctl.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "User deleted successfully"})
}
