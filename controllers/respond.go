package controllers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"locallink-be/auth"
	"locallink-be/middlewares"
	"locallink-be/models"
	"locallink-be/services"
	"locallink-be/store"

	"github.com/gin-gonic/gin"
)

const requestTimeout = 10 * time.Second

// requestContext bounds the work a handler does on behalf of one request.
func requestContext(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), requestTimeout)
}

// respondError maps domain errors to status codes. Anything unrecognised is a
// 500 whose detail only goes to the log.
func respondError(c *gin.Context, logger *slog.Logger, err error) {
	var status int
	switch {
	case errors.Is(err, auth.ErrUnauthenticated):
		status = http.StatusUnauthorized
	case errors.Is(err, services.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, services.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, services.ErrValidation), errors.Is(err, services.ErrNoTransition):
		status = http.StatusBadRequest
	default:
		logger.ErrorContext(c.Request.Context(), "request failed",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"request_id", middlewares.RequestID(c),
			"error", err,
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// identityOrAbort fetches the caller set by the auth middleware.
func identityOrAbort(c *gin.Context) (models.Identity, bool) {
	identity, ok := middlewares.CurrentIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized: No token provided"})
		return models.Identity{}, false
	}
	return identity, true
}

// pageFromQuery reads page and limit, clamped to the listing bounds.
func pageFromQuery(c *gin.Context) store.Page {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(store.DefaultLimit)))
	return store.NewPage(page, limit)
}

func issueFilterFromQuery(c *gin.Context) store.IssueFilter {
	return store.IssueFilter{
		Status:   c.Query("status"),
		Category: c.Query("category"),
		Search:   c.Query("search"),
	}
}
