package controllers

import (
	"log/slog"
	"net/http"
	"strings"

	"locallink-be/middlewares"
	"locallink-be/models"
	"locallink-be/services"

	"github.com/gin-gonic/gin"
)

type IssueController struct {
	issues   *services.IssueService
	comments *services.CommentService
	// insecure enables the userId fallback on upvotes.
	insecure bool
	logger   *slog.Logger
}

func NewIssueController(issues *services.IssueService, comments *services.CommentService, insecure bool, logger *slog.Logger) *IssueController {
	return &IssueController{issues: issues, comments: comments, insecure: insecure, logger: logger}
}

type issueInput struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
	ImageURL    *string  `json:"imageUrl"`
}

// CreateIssue handles the creation of a new issue
func (ctl *IssueController) CreateIssue(c *gin.Context) {
	identity, ok := identityOrAbort(c)
	if !ok {
		return
	}

	var input issueInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	issue, err := ctl.issues.Create(ctx, identity, models.NewIssue{
		Title:       input.Title,
		Description: input.Description,
		Category:    models.IssueCategory(input.Category),
		Latitude:    input.Latitude,
		Longitude:   input.Longitude,
		ImageURL:    input.ImageURL,
	})
	if err != nil {
		respondError(c, ctl.logger, err)
		return
	}

	c.JSON(http.StatusCreated, issue)
}

// GetAllIssues returns every issue, newest first. Paging applies only when a
// limit is given.
func (ctl *IssueController) GetAllIssues(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	filter := issueFilterFromQuery(c)
	var issues []models.Issue
	var err error
	if _, paged := c.GetQuery("limit"); paged {
		page := pageFromQuery(c)
		issues, _, err = ctl.issues.List(ctx, filter, &page)
	} else {
		issues, _, err = ctl.issues.List(ctx, filter, nil)
	}
	if err != nil {
		respondError(c, ctl.logger, err)
		return
	}

	c.JSON(http.StatusOK, issues)
}

// GetIssue retrieves an issue by its ID with its comments
func (ctl *IssueController) GetIssue(c *gin.Context) {
	id, err := services.ParseID(c.Param("id"), "issue")
	if err != nil {
		respondError(c, ctl.logger, err)
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	issue, comments, err := ctl.issues.Detail(ctx, id)
	if err != nil {
		respondError(c, ctl.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"issue": issue, "comments": comments})
}

// UpdateIssue allows the creator of an issue to update its details
func (ctl *IssueController) UpdateIssue(c *gin.Context) {
	identity, ok := identityOrAbort(c)
	if !ok {
		return
	}
	id, err := services.ParseID(c.Param("id"), "issue")
	if err != nil {
		respondError(c, ctl.logger, err)
		return
	}

	var input struct {
		Title       *string  `json:"title"`
		Description *string  `json:"description"`
		Category    *string  `json:"category"`
		Latitude    *float64 `json:"latitude"`
		Longitude   *float64 `json:"longitude"`
		ImageURL    *string  `json:"imageUrl"`
		Status      *string  `json:"status"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if input.Status != nil {
		respondError(c, ctl.logger, services.Invalid("Status can only be changed by an administrator"))
		return
	}

	patch := models.IssuePatch{
		Title:       input.Title,
		Description: input.Description,
		Latitude:    input.Latitude,
		Longitude:   input.Longitude,
		ImageURL:    input.ImageURL,
	}
	if input.Category != nil {
		category := models.IssueCategory(*input.Category)
		patch.Category = &category
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	issue, err := ctl.issues.Update(ctx, id, identity, patch)
	if err != nil {
		respondError(c, ctl.logger, err)
		return
	}

	c.JSON(http.StatusOK, issue)
}

// DeleteIssue allows the creator of an issue to delete it
func (ctl *IssueController) DeleteIssue(c *gin.Context) {
	identity, ok := identityOrAbort(c)
	if !ok {
		return
	}
	id, err := services.ParseID(c.Param("id"), "issue")
	if err != nil {
		respondError(c, ctl.logger, err)
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	if err := ctl.issues.Delete(ctx, id, identity); err != nil {
		respondError(c, ctl.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Issue deleted successfully"})
}

// ToggleUpvote toggles the caller's upvote on an issue (upvote if not voted,
// remove the upvote otherwise).
func (ctl *IssueController) ToggleUpvote(c *gin.Context) {
	id, err := services.ParseID(c.Param("id"), "issue")
	if err != nil {
		respondError(c, ctl.logger, err)
		return
	}

	var uid string
	if identity, ok := middlewares.CurrentIdentity(c); ok {
		uid = identity.UID
	} else if ctl.insecure {
		uid = ctl.fallbackUserID(c)
		if uid == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "User ID required"})
			return
		}
		ctl.logger.WarnContext(c.Request.Context(), "upvote attributed from unverified user id", "uid", uid)
	} else {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized: No token provided"})
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	result, err := ctl.issues.ToggleUpvote(ctx, id, uid)
	if err != nil {
		respondError(c, ctl.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"upvotes":    result.Upvotes,
		"upvoted":    result.Upvoted,
		"hasUpvoted": result.Upvoted,
	})
}

// fallbackUserID reads userId from the body, then X-User-Id.
func (ctl *IssueController) fallbackUserID(c *gin.Context) string {
	var body struct {
		UserID string `json:"userId"`
	}
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&body); err != nil {
			ctl.logger.DebugContext(c.Request.Context(), "upvote body unreadable, trying X-User-Id", "error", err)
		}
	}
	if uid := strings.TrimSpace(body.UserID); uid != "" {
		return uid
	}
	return strings.TrimSpace(c.GetHeader("X-User-Id"))
}
