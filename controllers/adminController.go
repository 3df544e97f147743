package controllers

import (
	"fmt"
	"log/slog"
	"net/http"

	"locallink-be/models"
	"locallink-be/services"

	"github.com/gin-gonic/gin"
)

// AdminController serves issue triage and comment moderation.
type AdminController struct {
	issues    *services.IssueService
	comments  *services.CommentService
	analytics *services.AnalyticsService
	logger    *slog.Logger
}

func NewAdminController(issues *services.IssueService, comments *services.CommentService, analytics *services.AnalyticsService, logger *slog.Logger) *AdminController {
	return &AdminController{issues: issues, comments: comments, analytics: analytics, logger: logger}
}

// GetIssues returns a filtered page of issues plus collection-wide counts
func (ctl *AdminController) GetIssues(c *gin.Context) {
	identity, ok := identityOrAbort(c)
	if !ok {
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	result, err := ctl.analytics.AdminIssues(ctx, identity, issueFilterFromQuery(c), pageFromQuery(c))
	if err != nil {
		respondError(c, ctl.logger, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// UpdateIssueStatus moves an issue to the next status or sets one directly
func (ctl *AdminController) UpdateIssueStatus(c *gin.Context) {
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
		Action string `json:"action"`
		Status string `json:"status"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	issue, err := ctl.issues.SetStatus(ctx, id, identity, services.StatusChange{
		Action: input.Action,
		Status: models.IssueStatus(input.Status),
	})
	if err != nil {
		respondError(c, ctl.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": fmt.Sprintf("Status updated to %s", issue.Status),
		"issue":   issue,
	})
}

// DeleteIssue removes any issue together with its comments
func (ctl *AdminController) DeleteIssue(c *gin.Context) {
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

	if err := ctl.issues.AdminDelete(ctx, id, identity); err != nil {
		respondError(c, ctl.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Issue deleted successfully"})
}

// GetComments returns a page of comments with their issue titles
func (ctl *AdminController) GetComments(c *gin.Context) {
	identity, ok := identityOrAbort(c)
	if !ok {
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	result, err := ctl.analytics.AdminComments(ctx, identity, c.Query("search"), pageFromQuery(c))
	if err != nil {
		respondError(c, ctl.logger, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// DeleteComment removes a comment
func (ctl *AdminController) DeleteComment(c *gin.Context) {
	identity, ok := identityOrAbort(c)
	if !ok {
		return
	}
	id, err := services.ParseID(c.Param("id"), "comment")
	if err != nil {
		respondError(c, ctl.logger, err)
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	if err := ctl.comments.Delete(ctx, id, identity); err != nil {
		respondError(c, ctl.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Comment deleted successfully"})
}
