package controllers

import (
	"log/slog"
	"net/http"

	"locallink-be/services"

	"github.com/gin-gonic/gin"
)

type CommentController struct {
	comments *services.CommentService
	logger   *slog.Logger
}

func NewCommentController(comments *services.CommentService, logger *slog.Logger) *CommentController {
	return &CommentController{comments: comments, logger: logger}
}

// GetComments lists the comments on an issue, newest first
func (ctl *CommentController) GetComments(c *gin.Context) {
	issueID, err := services.ParseID(c.Param("id"), "issue")
	if err != nil {
		respondError(c, ctl.logger, err)
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	comments, err := ctl.comments.ListByIssue(ctx, issueID)
	if err != nil {
		respondError(c, ctl.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"comments": comments})
}

// GetCommentsByQuery serves the older GET /api/comments?issueId= form, which
// answers with a bare array.
func (ctl *CommentController) GetCommentsByQuery(c *gin.Context) {
	issueID, err := services.ParseID(c.Query("issueId"), "issue")
	if err != nil {
		respondError(c, ctl.logger, err)
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	comments, err := ctl.comments.ListByIssue(ctx, issueID)
	if err != nil {
		respondError(c, ctl.logger, err)
		return
	}

	c.JSON(http.StatusOK, comments)
}

// CreateComment posts a comment as the authenticated caller. A username in
// the body is ignored.
func (ctl *CommentController) CreateComment(c *gin.Context) {
	identity, ok := identityOrAbort(c)
	if !ok {
		return
	}
	issueID, err := services.ParseID(c.Param("id"), "issue")
	if err != nil {
		respondError(c, ctl.logger, err)
		return
	}

	var input struct {
		Text string `json:"text"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	comment, err := ctl.comments.Create(ctx, issueID, identity, input.Text)
	if err != nil {
		respondError(c, ctl.logger, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"comment": comment})
}
