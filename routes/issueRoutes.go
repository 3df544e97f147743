package routes

import "github.com/gin-gonic/gin"

// issueRoutes sets up the issue and comment routes
func issueRoutes(api *gin.RouterGroup, h handlers) {
	issues := api.Group("/issues")
	{
		issues.GET("", h.issues.GetAllIssues)
		issues.POST("", h.authn.RequireAuth(), h.issues.CreateIssue)
		issues.GET("/:id", h.issues.GetIssue)
		issues.PATCH("/:id", h.authn.RequireAuth(), h.issues.UpdateIssue)
		issues.DELETE("/:id", h.authn.RequireAuth(), h.issues.DeleteIssue)
		issues.POST("/:id/upvote", h.authn.OptionalAuth(), h.issues.ToggleUpvote)
		issues.GET("/:id/comments", h.comments.GetComments)
		issues.POST("/:id/comments", h.authn.RequireAuth(), h.comments.CreateComment)
	}

	api.GET("/comments", h.comments.GetCommentsByQuery)
}
