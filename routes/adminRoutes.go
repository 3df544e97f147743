package routes

import (
	"locallink-be/middlewares"

	"github.com/gin-gonic/gin"
)

// adminRoutes sets up issue triage and comment moderation
func adminRoutes(api *gin.RouterGroup, h handlers) {
	admin := api.Group("/admin", h.authn.RequireAuth(), middlewares.RequireAdmin(h.access))
	{
		admin.GET("/issues", h.admin.GetIssues)
		admin.PATCH("/issues/:id/status", h.admin.UpdateIssueStatus)
		admin.DELETE("/issues/:id", h.admin.DeleteIssue)
		admin.GET("/comments", h.admin.GetComments)
		admin.DELETE("/comments/:id", h.admin.DeleteComment)
	}
}
