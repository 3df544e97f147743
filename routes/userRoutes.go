package routes

import (
	"locallink-be/middlewares"

	"github.com/gin-gonic/gin"
)

// userRoutes sets up user administration
func userRoutes(api *gin.RouterGroup, h handlers) {
	users := api.Group("/admin/users", h.authn.RequireAuth(), middlewares.RequireAdmin(h.access))
	{
		users.GET("", h.users.ListUsers)
		users.PATCH("/:id", h.users.UpdateUserRole)
		users.DELETE("/:id", h.users.DeleteUser)
	}
}
