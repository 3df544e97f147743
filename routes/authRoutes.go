package routes

import "github.com/gin-gonic/gin"

// authRoutes sets up the routes for the caller's own user record
func authRoutes(api *gin.RouterGroup, h handlers) {
	auth := api.Group("/auth", h.authn.RequireAuth())
	{
		auth.POST("", h.auth.SyncUser)
		auth.GET("", h.auth.GetMe)
	}
}
