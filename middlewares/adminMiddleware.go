package middlewares

import (
	"net/http"

	"locallink-be/services"

	"github.com/gin-gonic/gin"
)

// RequireAdmin must run after RequireAuth.
func RequireAdmin(access *services.AccessControl) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := CurrentIdentity(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized: No token provided"})
			return
		}
		if !access.IsAdmin(c.Request.Context(), identity) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Forbidden: Admin privileges required"})
			return
		}
		c.Next()
	}
}
