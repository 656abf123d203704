package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// AdminOnly gates endpoints on the admin role asserted by the identity
// provider. Must run after AuthMiddleware.
func AdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		role, _ := c.Get("role")
		if role != "admin" {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Admin access required"})
			return
		}
		c.Next()
	}
}
