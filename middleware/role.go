package middleware

import (
	"net/http"

	"servicehub/models"

	"github.com/gin-gonic/gin"
)

// RequireRole lets the request through only when the session role is one of roles.
func RequireRole(roles ...models.Role) gin.HandlerFunc {
	allowed := make(map[models.Role]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(c *gin.Context) {
		_, role := CurrentUser(c)
		if !allowed[role] {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": "Access denied for role '" + string(role) + "'",
			})
			return
		}
		c.Next()
	}
}
