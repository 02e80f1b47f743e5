package middleware

import (
	"errors"
	"net/http"
	"strings"

	"servicehub/models"
	"servicehub/services/api"
	"servicehub/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Context keys set by SessionAuth.
const (
	CtxUserID = "userID"
	CtxRole   = "role"
)

// SessionAuth validates the remote API's session token (cookie first, then a
// Bearer header), records the caller's id and role, and forwards the caller's
// cookies to the remote API through the request context.
func SessionAuth(secret []byte, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		logger := zap.L()

		tokenString, _ := c.Cookie(cookieName)
		if tokenString == "" {
			if authHeader := c.GetHeader("Authorization"); strings.HasPrefix(authHeader, "Bearer ") {
				tokenString = strings.TrimPrefix(authHeader, "Bearer ")
			}
		}
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Insufficient authorization"})
			return
		}

		claims, err := utils.ParseSessionToken(tokenString, secret)
		if err != nil {
			logger.Debug("Rejected session token", zap.Error(err))
			msg := "Invalid session"
			if errors.Is(err, utils.ErrMissingRole) {
				msg = "Session has no role"
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": msg})
			return
		}
		role, err := models.ParseRole(claims.Role)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Unknown role"})
			return
		}

		cookie := c.GetHeader("Cookie")
		if cookie == "" {
			// header-only clients still authenticate upstream through the session cookie
			cookie = (&http.Cookie{Name: cookieName, Value: tokenString}).String()
		}
		c.Request = c.Request.WithContext(api.WithCookie(c.Request.Context(), cookie))

		c.Set(CtxUserID, claims.Subject)
		c.Set(CtxRole, role)
		c.Next()
	}
}

// CurrentUser returns the id and role SessionAuth stored on the context.
func CurrentUser(c *gin.Context) (string, models.Role) {
	id := c.GetString(CtxUserID)
	role, _ := c.Get(CtxRole)
	r, _ := role.(models.Role)
	return id, r
}
