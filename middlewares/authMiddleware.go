package middlewares

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"civicsync/models"
	"civicsync/utils"
)

// Context keys set by AuthMiddleware.
const (
	UserIDKey = "user_id"
	RoleKey   = "role"
)

// AuthMiddleware verifies the bearer token and stores its user id and role
// in the request context.
func AuthMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.Request.Header.Get("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				models.NewErrorEnvelope(models.CodeUnauthorized, "No authorization token provided"))
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		claims, err := utils.ParseToken(secret, tokenString)
		if err != nil {
			slog.Debug("token validation failed", "error", err)
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				models.NewErrorEnvelope(models.CodeUnauthorized, "Invalid authorization token"))
			return
		}

		c.Set(UserIDKey, claims.UserID)
		c.Set(RoleKey, claims.Role)
		c.Next()
	}
}

// RequireAdmin rejects requests whose token does not carry the admin role.
// It must run after AuthMiddleware.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if role, _ := c.Get(RoleKey); role != models.RoleAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden,
				models.NewErrorEnvelope(models.CodeForbidden, "Admin role required"))
			return
		}
		c.Next()
	}
}

// UserID returns the authenticated user id set by AuthMiddleware.
func UserID(c *gin.Context) string {
	return c.GetString(UserIDKey)
}
