package auth

import (
	"context"
	"net/http"
	"strings"

	"bscar/backend/internal/models"
	"bscar/backend/pkg/jwt"

	"github.com/gin-gonic/gin"
)

const currentUserKey = "currentUser"

// UserLoader resolves the user a session token points at.
type UserLoader interface {
	GetUser(ctx context.Context, id uint) (*models.User, error)
}

// AuthMiddleware requires a valid session. The user is reloaded on every
// request so role changes, blocking included, take effect immediately.
func AuthMiddleware(users UserLoader, secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := tokenFromRequest(c)
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
			return
		}

		userID, err := jwt.ParseToken(tokenString, secret)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired session"})
			return
		}

		user, err := users.GetUser(c.Request.Context(), userID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Session user no longer exists"})
			return
		}
		if user.IsBlocked() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "This account has been blocked"})
			return
		}

		c.Set(currentUserKey, *user)
		c.Next()
	}
}

// CurrentUser returns the principal resolved by AuthMiddleware or
// OptionalAuthMiddleware.
func CurrentUser(c *gin.Context) (models.User, bool) {
	value, exists := c.Get(currentUserKey)
	if !exists {
		return models.User{}, false
	}
	user, ok := value.(models.User)
	return user, ok
}

// tokenFromRequest prefers an "Authorization: Bearer" header and falls back
// to the session cookie.
func tokenFromRequest(c *gin.Context) string {
	if authHeader := c.GetHeader("Authorization"); authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
		return ""
	}
	if cookie, err := c.Cookie(SessionCookie); err == nil {
		return cookie
	}
	return ""
}
