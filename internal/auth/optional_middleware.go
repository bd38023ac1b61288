package auth

import (
	"bscar/backend/pkg/jwt"

	"github.com/gin-gonic/gin"
)

// OptionalAuthMiddleware sets the current user if a valid session is present,
// but does not fail if the token is missing or invalid. Blocked users are
// treated as anonymous.
func OptionalAuthMiddleware(users UserLoader, secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if tokenString := tokenFromRequest(c); tokenString != "" {
			if userID, err := jwt.ParseToken(tokenString, secret); err == nil {
				if user, err := users.GetUser(c.Request.Context(), userID); err == nil && !user.IsBlocked() {
					c.Set(currentUserKey, *user)
				}
			}
		}
		c.Next()
	}
}
