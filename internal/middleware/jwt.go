package middleware

import (
	"net/http" // HTTP status codes
	"strings"  // String manipulation

	"expense_tracker/internal/domain"     // Importing domain models
	"expense_tracker/internal/repository" // User lookups
	"expense_tracker/internal/utils"      // JWT utility functions

	"github.com/gin-gonic/gin" // Gin web framework
)

// Context keys set by the auth middlewares
const (
	KeyUserID  = "userID"
	KeyUser    = "user"
	KeyAdminID = "adminID"
	KeyAdmin   = "admin"
)

// BearerToken extracts the token of an "Authorization: Bearer <token>" header
func BearerToken(c *gin.Context) (string, bool) {
	authHeader := c.GetHeader("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	return token, token != ""
}

func unauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": msg})
}

// UserAuthMiddleware validates a user token and loads the caller
func UserAuthMiddleware(secret string, users *repository.UserRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr, ok := BearerToken(c)
		if !ok {
			unauthorized(c, "Not authorized, no token")
			return
		}
		claims, err := utils.ParseJWTForRole(tokenStr, secret, domain.RoleUser)
		if err != nil {
			unauthorized(c, "Not authorized, token failed")
			return
		}
		// The token may outlive the account
		user, err := users.ByID(c.Request.Context(), claims.ID)
		if err != nil {
			unauthorized(c, "Not authorized, user not found")
			return
		}
		c.Set(KeyUserID, user.ID) // Store userID in context
		c.Set(KeyUser, user)
		c.Next()
	}
}

// CurrentUser returns the user loaded by UserAuthMiddleware
func CurrentUser(c *gin.Context) *domain.User {
	if v, ok := c.Get(KeyUser); ok {
		if u, ok := v.(*domain.User); ok {
			return u
		}
	}
	return nil
}
