package middleware

import (
	"expense_tracker/internal/domain"     // Importing domain models
	"expense_tracker/internal/repository" // Admin lookups
	"expense_tracker/internal/utils"      // JWT utility functions

	"github.com/gin-gonic/gin" // Gin web framework
)

// AdminAuthMiddleware requires an admin token whose admin is still active.
// The active flag is read from the database on each request.
func AdminAuthMiddleware(secret string, admins *repository.AdminRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr, ok := BearerToken(c)
		if !ok {
			unauthorized(c, "Not authorized, no token")
			return
		}
		claims, err := utils.ParseJWTForRole(tokenStr, secret, domain.RoleAdmin)
		if err != nil {
			// User tokens land here too
			unauthorized(c, "Not authorized as admin")
			return
		}
		admin, err := admins.ActiveByID(c.Request.Context(), claims.ID)
		if err != nil {
			unauthorized(c, "Not authorized as admin")
			return
		}
		c.Set(KeyAdminID, admin.ID)
		c.Set(KeyAdmin, admin)
		c.Next()
	}
}

// CurrentAdmin returns the admin loaded by AdminAuthMiddleware
func CurrentAdmin(c *gin.Context) *domain.Admin {
	if v, ok := c.Get(KeyAdmin); ok {
		if a, ok := v.(*domain.Admin); ok {
			return a
		}
	}
	return nil
}
