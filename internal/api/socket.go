package api

import (
	"context" // Join authorization

	"expense_tracker/internal/domain"     // Roles
	"expense_tracker/internal/notify"     // Admin notifications
	"expense_tracker/internal/repository" // Admin lookups
	"expense_tracker/internal/utils"      // JWT utility functions

	"github.com/gin-gonic/gin" // Gin web framework
)

// AdminAuthorizer admits a socket join only for the token of an active admin
func AdminAuthorizer(secret string, admins *repository.AdminRepository) notify.Authorizer {
	return func(ctx context.Context, token string) (uint, error) {
		claims, err := utils.ParseJWTForRole(token, secret, domain.RoleAdmin)
		if err != nil {
			return 0, err
		}
		admin, err := admins.ActiveByID(ctx, claims.ID)
		if err != nil {
			return 0, err
		}
		return admin.ID, nil
	}
}

// SocketHandler upgrades GET /ws into an admin notification session
func SocketHandler(hub *notify.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		hub.ServeWS(c.Writer, c.Request)
	}
}
