package api

import (
	"errors"   // Error classification
	"net/http" // HTTP status codes
	"strconv"  // String conversion
	"strings"  // String manipulation
	"time"     // Token lifetime, cache TTL

	"expense_tracker/internal/domain"     // Importing domain models
	"expense_tracker/internal/middleware" // Current admin
	"expense_tracker/internal/notify"     // Socket stats
	"expense_tracker/internal/repository" // Persistence
	"expense_tracker/internal/stats"      // Dashboard aggregates
	"expense_tracker/internal/utils"      // Utility functions

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logging
)

// Cache namespaces of the admin listings
const (
	usersCacheNS = "admin:users"
	txsCacheNS   = "admin:txs"
)

// Default page sizes of the admin listings
const (
	defaultUsersLimit = 10
	defaultTxsLimit   = 20
)

// AdminResponse represents the admin data returned after authentication
type AdminResponse struct {
	ID        uint   `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Role      string `json:"role"`
}

func newAdminResponse(a *domain.Admin) AdminResponse {
	return AdminResponse{ID: a.ID, Username: a.Username, Email: a.Email, FirstName: a.FirstName, LastName: a.LastName, Role: a.Role}
}

// AdminRegisterHandler creates an admin and returns a token
func AdminRegisterHandler(admins *repository.AdminRepository, secret string, ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req RegisterRequest
		if !bindJSON(c, &req) {
			return
		}
		if err := req.validate(); err != nil {
			respondError(c, err, "Admin")
			return
		}
		hash, err := utils.HashPassword(req.Password)
		if err != nil {
			respondError(c, err, "Admin")
			return
		}
		admin := domain.Admin{
			Username:  req.Username,
			Email:     req.Email,
			Password:  hash,
			FirstName: strings.TrimSpace(req.FirstName),
			LastName:  strings.TrimSpace(req.LastName),
		}
		if err := admins.Create(c.Request.Context(), &admin); err != nil {
			respondError(c, err, "Admin")
			return
		}
		token, err := utils.GenerateJWT(admin.ID, domain.RoleAdmin, secret, ttl)
		if err != nil {
			respondError(c, err, "Admin")
			return
		}
		logrus.WithFields(logrus.Fields{"admin_id": admin.ID, "username": admin.Username}).Info("admin registered")
		c.JSON(http.StatusCreated, gin.H{"success": true, "token": token, "admin": newAdminResponse(&admin)})
	}
}

// AdminLoginHandler authenticates an active admin
func AdminLoginHandler(admins *repository.AdminRepository, secret string, ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req LoginRequest
		if !bindJSON(c, &req) {
			return
		}
		// Deactivated admins look exactly like unknown ones
		admin, err := admins.ActiveByEmail(c.Request.Context(), req.Email)
		if errors.Is(err, domain.ErrNotFound) {
			err = domain.ErrInvalidCredentials
		}
		if err != nil {
			respondError(c, err, "Admin")
			return
		}
		if !utils.CheckPassword(admin.Password, req.Password) {
			respondError(c, domain.ErrInvalidCredentials, "Admin")
			return
		}
		token, err := utils.GenerateJWT(admin.ID, domain.RoleAdmin, secret, ttl)
		if err != nil {
			respondError(c, err, "Admin")
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "token": token, "admin": newAdminResponse(admin)})
	}
}

// DashboardHandler returns platform-wide statistics; never cached
func DashboardHandler(agg *stats.Aggregator) gin.HandlerFunc {
	return func(c *gin.Context) {
		dashboard, err := agg.PlatformStats(c.Request.Context())
		if err != nil {
			respondError(c, err, "Dashboard")
			return
		}
		if admin := middleware.CurrentAdmin(c); admin != nil {
			logrus.WithFields(logrus.Fields{"admin_id": admin.ID, "username": admin.Username}).Debug("dashboard served")
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "dashboard": dashboard})
	}
}

// pageFromQuery reads ?page and ?limit, falling back to defaults on bad input
func pageFromQuery(c *gin.Context, defaultLimit int) repository.Page {
	page, _ := strconv.Atoi(c.Query("page"))
	limit, _ := strconv.Atoi(c.Query("limit"))
	return repository.NewPage(page, limit, defaultLimit)
}

// usersPage is the cached body of GET /admin/users
type usersPage struct {
	Users      []domain.User         `json:"users"`
	Pagination repository.Pagination `json:"pagination"`
}

// ListUsersHandler returns one page of users
func ListUsersHandler(users *repository.UserRepository, rdb *redis.Client, ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		page := pageFromQuery(c, defaultUsersLimit)
		// Create a cache key based on pagination parameters
		cacheKey, cacheable := pageCacheKey(c, rdb, usersCacheNS, page)
		var cached usersPage
		if cacheable {
			if found, err := utils.GetCache(ctx, rdb, cacheKey, &cached); err == nil && found {
				c.JSON(http.StatusOK, gin.H{"success": true, "users": cached.Users, "pagination": cached.Pagination, "cached": true})
				return
			}
		}
		list, total, err := users.List(ctx, page)
		if err != nil {
			respondError(c, err, "User")
			return
		}
		resp := usersPage{Users: list, Pagination: page.Meta(total)}
		if cacheable {
			if err := utils.SetCache(ctx, rdb, cacheKey, resp, ttl); err != nil {
				logrus.WithError(err).Warn("failed to cache users page")
			}
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "users": resp.Users, "pagination": resp.Pagination, "cached": false})
	}
}

// transactionsPage is the cached body of GET /admin/transactions
type transactionsPage struct {
	Transactions []domain.Transaction  `json:"transactions"`
	Pagination   repository.Pagination `json:"pagination"`
}

// ListAllTransactionsHandler returns one page of every user's transactions
func ListAllTransactionsHandler(txs *repository.TransactionRepository, rdb *redis.Client, ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		page := pageFromQuery(c, defaultTxsLimit)
		cacheKey, cacheable := pageCacheKey(c, rdb, txsCacheNS, page)
		var cached transactionsPage
		if cacheable {
			if found, err := utils.GetCache(ctx, rdb, cacheKey, &cached); err == nil && found {
				c.JSON(http.StatusOK, gin.H{"success": true, "transactions": cached.Transactions, "pagination": cached.Pagination, "cached": true})
				return
			}
		}
		list, total, err := txs.ListAll(ctx, page)
		if err != nil {
			respondError(c, err, "Transaction")
			return
		}
		resp := transactionsPage{Transactions: list, Pagination: page.Meta(total)}
		if cacheable {
			if err := utils.SetCache(ctx, rdb, cacheKey, resp, ttl); err != nil {
				logrus.WithError(err).Warn("failed to cache transactions page")
			}
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "transactions": resp.Transactions, "pagination": resp.Pagination, "cached": false})
	}
}

// SocketStatsHandler reports the admin socket counts
func SocketStatsHandler(hub *notify.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"success": true, "sockets": hub.Stats()})
	}
}

// pageCacheKey builds the versioned key of a listing page. A listing is not
// cached when Redis is off or its version cannot be read.
func pageCacheKey(c *gin.Context, rdb *redis.Client, namespace string, page repository.Page) (string, bool) {
	if rdb == nil {
		return "", false
	}
	version, err := utils.CacheVersion(c.Request.Context(), rdb, namespace)
	if err != nil {
		logrus.WithError(err).WithField("namespace", namespace).Warn("cache version unavailable")
		return "", false
	}
	return utils.VersionedKey(namespace, version, utils.PageKey(page.Number, page.Limit)), true
}

// invalidate makes every cached page of namespace stale
func invalidate(c *gin.Context, rdb *redis.Client, namespace string) {
	if err := utils.BumpCacheVersion(c.Request.Context(), rdb, namespace); err != nil {
		logrus.WithError(err).WithField("namespace", namespace).Warn("failed to invalidate cache")
	}
}
