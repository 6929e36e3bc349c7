package api

import (
	"net/http" // HTTP status codes

	"expense_tracker/internal/config"     // Configuration
	"expense_tracker/internal/middleware" // Custom middleware
	"expense_tracker/internal/notify"     // Admin notifications
	"expense_tracker/internal/repository" // Persistence
	"expense_tracker/internal/stats"      // Aggregates

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
)

// Deps are the collaborators the HTTP surface is built from
type Deps struct {
	Config       *config.Config
	Users        *repository.UserRepository
	Admins       *repository.AdminRepository
	Transactions *repository.TransactionRepository
	Stats        *stats.Aggregator
	Hub          *notify.Hub
	Redis        *redis.Client // nil disables caching
}

// NewRouter wires every route under /api plus the admin websocket at /ws
func NewRouter(d Deps) *gin.Engine {
	cfg := d.Config
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestID(), middleware.Logger(), middleware.CORS(cfg.CORSOrigins))

	api := r.Group("/api")
	api.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "OK", "message": "Expense Tracker API is running"})
	})

	// Auth routes
	auth := api.Group("/auth")
	auth.POST("/register", RegisterHandler(d.Users, d.Redis, cfg.JWTSecret, cfg.TokenTTL))
	auth.POST("/login", LoginHandler(d.Users, cfg.JWTSecret, cfg.TokenTTL))
	userAuth := middleware.UserAuthMiddleware(cfg.JWTSecret, d.Users)
	auth.GET("/me", userAuth, MeHandler())
	auth.PUT("/me", userAuth, UpdateMeHandler(d.Users, d.Redis))

	// Transaction routes (protected by JWT)
	txs := api.Group("/transactions", userAuth)
	txs.GET("", ListTransactionsHandler(d.Transactions))
	txs.GET("/categories", CategoriesHandler())
	txs.GET("/stats", StatsHandler(d.Stats))
	txs.GET("/stats/monthly", MonthlyStatsHandler(d.Stats))
	txs.GET("/:id", GetTransactionHandler(d.Transactions))
	txs.POST("", CreateTransactionHandler(d.Transactions, d.Hub, d.Redis))
	txs.PUT("/:id", UpdateTransactionHandler(d.Transactions, d.Hub, d.Redis))
	txs.DELETE("/:id", DeleteTransactionHandler(d.Transactions, d.Hub, d.Redis))

	// Admin routes
	admin := api.Group("/admin")
	admin.POST("/register", AdminRegisterHandler(d.Admins, cfg.JWTSecret, cfg.TokenTTL))
	admin.POST("/login", AdminLoginHandler(d.Admins, cfg.JWTSecret, cfg.TokenTTL))
	protected := admin.Group("", middleware.AdminAuthMiddleware(cfg.JWTSecret, d.Admins))
	protected.GET("/dashboard", DashboardHandler(d.Stats))
	protected.GET("/users", ListUsersHandler(d.Users, d.Redis, cfg.CacheTTL))
	protected.GET("/transactions", ListAllTransactionsHandler(d.Transactions, d.Redis, cfg.CacheTTL))
	protected.GET("/socket/stats", SocketStatsHandler(d.Hub))

	// Admins join over the socket itself, so the upgrade is unauthenticated
	r.GET("/ws", SocketHandler(d.Hub))
	return r
}
