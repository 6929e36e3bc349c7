package main

import (
	"context"   // context package is needed for Redis operations and shutdown
	"errors"    // Server close detection
	"net/http"  // HTTP server
	"os"        // Signals
	"os/signal" // Graceful shutdown
	"syscall"   // Termination signal
	"time"      // Shutdown timeout

	"expense_tracker/internal/api"        // Custom package for API handlers
	"expense_tracker/internal/calendar"   // BS display dates
	"expense_tracker/internal/config"     // Custom package for configuration
	"expense_tracker/internal/db"         // Store connection and migration
	"expense_tracker/internal/notify"     // Admin notifications
	"expense_tracker/internal/repository" // Persistence
	"expense_tracker/internal/stats"      // Aggregates

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logrus for structured logging
)

// setupLogger configures logrus from the environment
func setupLogger(cfg *config.Config) {
	if cfg.IsProd {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
}

// connectRedis returns nil when Redis is not configured or unreachable; caching is optional
func connectRedis(cfg *config.Config) *redis.Client {
	if cfg.RedisAddr == "" {
		logrus.Info("REDIS_ADDR not set, admin listing cache disabled")
		return nil
	}
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr, // Redis server address
		Password: cfg.RedisPass, // Redis password
		DB:       cfg.RedisDB,   // Redis database number
	})
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logrus.WithError(err).Warn("failed to connect to Redis, admin listing cache disabled")
		_ = redisClient.Close()
		return nil
	}
	return redisClient
}

// Main function to set up and run the server
func main() {
	cfg := config.LoadConfig() // Load configuration
	setupLogger(cfg)
	if err := cfg.Validate(); err != nil {
		logrus.Fatalf("invalid configuration: %v", err)
	}

	gdb, err := db.Open(cfg.DBDriver, cfg.DSN())
	if err != nil {
		logrus.Fatalf("failed to connect to DB: %v", err) // Fatal error if DB connection fails
	}
	if err := db.Migrate(gdb); err != nil {
		logrus.Fatalf("failed to migrate DB: %v", err)
	}

	rdb := connectRedis(cfg)

	// Set Mode to Release if in production
	if cfg.IsProd {
		gin.SetMode(gin.ReleaseMode)
	}

	users := repository.NewUserRepository(gdb)
	admins := repository.NewAdminRepository(gdb)
	txs := repository.NewTransactionRepository(gdb, calendar.Approximate{})

	hub := notify.NewHub(api.AdminAuthorizer(cfg.JWTSecret, admins), cfg.CORSOrigins)
	sweeper, err := notify.StartSweeper(hub, cfg.WSJoinTimeout)
	if err != nil {
		logrus.Fatalf("failed to schedule socket sweeper: %v", err)
	}

	router := api.NewRouter(api.Deps{
		Config:       cfg,
		Users:        users,
		Admins:       admins,
		Transactions: txs,
		Stats:        stats.NewAggregator(gdb),
		Hub:          hub,
		Redis:        rdb,
	})
	// Set trusted proxies for Gin
	if err := router.SetTrustedProxies([]string{"127.0.0.1"}); err != nil {
		logrus.Fatalf("failed to set trusted proxies: %v", err)
	}

	srv := &http.Server{Addr: ":" + cfg.AppPort, Handler: router}
	go func() {
		logrus.WithField("port", cfg.AppPort).Info("Server running")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Fatalf("server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logrus.Info("shutting down")

	<-sweeper.Stop().Done()
	hub.Close() // Hijacked sockets are not closed by Shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logrus.WithError(err).Error("server shutdown failed")
	}
	if rdb != nil {
		_ = rdb.Close()
	}
	if sqlDB, err := gdb.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
