package main

import (
	"context"
	"fmt"
	"os"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/driftchat/drift/internal/api"
	"github.com/driftchat/drift/internal/bridge"
	"github.com/driftchat/drift/internal/chat"
	"github.com/driftchat/drift/internal/config"
	"github.com/driftchat/drift/internal/db"
	"github.com/driftchat/drift/internal/middleware"
	"github.com/driftchat/drift/internal/observ"
	"github.com/driftchat/drift/internal/repository/postgres"
	"github.com/driftchat/drift/internal/storage/local"
	"github.com/driftchat/drift/internal/ws"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := observ.NewLogger(cfg.Env, cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer logger.Sync()

	// Startup has no deadline: take as long as the backends need.
	database, err := db.New(context.Background(), cfg.DatabaseURL, logger)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer database.Close()

	events, err := bridge.New(context.Background(), cfg.RedisURL, logger)
	if err != nil {
		return fmt.Errorf("connect to redis: %w", err)
	}
	defer events.Close()

	blobs, err := local.New(cfg.BlobDir, cfg.BlobBaseURL)
	if err != nil {
		return fmt.Errorf("open blob store: %w", err)
	}

	pool := database.Pool()
	messageRepo := postgres.NewMessageStore(pool)
	userRepo := postgres.NewUserStore(pool)

	svc := chat.NewService(messageRepo, userRepo, blobs, events, logger)

	hub := ws.NewHub(logger)
	go hub.Run()
	defer hub.Shutdown()

	authHandler := api.NewAuthHandler(userRepo, cfg.JWTSecret, logger)
	chatHandler := api.NewChatHandler(svc, logger)
	adminHandler := api.NewAdminHandler(svc, logger)
	wsHandler := ws.NewHandler(hub, svc, events, cfg.JWTSecret, logger)

	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	srv := gin.New()
	srv.Use(gin.Logger(), gin.Recovery())

	// Public: health for load balancers, uploaded attachments, auth.
	srv.GET("/v1/health", func(c *gin.Context) {
		if err := database.Health(c.Request.Context()); err != nil {
			c.JSON(503, gin.H{"status": "degraded"})
			return
		}
		c.JSON(200, gin.H{"status": "ok"})
	})
	srv.Static("/blobs", cfg.BlobDir)
	srv.POST("/v1/auth/signup", authHandler.Signup)
	srv.POST("/v1/auth/login", authHandler.Login)

	// The socket authenticates itself from a query-param token.
	srv.GET("/v1/ws", wsHandler.Serve)

	v1 := srv.Group("/v1")
	v1.Use(middleware.AuthMiddleware(cfg.JWTSecret))
	v1.GET("/users/me", authHandler.Me)
	v1.GET("/users/search", chatHandler.SearchUsers)
	v1.DELETE("/users/:id", adminHandler.DeleteUser)
	v1.POST("/users/:id/admin", adminHandler.ToggleAdmin)
	v1.GET("/conversations", chatHandler.ListConversations)
	v1.GET("/conversations/:peer/messages", chatHandler.OpenConversation)
	v1.POST("/messages", chatHandler.SendMessage)

	logger.Info("starting drift",
		zap.String("port", cfg.Port),
		zap.String("env", cfg.Env),
	)

	return srv.Run(":" + cfg.Port)
}
