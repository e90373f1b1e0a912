package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"messenger/internal/config"
	"messenger/internal/domain"
	"messenger/internal/handler"
	"messenger/internal/middleware"
	"messenger/internal/realtime"
	"messenger/internal/repository"
	"messenger/internal/service"
	"messenger/pkg/logger"
)

func main() {
	// Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Инициализация логгера
	appLogger := logger.New(cfg.Log.Level)
	if cfg.IsProduction() {
		appLogger = logger.NewJSON(cfg.Log.Level)
	}

	// Подключение к PostgreSQL
	poolCfg, err := pgxpool.ParseConfig(cfg.Database.DSN)
	if err != nil {
		appLogger.Fatal("Invalid database DSN", "error", err)
	}
	if cfg.Database.MaxConnections > 0 {
		poolCfg.MaxConns = int32(cfg.Database.MaxConnections)
	}

	dbPool, err := pgxpool.NewWithConfig(context.Background(), poolCfg)
	if err != nil {
		appLogger.Fatal("Failed to connect to database", "error", err)
	}
	defer dbPool.Close()

	if err := dbPool.Ping(context.Background()); err != nil {
		appLogger.Fatal("Failed to ping database", "error", err)
	}
	appLogger.Info("Database connection established")

	if err := repository.Migrate(context.Background(), dbPool, appLogger); err != nil {
		appLogger.Fatal("Failed to apply migrations", "error", err)
	}

	// Подключение к Redis
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer rdb.Close()

	if err := rdb.Ping(context.Background()).Err(); err != nil {
		appLogger.Fatal("Failed to connect to Redis", "error", err)
	}
	appLogger.Info("Redis connection established")

	repos := repository.NewRepositories(dbPool, rdb, cfg.Database.StoreTimeout, appLogger)

	// Реестр комнат проверяет членство тем же правилом, что и сервисы
	registry := realtime.NewRegistry(service.NewAccessService(repos.Participant, appLogger), appLogger)

	fabricCtx, stopFabric := context.WithCancel(context.Background())
	defer stopFabric()

	var publisher realtime.Publisher
	if cfg.Fanout.Fabric == config.FabricRedis {
		fabric := realtime.NewRedisFabric(rdb, cfg.Fanout.Channel, registry, appLogger)
		publisher = fabric
		go func() {
			if err := fabric.Run(fabricCtx); err != nil && !errors.Is(err, context.Canceled) {
				appLogger.Error("Fanout fabric stopped", "error", err)
			}
		}()
		appLogger.Info("Redis fanout fabric enabled", "channel", cfg.Fanout.Channel, "node_id", fabric.NodeID())
	}
	broadcastRouter := realtime.NewRouter(registry, publisher, appLogger)

	services := service.NewServices(repos, broadcastRouter, cfg, appLogger)

	// Инициализация middleware
	authMiddleware := middleware.NewAuthMiddleware(services.Auth, cfg.JWT.CookieName, appLogger)
	rateLimitMiddleware := middleware.NewRateLimitMiddleware(services.RateLimit, appLogger)

	handlers := handler.NewHandlers(services, registry, dbPool, rdb, cfg, appLogger)

	router := setupRouter(handlers, authMiddleware, rateLimitMiddleware, cfg, appLogger)

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      middleware.CORS(cfg.Server.AllowedOrigins)(router),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		appLogger.Info("Starting server", "host", cfg.Server.Host, "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Fatal("Failed to start server", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")
	stopFabric()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Shutdown не ждёт захваченные WebSocket-соединения, они закрываются вместе с процессом
	if err := srv.Shutdown(ctx); err != nil {
		appLogger.Error("Server forced to shutdown", "error", err)
	}

	appLogger.Info("Server exited", "open_sessions", registry.SessionCount())
}

func setupRouter(
	handlers *handler.Handlers,
	authMiddleware *middleware.AuthMiddleware,
	rateLimitMiddleware *middleware.RateLimitMiddleware,
	cfg *config.Config,
	log logger.Logger,
) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(log))
	router.Use(middleware.ErrorHandler(log))

	router.GET("/health", handlers.Health.Check)

	// Дуплексный канал: токен проверяется внутри обработчика (заголовок, ?token=, cookie или authenticate)
	router.GET("/ws", handlers.WebSocket.Handle)

	v1 := router.Group("/api/v1")
	{
		public := v1.Group("/auth")
		{
			public.POST("/signup", rateLimitMiddleware.Limit(domain.RateLimitScopeSignup), handlers.Auth.Signup)
			public.POST("/login", rateLimitMiddleware.Limit(domain.RateLimitScopeLogin), handlers.Auth.Login)
			public.POST("/logout", handlers.Auth.Logout)
		}

		protected := v1.Group("")
		protected.Use(authMiddleware.RequireAuth())
		{
			protected.GET("/auth/me", handlers.Auth.Me)
			protected.GET("/users", handlers.User.Search)

			conversations := protected.Group("/conversations")
			{
				conversations.POST("", handlers.Conversation.Create)
				conversations.GET("", handlers.Conversation.List)
				conversations.GET("/:id", handlers.Conversation.Get)
			}

			groups := protected.Group("/groups")
			{
				groups.POST("", handlers.Group.Create)
				groups.GET("", handlers.Group.List)
			}

			messages := protected.Group("/messages")
			{
				messages.GET("", handlers.Message.History)
				messages.POST("", handlers.Message.Send)
			}
		}
	}

	return router
}
