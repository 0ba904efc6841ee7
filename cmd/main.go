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

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"linkbook/invitehub/internal/config"
	"linkbook/invitehub/internal/handler"
	"linkbook/invitehub/internal/model"
	"linkbook/invitehub/internal/repository"
	"linkbook/invitehub/internal/service"
	jwtpkg "linkbook/invitehub/pkg/jwt"
)

func main() {
	// 1. Load configuration
	configPath := "config.yaml"
	if p := os.Getenv("INVITEHUB_CONFIG"); p != "" {
		configPath = p
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// 2. Initialize logger
	logger, err := newLogger(cfg.Log)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync()

	// 3. Subscription store
	repo, closeStore := openStore(cfg.Database, logger)
	defer closeStore()

	// 4. Code index (Redis or in-memory)
	var index repository.CodeIndex
	switch cfg.Index.Backend {
	case "redis":
		redisClient, err := config.NewRedisClient(cfg.Database.Redis)
		if err != nil {
			logger.Fatal("failed to connect to redis", zap.Error(err))
		}
		defer redisClient.Close()
		index = repository.NewRedisCodeIndex(redisClient)
		logger.Info("using Redis code index")
	case "memory":
		index = repository.NewMemoryCodeIndex()
		logger.Info("using in-memory code index")
	default:
		logger.Fatal("unknown index backend", zap.String("backend", cfg.Index.Backend))
	}
	if cfg.Index.Authoritative {
		logger.Info("code index is authoritative, record scans disabled")
	}

	// 5. JWT verification
	if cfg.JWT.SigningKey == "" {
		logger.Fatal("jwt.signing_key is required")
	}
	jwtManager := jwtpkg.NewManager(cfg.JWT.SigningKey, cfg.JWT.Issuer)

	// 6. Services & handlers
	inviteService := service.NewInviteService(repo, index, cfg.Invite, cfg.Index, logger)
	subscriptionService := service.NewSubscriptionService(repo, index, cfg.Invite, logger)

	inviteHandler := handler.NewInviteHandler(inviteService)
	subscriptionHandler := handler.NewSubscriptionHandler(subscriptionService)
	adminHandler := handler.NewAdminHandler(inviteService)

	// 7. Setup router
	router := handler.SetupRouter(cfg, logger, jwtManager, inviteHandler, subscriptionHandler, adminHandler)

	// 8. Create HTTP server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// 9. Start server with graceful shutdown
	go func() {
		logger.Info("server starting", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.GracefulShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
		return
	}
	logger.Info("server exited gracefully")
}

func newLogger(cfg config.LogConfig) (*zap.Logger, error) {
	var zc zap.Config
	if cfg.Format == "json" {
		zc = zap.NewProductionConfig()
	} else {
		zc = zap.NewDevelopmentConfig()
	}
	if cfg.Level != "" {
		level, err := zapcore.ParseLevel(cfg.Level)
		if err != nil {
			return nil, err
		}
		zc.Level = zap.NewAtomicLevelAt(level)
	}
	return zc.Build()
}

// openStore connects the configured backend and returns the repository with
// its cleanup func.
func openStore(cfg config.DatabaseConfig, logger *zap.Logger) (repository.SubscriptionRepository, func()) {
	switch cfg.Driver {
	case "postgres":
		db, err := config.NewPostgresDB(cfg.Postgres)
		if err != nil {
			logger.Fatal("failed to connect to postgres", zap.Error(err))
		}
		if cfg.Postgres.AutoMigrate {
			if err := model.AutoMigrate(db); err != nil {
				logger.Fatal("failed to auto-migrate", zap.Error(err))
			}
			logger.Info("database migration completed")
		}
		logger.Info("using postgres subscription store", zap.String("host", cfg.Postgres.Host))
		return repository.NewGormSubscriptionRepository(db), func() {
			if sqlDB, err := db.DB(); err == nil {
				sqlDB.Close()
			}
		}

	case "sqlite":
		db, err := config.NewSQLiteDB(cfg.SQLite)
		if err != nil {
			logger.Fatal("failed to open sqlite", zap.Error(err))
		}
		if cfg.SQLite.AutoMigrate {
			if err := model.AutoMigrate(db); err != nil {
				logger.Fatal("failed to auto-migrate", zap.Error(err))
			}
		}
		logger.Info("using sqlite subscription store", zap.String("path", cfg.SQLite.Path))
		return repository.NewGormSubscriptionRepository(db), func() {
			if sqlDB, err := db.DB(); err == nil {
				sqlDB.Close()
			}
		}

	case "mongo":
		client, err := config.NewMongoClient(cfg.Mongo)
		if err != nil {
			logger.Fatal("failed to connect to mongo", zap.Error(err))
		}
		if cfg.Mongo.AutoMigrate {
			if err := repository.MigrateMongo(context.Background(), client, cfg.Mongo.Database); err != nil {
				logger.Fatal("failed to create mongo indexes", zap.Error(err))
			}
		}
		logger.Info("using mongo subscription store", zap.String("database", cfg.Mongo.Database))
		return repository.NewMongoSubscriptionRepository(client, cfg.Mongo.Database), func() {
			_ = client.Disconnect(context.Background())
		}
	}

	logger.Fatal("unknown database driver", zap.String("driver", cfg.Driver))
	return nil, nil
}
