package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/memorylane/recall-service/internal/cache"
	"github.com/memorylane/recall-service/internal/config"
	"github.com/memorylane/recall-service/internal/events"
	"github.com/memorylane/recall-service/internal/handlers"
	"github.com/memorylane/recall-service/internal/repositories"
	"github.com/memorylane/recall-service/internal/repositories/postgres"
	"github.com/memorylane/recall-service/internal/services"
	"github.com/memorylane/recall-service/internal/utils"
	"github.com/memorylane/recall-service/internal/validator"
	"github.com/memorylane/recall-service/pkg"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

func main() {
	app := fx.New(
		fx.NopLogger,

		// Core
		fx.Provide(
			config.LoadConfig,
			NewLogger,
			NewDatabase,
			NewRedis,
			NewEventPublisher,
			NewGinEngine,
			validator.New,
		),

		// Storage
		fx.Provide(
			func(db *gorm.DB) repositories.Repository { return postgres.NewRepository(db) },
			func(client *redis.Client, logger *slog.Logger) cache.CacheService {
				return cache.NewRedisCache(client, "recall", logger)
			},
			func(client *redis.Client) cache.InviteStore { return cache.NewRedisInviteStore(client) },
		),

		// Services
		fx.Provide(
			NewGenerativeModel,
			func(cfg *config.Config, logger *slog.Logger) services.Authenticator {
				return services.NewCasdoorAuthenticator(cfg.Casdoor, logger)
			},
			NewServiceManager,
		),

		// HTTP
		fx.Provide(
			func(logger *slog.Logger) utils.Logger { return utils.NewSlogLogger(logger) },
			handlers.NewHandlerManager,
		),

		fx.Invoke(RegisterRoutesAndStartServer),
	)

	if err := app.Start(context.Background()); err != nil {
		slog.Error("Failed to start application", "error", err)
		os.Exit(1)
	}

	<-app.Done()
	slog.Info("Application shutting down gracefully...")

	stopCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := app.Stop(stopCtx); err != nil {
		slog.Error("Shutdown failed", "error", err)
	}
}

func NewLogger(cfg *config.Config) *slog.Logger {
	logger := utils.NewServiceLogger(cfg.Environment, os.Stdout).With("service", "recall-service")
	slog.SetDefault(logger)
	return logger
}

func NewDatabase(lc fx.Lifecycle, cfg *config.Config, logger *slog.Logger) (*gorm.DB, error) {
	db, err := pkg.InitDatabase(cfg)
	if err != nil {
		return nil, err
	}

	logger.Info("Running database migrations...")
	if err := pkg.MigrateDatabase(db); err != nil {
		logger.Error("Database migration failed", "error", err)
		return nil, err
	}
	logger.Info("Database migration completed successfully")

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.Close()
		},
	})
	return db, nil
}

func NewRedis(lc fx.Lifecycle, cfg *config.Config) (*redis.Client, error) {
	client, err := pkg.NewRedisClient(cfg)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error { return client.Close() },
	})
	return client, nil
}

// NewEventPublisher falls back to the in-memory publisher when the broker is unreachable.
func NewEventPublisher(lc fx.Lifecycle, cfg *config.Config, logger *slog.Logger) events.EventPublisher {
	publisher, err := cfg.Events.CreateEventPublisher(logger)
	if err != nil {
		logger.Error("Failed to create event publisher", "error", err)
		publisher = events.NewMockEventPublisher(logger)
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error { return publisher.Close() },
	})
	return publisher
}

func NewGenerativeModel(lc fx.Lifecycle, cfg *config.Config, logger *slog.Logger) (services.GenerativeModel, error) {
	model, err := services.NewGeminiModel(context.Background(), cfg.Gemini, logger)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error { return model.Close() },
	})
	return model, nil
}

func NewServiceManager(
	cfg *config.Config,
	repo repositories.Repository,
	cacheService cache.CacheService,
	invites cache.InviteStore,
	model services.GenerativeModel,
	auth services.Authenticator,
	publisher events.EventPublisher,
	v *validator.Validator,
	logger *slog.Logger,
) services.ServiceManager {
	return services.NewServiceManager(services.ServiceDeps{
		Config:    cfg,
		Repo:      repo,
		Cache:     cacheService,
		Invites:   invites,
		Model:     model,
		Auth:      auth,
		Publisher: publisher,
		Validator: v,
		Logger:    logger,
	})
}

func NewGinEngine(cfg *config.Config, logger utils.Logger) *gin.Engine {
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(utils.LoggerMiddleware(logger))
	r.Use(gin.Recovery())
	r.Use(utils.ContextLogger(logger))

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{cfg.AppOrigin},
		AllowMethods:     []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.MaxMultipartMemory = services.MaxUploadBytes
	return r
}

// RegisterRoutesAndStartServer configures API routes and manages server lifecycle.
func RegisterRoutesAndStartServer(
	lc fx.Lifecycle,
	router *gin.Engine,
	cfg *config.Config,
	hm *handlers.HandlerManager,
	logger *slog.Logger,
) {
	hm.SetupRoutes(router)

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			logger.Info("Recall service starting", "port", cfg.Port, "environment", cfg.Environment)
			go func() {
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Error("Server ListenAndServe failed", "error", err)
					os.Exit(1)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("Server shutting down...")
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		},
	})
}
