package main

import (
	"context"
	"log"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"go.uber.org/zap"

	"github.com/homehands/notify-engine/internal/config"
	"github.com/homehands/notify-engine/internal/handler"
	"github.com/homehands/notify-engine/internal/infra/postgresql"
	"github.com/homehands/notify-engine/internal/infra/postgresql/migrations"
	infraredis "github.com/homehands/notify-engine/internal/infra/redis"
	"github.com/homehands/notify-engine/internal/observability"
	"github.com/homehands/notify-engine/internal/provider"
	"github.com/homehands/notify-engine/internal/repository"
	"github.com/homehands/notify-engine/internal/service"
	"github.com/homehands/notify-engine/internal/transport"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	db, err := postgresql.NewPostgres(cfg.DatabaseDSN)
	if err != nil {
		logger.Fatal("postgres initialization failed", zap.Error(err))
	}

	if err := migrations.Migrate(db); err != nil {
		logger.Fatal("database migrations failed", zap.Error(err))
	}

	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal("postgres underlying db init failed", zap.Error(err))
	}
	defer sqlDB.Close()

	rdb, err := infraredis.NewRedis(cfg.RedisURL)
	if err != nil {
		logger.Fatal("redis initialization failed", zap.Error(err))
	}
	defer rdb.Close()

	rateLimiter, err := infraredis.NewRedisRateLimiter(rdb, cfg.RateLimitPerSec)
	if err != nil {
		logger.Fatal("rate limiter initialization failed", zap.Error(err))
	}

	registry := provider.BuildRegistry(cfg.ProviderSettings(), logger)

	notificationRepo := repository.NewGormNotificationRepo(db)
	logRepo := repository.NewGormLogRepo(db)
	templateRepo := repository.NewGormTemplateRepo(db)
	preferenceRepo := repository.NewGormPreferenceRepo(db)

	dispatcher, err := service.NewDispatcher(
		notificationRepo,
		logRepo,
		templateRepo,
		preferenceRepo,
		registry,
		rateLimiter,
		cfg.DefaultMaxRetries,
		logger,
	)
	if err != nil {
		logger.Fatal("dispatcher initialization failed", zap.Error(err))
	}

	metrics := observability.NewMetrics()
	dispatcher.SetMetrics(metrics)

	sweeper, err := service.NewRetrySweeper(
		notificationRepo,
		dispatcher,
		cfg.RetrySweepInterval,
		cfg.RetryCooldown,
		cfg.RetrySweepLimit,
		logger,
	)
	if err != nil {
		logger.Fatal("retry sweeper initialization failed", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := sweeper.Start(ctx); err != nil {
			logger.Error("retry sweeper stopped", zap.Error(err))
		}
	}()

	app := fiber.New(fiber.Config{
		ErrorHandler: transport.ErrorHandler(logger),
	})
	app.Use(requestid.New())
	app.Use(metrics.HTTPMiddleware())
	app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))

	handler.RegisterHealthRoutes(app, sqlDB, rdb)
	if err := handler.RegisterNotificationRoutes(app, dispatcher); err != nil {
		logger.Fatal("route registration failed", zap.Error(err))
	}

	go func() {
		<-ctx.Done()
		logger.Info("shutting down")
		if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
			logger.Error("server shutdown failed", zap.Error(err))
		}
	}()

	logger.Info("notify-engine api started",
		zap.Int("port", cfg.APIPort),
		zap.Strings("providers", registry.Names()),
	)

	if err := app.Listen(":" + strconv.Itoa(cfg.APIPort)); err != nil {
		logger.Fatal("server stopped unexpectedly", zap.Error(err))
	}
}
