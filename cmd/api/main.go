package main

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kursadbilgin/form-relay/internal/config"
	"github.com/kursadbilgin/form-relay/internal/handler"
	"github.com/kursadbilgin/form-relay/internal/infra/postgresql"
	"github.com/kursadbilgin/form-relay/internal/infra/postgresql/migrations"
	infraredis "github.com/kursadbilgin/form-relay/internal/infra/redis"
	"github.com/kursadbilgin/form-relay/internal/mail"
	"github.com/kursadbilgin/form-relay/internal/observability"
	"github.com/kursadbilgin/form-relay/internal/provider"
	"github.com/kursadbilgin/form-relay/internal/repository"
	"github.com/kursadbilgin/form-relay/internal/sender"
	"github.com/kursadbilgin/form-relay/internal/service"
	"github.com/kursadbilgin/form-relay/internal/transport"
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

	mailProvider, err := provider.NewResendProvider(cfg.ResendAPIKey)
	if err != nil {
		logger.Fatal("resend provider initialization failed", zap.Error(err))
	}

	mailSender, err := sender.New(mailProvider, sender.Config{
		MaxAttempts: cfg.MaxSendAttempts,
		SendTimeout: cfg.SendTimeout(),
		BaseDelay:   cfg.RetryBaseDelay(),
		MaxDelay:    cfg.RetryMaxDelay(),
	}, logger)
	if err != nil {
		logger.Fatal("sender initialization failed", zap.Error(err))
	}

	renderer, err := mail.NewRenderer()
	if err != nil {
		logger.Fatal("mail renderer initialization failed", zap.Error(err))
	}

	keyLock, err := infraredis.NewRedisKeyLock(rdb, 0)
	if err != nil {
		logger.Fatal("key lock initialization failed", zap.Error(err))
	}

	dispatcher, err := service.NewDispatcher(
		repository.NewGormDeliveryRecordRepo(db),
		repository.NewGormAttemptRepo(db),
		mailSender,
		renderer,
		keyLock,
		service.DispatcherConfig{
			FromAddress:       fromAddress(cfg),
			ReplyTo:           cfg.ReplyTo,
			MaxRecordAttempts: cfg.MaxRecordAttempts,
		},
		logger,
	)
	if err != nil {
		logger.Fatal("dispatcher initialization failed", zap.Error(err))
	}

	metrics := observability.NewMetrics()
	dispatcher.SetMetrics(metrics)

	app := fiber.New(fiber.Config{
		AppName:      "form-relay",
		ErrorHandler: transport.ErrorHandler(logger),
	})

	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.AllowedOrigins,
		AllowMethods: "GET,POST,OPTIONS",
	}))
	app.Use(metrics.HTTPMiddleware())

	handler.RegisterHealthRoutes(app, sqlDB, rdb)
	app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))

	if err := handler.RegisterDispatchRoutes(app, dispatcher); err != nil {
		logger.Fatal("route registration failed", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, groupCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("form-relay api started", zap.Int("port", cfg.APIPort))
		if err := app.Listen(fmt.Sprintf(":%d", cfg.APIPort)); err != nil {
			return fmt.Errorf("fiber listen failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-groupCtx.Done()
		logger.Info("shutting down")
		return app.ShutdownWithTimeout(shutdownTimeout)
	})

	if err := g.Wait(); err != nil {
		logger.Fatal("server stopped with error", zap.Error(err))
	}

	logger.Info("form-relay api stopped")
}

func fromAddress(cfg *config.Config) string {
	if cfg.SenderName == "" {
		return cfg.SenderEmail
	}
	return fmt.Sprintf("%s <%s>", cfg.SenderName, cfg.SenderEmail)
}
