package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/application-tracker/internal/api/http"
	"github.com/spec-kit/application-tracker/internal/api/http/handlers"
	"github.com/spec-kit/application-tracker/internal/auth"
	"github.com/spec-kit/application-tracker/internal/config"
	"github.com/spec-kit/application-tracker/internal/events"
	"github.com/spec-kit/application-tracker/internal/notify"
	"github.com/spec-kit/application-tracker/internal/observability"
	"github.com/spec-kit/application-tracker/internal/otp"
	"github.com/spec-kit/application-tracker/internal/persistence"
	"github.com/spec-kit/application-tracker/internal/repository"
	"github.com/spec-kit/application-tracker/internal/service"
	"github.com/spec-kit/application-tracker/internal/storage"
	"github.com/spec-kit/application-tracker/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	pool := pg.PoolHandle()
	userRepo := repository.NewUserRepository(pool)
	ledger := repository.NewLedger(pool)

	var codeStore otp.CodeStore
	var regStore otp.RegistrationStore
	if cfg.Redis.Addr != "" {
		redis := persistence.NewRedis(cfg.Redis, logger)
		defer redis.Close()
		codeStore = otp.NewRedisCodeStore(redis.Client)
		regStore = otp.NewRedisRegistrationStore(redis.Client, cfg.OTP.RegistrationTTL())
	} else {
		logger.Info("redis not configured, using in-process otp stores")
		codeStore = otp.NewMemoryCodeStore()
		regStore = otp.NewMemoryRegistrationStore(cfg.OTP.RegistrationTTL())
	}

	documents, err := storage.NewDocumentStore(cfg.Documents.Dir)
	if err != nil {
		logger.Fatal("failed to init document store", zap.Error(err))
	}

	dispatcher := events.NewInMemoryDispatcher()

	var mailer notify.Mailer
	if cfg.SMTP.Host != "" {
		mailer = notify.NewSMTPMailer(cfg.SMTP)
	} else {
		mailer = notify.NewNopMailer(logger)
	}

	authService := service.NewAuthService(*cfg, service.AuthDependencies{
		UserRepo:         userRepo,
		CodeStore:        codeStore,
		RegistrationRepo: regStore,
		Dispatcher:       dispatcher,
		Logger:           logger,
	})
	ledgerService := service.NewLedgerService(service.LedgerDependencies{
		Ledger:     ledger,
		UserRepo:   userRepo,
		Dispatcher: dispatcher,
	})
	notificationService := service.NewNotificationService(dispatcher, mailer, logger, cfg.App.ClientURL)

	worker.StartNotificationWorker(notificationService)
	worker.StartCleanupWorker(ctx, authService, cfg.OTP.CleanupInterval(), logger)

	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), userRepo)
	metrics := observability.NewMetrics()

	app := fiber.New(fiber.Config{
		AppName:   cfg.App.Name,
		BodyLimit: 16 * 1024 * 1024,
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(),
		Auth:           handlers.NewAuthHandler(authService),
		Applications:   handlers.NewApplicationsHandler(ledgerService, documents),
		Documents:      handlers.NewDocumentsHandler(documents),
		AuthMiddleware: authMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)
	cancel()

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
