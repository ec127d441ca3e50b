package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/helpdesk/internal/api/http"
	"github.com/spec-kit/helpdesk/internal/api/http/handlers"
	"github.com/spec-kit/helpdesk/internal/audit"
	"github.com/spec-kit/helpdesk/internal/auth"
	"github.com/spec-kit/helpdesk/internal/config"
	"github.com/spec-kit/helpdesk/internal/events"
	"github.com/spec-kit/helpdesk/internal/notify"
	"github.com/spec-kit/helpdesk/internal/observability"
	"github.com/spec-kit/helpdesk/internal/persistence"
	"github.com/spec-kit/helpdesk/internal/policy"
	"github.com/spec-kit/helpdesk/internal/repository"
	"github.com/spec-kit/helpdesk/internal/service"
	"github.com/spec-kit/helpdesk/internal/worker"
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

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	recorder, err := audit.NewFileRecorder(cfg.Audit.LogPath, logger)
	if err != nil {
		logger.Fatal("failed to open audit log", zap.Error(err))
	}
	defer recorder.Close() //nolint:errcheck

	pool := pg.PoolHandle()
	accountRepo := repository.NewAccountRepository(pool)
	areaRepo := repository.NewAreaRepository(pool)
	statusRepo := repository.NewStatusRepository(pool)
	ticketRepo := repository.NewTicketRepository(pool)
	taskRepo := repository.NewTaskRepository(pool)
	announcementRepo := repository.NewAnnouncementRepository(pool)
	attachmentRepo := repository.NewAttachmentRepository(pool)

	evaluator := policy.NewEvaluator()
	dispatcher := events.NewInMemoryDispatcher()
	metrics := observability.NewMetrics()

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)

	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo:     ticketRepo,
		StatusRepo:     statusRepo,
		AreaRepo:       areaRepo,
		AttachmentRepo: attachmentRepo,
		Policy:         evaluator,
		Recorder:       recorder,
		Dispatcher:     dispatcher,
		Logger:         logger,
	})
	taskService := service.NewTaskService(service.TaskDependencies{
		TaskRepo:      taskRepo,
		TicketRepo:    ticketRepo,
		AreaRepo:      areaRepo,
		TicketService: ticketService,
		Policy:        evaluator,
		Recorder:      recorder,
	})
	directoryService := service.NewDirectoryService(service.DirectoryDependencies{
		AccountRepo: accountRepo,
		AreaRepo:    areaRepo,
		Policy:      evaluator,
		Recorder:    recorder,
		BcryptCost:  cfg.Auth.BcryptCost,
	})
	authService := service.NewAuthService(service.AuthDependencies{
		AccountRepo: accountRepo,
		Tokens:      tokens,
		Policy:      evaluator,
		Recorder:    recorder,
	})
	announcementService := service.NewAnnouncementService(service.AnnouncementDependencies{
		AnnouncementRepo: announcementRepo,
		Policy:           evaluator,
		Recorder:         recorder,
		Dispatcher:       dispatcher,
		Logger:           logger,
	})

	subscriptionStore := notify.NewRedisSubscriptionStore(redis.Client)
	transport := notify.NewWebhookTransport(cfg.Notification.SendTimeout())
	notifier := notify.NewAreaNotifier(accountRepo, subscriptionStore, transport, logger)
	worker.StartNotificationWorker(notifier, dispatcher)

	authMiddleware := auth.NewAuthMiddleware(tokens, accountRepo)

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Auth:           handlers.NewAuthHandler(authService),
		Tickets:        handlers.NewTicketsHandler(ticketService),
		Tasks:          handlers.NewTasksHandler(taskService),
		Directory:      handlers.NewDirectoryHandler(directoryService),
		Announcements:  handlers.NewAnnouncementsHandler(announcementService, subscriptionStore),
		Reports:        handlers.NewReportsHandler(ticketService, recorder, cfg.Reports),
		AuthMiddleware: authMiddleware,
		Policy:         evaluator,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
