package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/ticket-automation/internal/api/http"
	"github.com/spec-kit/ticket-automation/internal/api/http/handlers"
	"github.com/spec-kit/ticket-automation/internal/config"
	"github.com/spec-kit/ticket-automation/internal/events"
	"github.com/spec-kit/ticket-automation/internal/observability"
	"github.com/spec-kit/ticket-automation/internal/persistence"
	"github.com/spec-kit/ticket-automation/internal/repository"
	"github.com/spec-kit/ticket-automation/internal/scheduler"
	"github.com/spec-kit/ticket-automation/internal/service"
	"github.com/spec-kit/ticket-automation/internal/sla"
	"github.com/spec-kit/ticket-automation/internal/worker"
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

	pool := pg.PoolHandle()
	ticketRepo := repository.NewTicketRepository(pool)
	commentRepo := repository.NewCommentRepository(pool)
	historyRepo := repository.NewTicketHistoryRepository(pool)
	taskRunRepo := repository.NewTaskRunRepository(pool)

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher(logger)
	policy := sla.NewPolicy(cfg.Sla)

	lifecycle := service.NewLifecycleService(ticketRepo, historyRepo, dispatcher, logger)
	tickets := service.NewTicketService(ticketRepo, commentRepo, historyRepo, policy)
	notifications := service.NewNotificationService(dispatcher, logger, cfg.Automation)
	notifications.RegisterHandlers()
	rules := service.NewRuleService(logger, cfg.Automation)

	automation := service.NewAutomationService(service.AutomationDependencies{
		TicketRepo:  ticketRepo,
		CommentRepo: commentRepo,
		HistoryRepo: historyRepo,
		Lifecycle:   lifecycle,
		Policy:      policy,
		Rules:       rules,
		Notifier:    notifications,
		Logger:      logger,
	}, cfg.Automation)

	reporter := observability.NewLogErrorReporter(logger)
	runner := worker.NewTaskRunner(automation, taskRunRepo, reporter, dispatcher, metrics, logger, cfg.Automation)
	queue := worker.NewQueue(redis.Client, cfg.Automation.QueueKey, logger)

	consumer := worker.NewConsumer(queue, runner, cfg.Automation.WorkerCount, logger)
	consumer.Start(ctx)

	scans := scheduler.New(ticketRepo, queue, logger, cfg.Automation)
	if err := scans.Start(ctx); err != nil {
		logger.Fatal("failed to start scheduler", zap.Error(err))
	}

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:     handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Tickets:    handlers.NewTicketsHandler(tickets, lifecycle),
		Automation: handlers.NewAutomationHandler(queue, taskRunRepo),
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
	scans.Stop()
	cancel()
	consumer.Wait()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
