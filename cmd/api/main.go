package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/production-booking/internal/api/http"
	"github.com/spec-kit/production-booking/internal/api/http/handlers"
	"github.com/spec-kit/production-booking/internal/auth"
	"github.com/spec-kit/production-booking/internal/config"
	"github.com/spec-kit/production-booking/internal/events"
	"github.com/spec-kit/production-booking/internal/notify"
	"github.com/spec-kit/production-booking/internal/observability"
	"github.com/spec-kit/production-booking/internal/persistence"
	"github.com/spec-kit/production-booking/internal/repository"
	"github.com/spec-kit/production-booking/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger, cfg.App)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	loc, err := cfg.Schedule.Location()
	if err != nil {
		logger.Fatal("invalid schedule timezone", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), cfg.Postgres.MigrationsDir, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(ctx, cfg.Redis, logger)
	defer redis.Close()

	var registry *prometheus.Registry
	var registerer prometheus.Registerer
	if cfg.Metrics.Enabled {
		registry = prometheus.NewRegistry()
		registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		registerer = registry
	}
	metrics := observability.NewMetrics(registerer)

	pool := pg.PoolHandle()
	productionRepo := repository.NewProductionRepository(pool)
	staffRepo := repository.NewStaffRepository(pool)
	historyRepo := repository.NewProductionHistoryRepository(pool)
	noteRepo := repository.NewProductionNoteRepository(pool)
	issueRepo := repository.NewIssueRepository(pool)

	dispatcher := events.NewInMemoryDispatcher()
	notifier := notify.NewRedisNotifier(redis.Client, cfg.Notification.Channel, cfg.Notification.InboxLimit)
	service.NewNotificationService(dispatcher, notifier, logger.Named("notifications")).RegisterHandlers()

	availabilityService := service.NewAvailabilityService(productionRepo, metrics)
	assignmentService := service.NewAssignmentService(service.AssignmentDependencies{
		ProductionRepo: productionRepo,
		StaffRepo:      staffRepo,
		Availability:   availabilityService,
		Dispatcher:     dispatcher,
		Metrics:        metrics,
		Logger:         logger,
	})
	productionService := service.NewProductionService(service.ProductionDependencies{
		ProductionRepo: productionRepo,
		HistoryRepo:    historyRepo,
		NoteRepo:       noteRepo,
		Dispatcher:     dispatcher,
		Metrics:        metrics,
		Logger:         logger,
		Location:       loc,
	})
	issueService := service.NewIssueService(service.IssueDependencies{
		IssueRepo:      issueRepo,
		ProductionRepo: productionRepo,
		Dispatcher:     dispatcher,
		Logger:         logger,
	})
	staffService := service.NewStaffService(staffRepo)

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)
	authMiddleware := auth.NewAuthMiddleware(tokens)

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	routes := httptransport.RouteConfig{
		Health: handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version,
			handlers.Dependency{Name: "postgres", Pinger: pg},
			handlers.Dependency{Name: "redis", Pinger: redis},
		),
		Productions:    handlers.NewProductionsHandler(productionService, assignmentService, loc),
		Staff:          handlers.NewStaffHandler(staffService, availabilityService, productionService, loc),
		Issues:         handlers.NewIssuesHandler(issueService),
		AuthMiddleware: authMiddleware,
		MetricsPath:    cfg.Metrics.Path,
	}
	if registry != nil {
		routes.Metrics = adaptor.HTTPHandler(promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}
	httptransport.RegisterRoutes(app, routes)

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Warn("shutdown", zap.Error(err))
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
