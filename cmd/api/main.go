package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/myhostelpal/complaint-service/internal/api/http"
	"github.com/myhostelpal/complaint-service/internal/api/http/handlers"
	"github.com/myhostelpal/complaint-service/internal/auth"
	"github.com/myhostelpal/complaint-service/internal/channels"
	"github.com/myhostelpal/complaint-service/internal/classifier"
	"github.com/myhostelpal/complaint-service/internal/config"
	"github.com/myhostelpal/complaint-service/internal/events"
	"github.com/myhostelpal/complaint-service/internal/observability"
	"github.com/myhostelpal/complaint-service/internal/persistence"
	"github.com/myhostelpal/complaint-service/internal/realtime"
	"github.com/myhostelpal/complaint-service/internal/repository"
	"github.com/myhostelpal/complaint-service/internal/repository/memstore"
	"github.com/myhostelpal/complaint-service/internal/service"
	"github.com/myhostelpal/complaint-service/internal/worker"
)

type repositories struct {
	users         repository.UserRepository
	tickets       repository.TicketRepository
	notifications repository.NotificationRepository
	reports       repository.ReportRepository
}

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

	var repos repositories
	if pool := pg.PoolHandle(); pool != nil {
		if cfg.Postgres.RunMigrations {
			if err := persistence.RunMigrations(ctx, pool, logger); err != nil {
				logger.Fatal("failed to run migrations", zap.Error(err))
			}
		}
		repos = repositories{
			users:         repository.NewUserRepository(pool),
			tickets:       repository.NewTicketRepository(pool),
			notifications: repository.NewNotificationRepository(pool),
			reports:       repository.NewReportRepository(pool),
		}
	} else {
		store := memstore.New()
		repos = repositories{
			users:         store.Users(),
			tickets:       store.Tickets(),
			notifications: store.Notifications(),
			reports:       store.Reports(),
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	metrics := observability.NewMetrics()

	var completer classifier.Completer
	if cfg.AI.APIKey != "" {
		completer = classifier.NewAnthropicCompleter(cfg.AI.APIKey, cfg.AI.Model, cfg.AI.MaxTokens)
	} else {
		logger.Warn("AI_API_KEY not provided; tickets get default classification")
	}
	analyzer := classifier.New(completer, classifier.Options{
		Timeout:           cfg.AI.Timeout(),
		MaxAttempts:       cfg.AI.MaxAttempts,
		RetryDelay:        cfg.AI.RetryDelay(),
		MinDescriptionLen: cfg.AI.MinDescriptionLen,
	}, logger, metrics)

	hub := realtime.NewBroadcaster(realtime.NewMemoryStore(), cfg.Realtime.SendBuffer, logger)
	var live realtime.Publisher = hub
	if cfg.Realtime.RedisRelay && redis.Available() {
		relay := realtime.NewRedisRelay(redis.Client, cfg.Realtime.RelayChannel, hub, logger)
		go func() {
			if err := relay.Run(ctx); err != nil && ctx.Err() == nil {
				logger.Error("live update relay stopped", zap.Error(err))
			}
		}()
		live = relay
	}

	dispatcher := events.NewInMemoryDispatcher()
	worker.StartLiveUpdateWorker(dispatcher, live)

	notifier := service.NewNotificationService(service.NotificationDependencies{
		NotificationRepo: repos.notifications,
		UserRepo:         repos.users,
		Channels:         channels.NewRegistry(cfg.Notification, logger),
		Live:             live,
		Logger:           logger,
		DeliveryTimeout:  cfg.Notification.DeliveryTimeout(),
	})
	authService := service.NewAuthService(*cfg, service.AuthDependencies{
		UserRepo: repos.users,
		Logger:   logger,
	})
	if err := authService.EnsureAdmin(ctx, cfg.Auth.AdminEmail, cfg.Auth.AdminPassword); err != nil {
		logger.Fatal("failed to bootstrap admin", zap.Error(err))
	}
	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo: repos.tickets,
		UserRepo:   repos.users,
		Analyzer:   analyzer,
		Notifier:   notifier,
		Dispatcher: dispatcher,
		Metrics:    metrics,
		Logger:     logger,
	})
	assignmentService := service.NewAssignmentService(service.AssignmentDependencies{
		TicketRepo: repos.tickets,
		UserRepo:   repos.users,
		Notifier:   notifier,
		Dispatcher: dispatcher,
		Logger:     logger,
	})
	userService := service.NewUserService(repos.users, logger)
	reportService := service.NewReportService(repos.reports)
	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), repos.users)

	images, err := handlers.NewImageStore(cfg.Uploads.Dir, cfg.Uploads.PublicURL)
	if err != nil {
		logger.Fatal("failed to prepare upload dir", zap.Error(err))
	}

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		BodyLimit:    30 << 20,
		ErrorHandler: httptransport.ErrorHandler(logger, metrics),
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	var limiter *httptransport.RateLimiter
	if cfg.RateLimit.Enabled {
		limiter = httptransport.NewRateLimiter(redis.Client, cfg.RateLimit.Window(), logger)
	}

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Auth:           handlers.NewAuthHandler(authService),
		Tickets:        handlers.NewTicketsHandler(ticketService, assignmentService, images),
		Notifications:  handlers.NewNotificationsHandler(notifier),
		Admin:          handlers.NewAdminHandler(userService, reportService, metrics),
		AI:             handlers.NewAIHandler(analyzer),
		WebSocket:      handlers.NewWebSocketHandler(authMiddleware, hub, live, logger),
		AuthMiddleware: authMiddleware,
		RateLimiter:    limiter,
		Limits: httptransport.Limits{
			API:  cfg.RateLimit.APILimit,
			Auth: cfg.RateLimit.AuthLimit,
			AI:   cfg.RateLimit.AILimit,
		},
		UploadsDir: cfg.Uploads.Dir,
	})

	go worker.RunEscalationSweeper(ctx, ticketService, cfg.Escalation.SweepInterval(), logger)

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	cancel()
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Error("shutdown", zap.Error(err))
	}
	notifier.Wait()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
