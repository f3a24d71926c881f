package main

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/kursadbilgin/club-notifier/internal/config"
	"github.com/kursadbilgin/club-notifier/internal/handler"
	"github.com/kursadbilgin/club-notifier/internal/infra/postgresql"
	"github.com/kursadbilgin/club-notifier/internal/infra/postgresql/migrations"
	infraredis "github.com/kursadbilgin/club-notifier/internal/infra/redis"
	"github.com/kursadbilgin/club-notifier/internal/observability"
	"github.com/kursadbilgin/club-notifier/internal/provider"
	"github.com/kursadbilgin/club-notifier/internal/queue"
	"github.com/kursadbilgin/club-notifier/internal/repository"
	"github.com/kursadbilgin/club-notifier/internal/service"
	"github.com/kursadbilgin/club-notifier/internal/transport"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	shutdownTimeout  = 10 * time.Second
	consumerPrefetch = 16
)

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

	if err := run(cfg, logger); err != nil {
		logger.Fatal("club-notifier stopped with error", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := postgresql.NewPostgres(cfg.DatabaseDSN)
	if err != nil {
		return fmt.Errorf("postgres initialization failed: %w", err)
	}

	if err := migrations.Migrate(db); err != nil {
		return fmt.Errorf("database migrations failed: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("postgres underlying db init failed: %w", err)
	}
	defer sqlDB.Close()

	rdb, err := infraredis.NewRedis(cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("redis initialization failed: %w", err)
	}
	defer rdb.Close()

	rateLimiter, err := infraredis.NewRedisRateLimiter(rdb, cfg.RateLimitPerSec)
	if err != nil {
		return fmt.Errorf("rate limiter initialization failed: %w", err)
	}

	rabbit, err := queue.NewRabbitMQ(cfg.RabbitMQURL)
	if err != nil {
		return fmt.Errorf("rabbitmq initialization failed: %w", err)
	}
	defer rabbit.Close()

	publisher := queue.NewRabbitMQPublisher(rabbit)
	consumer := queue.NewRabbitMQConsumer(rabbit, consumerPrefetch, logger)

	gateway, err := provider.NewMessengerGateway(cfg.GatewayURL)
	if err != nil {
		return fmt.Errorf("gateway initialization failed: %w", err)
	}

	recipientRepo := repository.NewGormRecipientRepo(db)
	reminderRepo := repository.NewGormReminderRepo(db)
	notificationRepo := repository.NewGormNotificationRepo(db)
	scheduleRepo := repository.NewGormScheduleRepo(db)

	metrics := observability.NewMetrics()

	directoryService, err := service.NewDirectoryService(recipientRepo, logger)
	if err != nil {
		return fmt.Errorf("directory service init failed: %w", err)
	}

	reminderService, err := service.NewReminderService(reminderRepo, logger)
	if err != nil {
		return fmt.Errorf("reminder service init failed: %w", err)
	}

	batchService, err := service.NewBatchService(
		recipientRepo,
		notificationRepo,
		gateway,
		rateLimiter,
		cfg.DeliverConcurrency,
		logger,
	)
	if err != nil {
		return fmt.Errorf("batch service init failed: %w", err)
	}
	batchService.SetMetrics(metrics)

	sweepService, err := service.NewSweepService(
		reminderService,
		gateway,
		rateLimiter,
		cfg.DuesAmount,
		cfg.VPNAmount,
		cfg.DeliverConcurrency,
		logger,
	)
	if err != nil {
		return fmt.Errorf("sweep service init failed: %w", err)
	}
	sweepService.SetMetrics(metrics)

	scheduler, err := service.NewDailyScheduler(scheduleRepo, sweepService, cfg.Location(), logger)
	if err != nil {
		return fmt.Errorf("scheduler init failed: %w", err)
	}

	ackWorker, err := service.NewAckWorker(consumer, recipientRepo, reminderService, batchService, logger)
	if err != nil {
		return fmt.Errorf("ack worker init failed: %w", err)
	}
	ackWorker.SetMetrics(metrics)

	app := fiber.New(fiber.Config{
		ErrorHandler: transport.ErrorHandler(logger),
	})
	app.Use(metrics.HTTPMiddleware())
	app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))

	handler.RegisterHealthRoutes(app, sqlDB, rdb)
	if err := handler.RegisterRecipientRoutes(app, directoryService); err != nil {
		return fmt.Errorf("failed to register recipient routes: %w", err)
	}
	if err := handler.RegisterBatchRoutes(app, batchService); err != nil {
		return fmt.Errorf("failed to register batch routes: %w", err)
	}
	if err := handler.RegisterAckRoutes(app, publisher); err != nil {
		return fmt.Errorf("failed to register ack routes: %w", err)
	}
	if err := handler.RegisterScheduleRoutes(app, scheduler, sweepService, cfg.Timezone); err != nil {
		return fmt.Errorf("failed to register schedule routes: %w", err)
	}

	g, groupCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return scheduler.Start(groupCtx)
	})

	g.Go(func() error {
		return ackWorker.Start(groupCtx)
	})

	g.Go(func() error {
		logger.Info("club-notifier api started",
			zap.Int("port", cfg.APIPort),
			zap.String("timezone", cfg.Timezone),
		)
		if err := app.Listen(fmt.Sprintf(":%d", cfg.APIPort)); err != nil {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-groupCtx.Done()
		logger.Info("shutting down")
		return app.ShutdownWithTimeout(shutdownTimeout)
	})

	if err := g.Wait(); err != nil && ctx.Err() == nil {
		return err
	}

	return nil
}
