package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/nyumbahq/nyumba-backend/internal/notifications"
	"github.com/nyumbahq/nyumba-backend/internal/reconciler"
	"github.com/nyumbahq/nyumba-backend/pkg/config"
	"github.com/nyumbahq/nyumba-backend/pkg/db"
	"github.com/nyumbahq/nyumba-backend/pkg/logger"
	"github.com/nyumbahq/nyumba-backend/pkg/metrics"
	"github.com/nyumbahq/nyumba-backend/pkg/migrate"
	"github.com/nyumbahq/nyumba-backend/pkg/outbox"
	"github.com/nyumbahq/nyumba-backend/pkg/pubsub"
	"github.com/nyumbahq/nyumba-backend/pkg/redis"
)

const lockKeyFormat = "nyumba:reconciler:lock:%s"

func main() {
	logg := logger.New(logger.Options{ServiceName: "reconciler-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	cfg.Service.Kind = "reconciler-worker"

	logg = logger.New(logger.Options{
		ServiceName: "reconciler-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	pubsubClient, err := pubsub.NewClient(context.Background(), cfg.GCP, cfg.PubSub, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap pubsub", err)
		os.Exit(1)
	}
	defer func() {
		if err := pubsubClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing pubsub", err)
		}
	}()

	gormDB := dbClient.DB()
	sweepRepo := reconciler.NewRepository(gormDB)
	outboxRepo := outbox.NewRepository(gormDB)
	outboxSvc := outbox.NewService(outboxRepo, logg)
	notificationsRepo := notifications.NewRepository(gormDB)

	registry := reconciler.NewRegistry()

	unitStatusJob, err := reconciler.NewUnitStatusJob(reconciler.UnitStatusJobParams{
		Logger:     logg,
		DB:         dbClient,
		Repository: sweepRepo,
		Outbox:     outboxSvc,
		OutboxRepo: outboxRepo,
		BatchSize:  cfg.Reconciler.BatchSize,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to build unit status sweep", err)
		os.Exit(1)
	}
	registry.Register(unitStatusJob)

	roleIntegrityJob, err := reconciler.NewRoleIntegrityJob(reconciler.RoleIntegrityJobParams{
		Logger:     logg,
		DB:         dbClient,
		Repository: sweepRepo,
		BatchSize:  cfg.Reconciler.BatchSize,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to build role integrity sweep", err)
		os.Exit(1)
	}
	registry.Register(roleIntegrityJob)

	cleanupJob, err := reconciler.NewNotificationCleanupJob(reconciler.NotificationCleanupJobParams{
		Logger:     logg,
		Repository: notificationsRepo,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to build notification cleanup sweep", err)
		os.Exit(1)
	}
	registry.Register(cleanupJob)

	retentionJob, err := reconciler.NewOutboxRetentionJob(reconciler.OutboxRetentionJobParams{
		Logger:      logg,
		DB:          dbClient,
		Repository:  outboxRepo,
		MinAttempts: cfg.Outbox.MaxAttempts,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to build outbox retention sweep", err)
		os.Exit(1)
	}
	registry.Register(retentionJob)

	metricsCollector := metrics.NewCronJobMetrics(prometheus.DefaultRegisterer)
	lock, err := reconciler.NewRedisLock(redisClient, lockKey(cfg.App.Env), 0)
	if err != nil {
		logg.Error(context.Background(), "failed to create sweep lock", err)
		os.Exit(1)
	}

	service, err := reconciler.NewService(reconciler.ServiceParams{
		Logger:   logg,
		Registry: registry,
		Lock:     lock,
		Metrics:  metricsCollector,
		Interval: cfg.Reconciler.SweepInterval,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create reconciler service", err)
		os.Exit(1)
	}

	consumer, err := reconciler.NewConsumer(pubsubClient.ReconcilerSubscription(), service, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create reconciler consumer", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
	})
	logg.Info(ctx, "starting reconciler worker")

	go func() {
		if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logg.Error(ctx, "reconciler consumer stopped unexpectedly", err)
			stop()
		}
	}()

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "reconciler worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "reconciler worker shutting down gracefully")
}

func lockKey(env string) string {
	if env == "" {
		env = "local"
	}
	return fmt.Sprintf(lockKeyFormat, env)
}
