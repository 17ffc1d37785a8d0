package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/lxp-platform/qna-engine/api/controllers"
	"github.com/lxp-platform/qna-engine/api/routes"
	"github.com/lxp-platform/qna-engine/internal/answer"
	"github.com/lxp-platform/qna-engine/internal/callback"
	"github.com/lxp-platform/qna-engine/internal/consumer"
	"github.com/lxp-platform/qna-engine/internal/cron"
	"github.com/lxp-platform/qna-engine/internal/store"
	"github.com/lxp-platform/qna-engine/internal/worker"
	"github.com/lxp-platform/qna-engine/pkg/config"
	"github.com/lxp-platform/qna-engine/pkg/db"
	"github.com/lxp-platform/qna-engine/pkg/logger"
	"github.com/lxp-platform/qna-engine/pkg/metrics"
	"github.com/lxp-platform/qna-engine/pkg/migrate"
	"github.com/lxp-platform/qna-engine/pkg/pubsub"
	"github.com/lxp-platform/qna-engine/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "qna-engine"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "qna-engine",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logStartupConfig(ctx, logg, cfg)

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(ctx, "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		logg.Error(ctx, "failed to run dev migrations", err)
		os.Exit(1)
	}

	var redisClient *redis.Client
	if cfg.Redis.Enabled() {
		redisClient, err = redis.New(ctx, cfg.Redis, logg)
		if err != nil {
			logg.Error(ctx, "failed to bootstrap redis", err)
			os.Exit(1)
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				logg.Error(ctx, "error closing redis", err)
			}
		}()
	}

	pubsubClient, err := pubsub.NewClient(ctx, cfg.GCP, cfg.PubSub, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap pubsub", err)
		os.Exit(1)
	}
	defer func() {
		if err := pubsubClient.Close(); err != nil {
			logg.Error(ctx, "error closing pubsub", err)
		}
	}()

	generator, err := answer.NewGenerator(cfg.LLM)
	if err != nil {
		logg.Error(ctx, "failed to create answer generator", err)
		os.Exit(1)
	}

	callbackClient, err := callback.NewClient(cfg.Callback, logg)
	if err != nil {
		logg.Error(ctx, "failed to create callback client", err)
		os.Exit(1)
	}

	repo := store.NewRepository(dbClient.DB())

	workerMetrics := metrics.NewWorkerMetrics(prometheus.DefaultRegisterer)
	pendingWorker, err := worker.NewWorker(worker.Params{
		Store:     repo,
		Generator: generator,
		Callback:  callbackClient,
		Metrics:   workerMetrics,
		Logger:    logg,
		BatchSize: cfg.Worker.BatchSize,
	})
	if err != nil {
		logg.Error(ctx, "failed to create worker", err)
		os.Exit(1)
	}

	qnaConsumer, err := consumer.NewConsumer(repo, pubsubClient.QnaSubscription(), cfg.PubSub.Prefetch, logg)
	if err != nil {
		logg.Error(ctx, "failed to create consumer", err)
		os.Exit(1)
	}

	lock, err := cycleLock(redisClient, cfg)
	if err != nil {
		logg.Error(ctx, "failed to create cycle lock", err)
		os.Exit(1)
	}

	scheduler, err := cron.NewService(cron.ServiceParams{
		Logger:     logg,
		Registry:   cron.NewRegistry(pendingWorker),
		Lock:       lock,
		Scheduling: cfg.Scheduling,
	})
	if err != nil {
		logg.Error(ctx, "failed to create scheduler", err)
		os.Exit(1)
	}

	deps := []controllers.Dependency{
		{Name: "database", Pinger: dbClient},
		{Name: "pubsub", Pinger: pubsubClient},
	}
	if redisClient != nil {
		deps = append(deps, controllers.Dependency{Name: "redis", Pinger: redisClient})
	}
	router := routes.NewRouter(cfg, logg, deps...)

	service, err := NewService(ServiceParams{
		Config:    cfg,
		Logger:    logg,
		DB:        dbClient,
		Redis:     redisClient,
		PubSub:    pubsubClient,
		Consumer:  qnaConsumer,
		Scheduler: scheduler,
		HTTP:      router,
	})
	if err != nil {
		logg.Error(ctx, "failed to create engine service", err)
		os.Exit(1)
	}

	logg.Info(ctx, "starting qna engine")
	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "qna engine stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "qna engine shutting down gracefully")
}

func cycleLock(redisClient *redis.Client, cfg *config.Config) (cron.Lock, error) {
	if redisClient == nil {
		return cron.NewLocalLock(), nil
	}
	return cron.NewRedisLock(redisClient, cfg.Worker.LockKey, cfg.Worker.LockTTL)
}

func logStartupConfig(ctx context.Context, logg *logger.Logger, cfg *config.Config) {
	logCtx := logg.WithFields(ctx, map[string]any{
		"env":                cfg.App.Env,
		"db_driver":          cfg.DB.Driver,
		"redis_enabled":      cfg.Redis.Enabled(),
		"pubsub_topic":       cfg.PubSub.QnaTopic,
		"subscription":       cfg.PubSub.QnaSubscription,
		"prefetch":           cfg.PubSub.Prefetch,
		"schedules":          cfg.Scheduling.Specs(),
		"timezone":           cfg.Scheduling.Timezone,
		"immediate":          cfg.Scheduling.Immediate,
		"immediate_interval": cfg.Scheduling.ImmediateInterval.String(),
		"callback_base_url":  cfg.Callback.BaseURL,
		"llm_provider":       cfg.LLM.Provider,
		"llm_model":          cfg.LLM.Model,
		"batch_size":         cfg.Worker.BatchSize,
	})
	logg.Info(logCtx, "engine configuration loaded")
}
