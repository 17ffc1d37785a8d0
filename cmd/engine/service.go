package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/lxp-platform/qna-engine/internal/consumer"
	"github.com/lxp-platform/qna-engine/internal/cron"
	"github.com/lxp-platform/qna-engine/pkg/config"
	"github.com/lxp-platform/qna-engine/pkg/db"
	"github.com/lxp-platform/qna-engine/pkg/logger"
	"github.com/lxp-platform/qna-engine/pkg/pubsub"
	"github.com/lxp-platform/qna-engine/pkg/redis"
)

const httpShutdownTimeout = 10 * time.Second

type ServiceParams struct {
	Config    *config.Config
	Logger    *logger.Logger
	DB        *db.Client
	Redis     *redis.Client
	PubSub    *pubsub.Client
	Consumer  *consumer.Consumer
	Scheduler *cron.Service
	HTTP      http.Handler
}

// Service runs the engine's three long-lived loops side by side: the bus
// consumer, the scheduler driving the pending-event worker, and the
// operational HTTP server.
type Service struct {
	cfg       *config.Config
	logg      *logger.Logger
	db        *db.Client
	redis     *redis.Client
	pubsub    *pubsub.Client
	consumer  *consumer.Consumer
	scheduler *cron.Service
	http      http.Handler
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Config == nil {
		return nil, errors.New("config is required")
	}
	if params.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if params.DB == nil {
		return nil, errors.New("database client is required")
	}
	if params.PubSub == nil {
		return nil, errors.New("pubsub client is required")
	}
	if params.Consumer == nil {
		return nil, errors.New("consumer is required")
	}
	if params.Scheduler == nil {
		return nil, errors.New("scheduler is required")
	}
	if params.HTTP == nil {
		return nil, errors.New("http handler is required")
	}

	return &Service{
		cfg:       params.Config,
		logg:      params.Logger,
		db:        params.DB,
		redis:     params.Redis,
		pubsub:    params.PubSub,
		consumer:  params.Consumer,
		scheduler: params.Scheduler,
		http:      params.HTTP,
	}, nil
}

func (s *Service) ensureReadiness(ctx context.Context) error {
	if err := pingDependency(ctx, s.logg, "database", s.db.Ping); err != nil {
		return err
	}
	if err := pingDependency(ctx, s.logg, "pubsub", s.pubsub.Ping); err != nil {
		return err
	}
	if s.redis != nil {
		if err := pingDependency(ctx, s.logg, "redis", s.redis.Ping); err != nil {
			return err
		}
	}
	s.logg.Info(ctx, "all engine dependencies are ready")
	return nil
}

func pingDependency(ctx context.Context, logg *logger.Logger, name string, fn func(context.Context) error) error {
	if err := fn(ctx); err != nil {
		logg.Error(ctx, fmt.Sprintf("%s ping failed", name), err)
		return fmt.Errorf("%s ping failed: %w", name, err)
	}
	return nil
}

func (s *Service) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	if err := s.ensureReadiness(ctx); err != nil {
		return err
	}

	server := &http.Server{
		Addr:    ":" + s.cfg.App.Port,
		Handler: s.http,
	}

	errCh := make(chan error, 3)
	go func() {
		errCh <- s.consumer.Run(ctx)
	}()
	go func() {
		errCh <- s.scheduler.Run(ctx)
	}()
	go func() {
		s.logg.Info(s.logg.WithField(ctx, "addr", server.Addr), "http server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), httpShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			s.logg.Error(ctx, "http server shutdown failed", err)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			s.logg.Info(ctx, "engine context canceled")
			return ctx.Err()
		case err := <-errCh:
			if err != nil && !errors.Is(err, context.Canceled) {
				s.logg.Error(ctx, "engine loop stopped unexpectedly", err)
				return err
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
		}
	}
}
