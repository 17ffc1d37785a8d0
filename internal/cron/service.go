package cron

import (
	"context"
	"fmt"
	"time"

	robfig "github.com/robfig/cron/v3"

	"github.com/lxp-platform/qna-engine/pkg/config"
	"github.com/lxp-platform/qna-engine/pkg/logger"
)

// ServiceParams configure the scheduler service.
type ServiceParams struct {
	Logger     *logger.Logger
	Registry   *Registry
	Lock       Lock
	Scheduling config.SchedulingConfig
}

// Service executes registered jobs on the configured cron schedules, plus an
// optional short-interval immediate loop for low-latency draining. Every
// trigger funnels through the same lock-guarded cycle, so overlapping
// schedules never run jobs concurrently.
type Service struct {
	logg       *logger.Logger
	registry   *Registry
	lock       Lock
	scheduling config.SchedulingConfig
}

// NewService builds a scheduler service.
func NewService(params ServiceParams) (*Service, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Lock == nil {
		return nil, fmt.Errorf("lock required")
	}
	registry := params.Registry
	if registry == nil {
		registry = NewRegistry()
	}
	return &Service{
		logg:       params.Logger,
		registry:   registry,
		lock:       params.Lock,
		scheduling: params.Scheduling,
	}, nil
}

// Run starts the scheduler until the context is canceled.
func (s *Service) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	location, err := time.LoadLocation(s.scheduling.Timezone)
	if err != nil {
		return fmt.Errorf("load timezone %q: %w", s.scheduling.Timezone, err)
	}

	scheduler := robfig.New(robfig.WithLocation(location))
	for _, spec := range s.scheduling.Specs() {
		specCtx := s.logg.WithField(ctx, "schedule", spec)
		if _, err := scheduler.AddFunc(spec, func() { s.cycle(specCtx) }); err != nil {
			return fmt.Errorf("register schedule %q: %w", spec, err)
		}
		s.logg.Info(specCtx, "schedule registered")
	}

	scheduler.Start()
	defer func() {
		<-scheduler.Stop().Done()
	}()

	if s.scheduling.Immediate {
		s.immediateLoop(ctx)
	} else {
		<-ctx.Done()
	}

	s.logg.Info(ctx, "scheduler context canceled")
	return ctx.Err()
}

func (s *Service) immediateLoop(ctx context.Context) {
	interval := s.scheduling.ImmediateInterval
	if interval <= 0 {
		interval = 5 * time.Second
	}

	loopCtx := s.logg.WithField(ctx, "interval", interval.String())
	s.logg.Info(loopCtx, "immediate processing enabled")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.cycle(ctx)
		}
	}
}

func (s *Service) cycle(ctx context.Context) {
	locked, err := s.lock.Acquire(ctx)
	if err != nil {
		s.logg.Error(ctx, "cycle lock acquire failed", err)
		return
	}
	if !locked {
		return
	}
	defer func() {
		if relErr := s.lock.Release(ctx); relErr != nil {
			s.logg.Error(ctx, "failed to release cycle lock", relErr)
		}
	}()

	for _, job := range s.registry.Jobs() {
		s.runJob(ctx, job)
	}
}

func (s *Service) runJob(ctx context.Context, job Job) {
	jobCtx := s.logg.WithField(ctx, "job", job.Name())
	start := time.Now()
	err := job.Run(jobCtx)
	jobCtx = s.logg.WithField(jobCtx, "duration_ms", time.Since(start).Milliseconds())
	if err != nil {
		s.logg.Error(jobCtx, "job failed", err)
		return
	}
	s.logg.Info(jobCtx, "job completed")
}
