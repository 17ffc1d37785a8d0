package cron

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/lxp-platform/qna-engine/pkg/config"
	"github.com/lxp-platform/qna-engine/pkg/logger"
)

type fakeLock struct {
	acquired bool
	held     bool
	denied   bool
}

func (f *fakeLock) Acquire(context.Context) (bool, error) {
	if f.denied || f.held {
		return false, nil
	}
	f.held = true
	f.acquired = true
	return true, nil
}

func (f *fakeLock) Release(context.Context) error { f.held = false; return nil }

type testJob struct {
	name string
	err  error
	runs int
}

func (t *testJob) Name() string { return t.name }

func (t *testJob) Run(context.Context) error {
	t.runs++
	return t.err
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "cron-test", Level: zerolog.Disabled, Output: io.Discard})
}

func TestServiceCycleRunsAllJobsEvenOnFailure(t *testing.T) {
	registry := NewRegistry(&testJob{name: "success"}, &testJob{name: "fail", err: errors.New("boom")})
	service, err := NewService(ServiceParams{
		Logger:   testLogger(),
		Registry: registry,
		Lock:     &fakeLock{},
	})
	if err != nil {
		t.Fatalf("construct service: %v", err)
	}

	service.cycle(context.Background())

	for _, job := range registry.Jobs() {
		typed, ok := job.(*testJob)
		if !ok {
			t.Fatalf("job type mismatch")
		}
		if typed.runs != 1 {
			t.Fatalf("expected job %s to run once, ran %d", typed.name, typed.runs)
		}
	}
}

func TestServiceCycleSkipsWhenLockDenied(t *testing.T) {
	job := &testJob{name: "guarded"}
	lock := &fakeLock{denied: true}
	service, err := NewService(ServiceParams{
		Logger:   testLogger(),
		Registry: NewRegistry(job),
		Lock:     lock,
	})
	if err != nil {
		t.Fatalf("construct service: %v", err)
	}

	service.cycle(context.Background())

	if job.runs != 0 {
		t.Fatalf("expected job to be skipped, ran %d times", job.runs)
	}
}

func TestServiceRunImmediateLoopDrivesCycles(t *testing.T) {
	job := &testJob{name: "drain"}
	lock := &fakeLock{}
	service, err := NewService(ServiceParams{
		Logger:   testLogger(),
		Registry: NewRegistry(job),
		Lock:     lock,
		Scheduling: config.SchedulingConfig{
			CronPrimary:       "0 12 * * *",
			Timezone:          "UTC",
			Immediate:         true,
			ImmediateInterval: 10 * time.Millisecond,
		},
	})
	if err != nil {
		t.Fatalf("construct service: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	if err := service.Run(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	if job.runs == 0 {
		t.Fatalf("expected immediate loop to run the job at least once")
	}
	if !lock.acquired {
		t.Fatalf("expected cycles to go through the lock")
	}
}

func TestServiceRunRejectsBadSchedule(t *testing.T) {
	service, err := NewService(ServiceParams{
		Logger: testLogger(),
		Lock:   &fakeLock{},
		Scheduling: config.SchedulingConfig{
			CronPrimary: "not a cron spec",
			Timezone:    "UTC",
		},
	})
	if err != nil {
		t.Fatalf("construct service: %v", err)
	}

	if err := service.Run(context.Background()); err == nil {
		t.Fatalf("expected schedule registration error")
	}
}

func TestServiceRunRejectsBadTimezone(t *testing.T) {
	service, err := NewService(ServiceParams{
		Logger: testLogger(),
		Lock:   &fakeLock{},
		Scheduling: config.SchedulingConfig{
			Timezone: "Mars/Olympus",
		},
	})
	if err != nil {
		t.Fatalf("construct service: %v", err)
	}

	if err := service.Run(context.Background()); err == nil {
		t.Fatalf("expected timezone error")
	}
}
