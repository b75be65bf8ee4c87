package cron

import (
	"context"
	"log/slog"
	"sync"
	"testing"
)

// simpleJob is a minimal Job for scheduler tests.
type simpleJob struct {
	name     string
	schedule string
	runFunc  func(ctx context.Context) error
	mu       sync.Mutex
	calls    int
}

func (j *simpleJob) Name() string     { return j.name }
func (j *simpleJob) Schedule() string { return j.schedule }
func (j *simpleJob) Run(ctx context.Context) error {
	j.mu.Lock()
	j.calls++
	j.mu.Unlock()
	if j.runFunc != nil {
		return j.runFunc(ctx)
	}
	return nil
}

func TestSchedulerRegisterJobDuplicateName(t *testing.T) {
	t.Parallel()

	s := NewScheduler(slog.Default())

	if err := s.RegisterJob(&simpleJob{name: "test", schedule: "* * * * *"}); err != nil {
		t.Fatalf("first registration should succeed: %v", err)
	}
	if err := s.RegisterJob(&simpleJob{name: "test", schedule: "* * * * *"}); err == nil {
		t.Fatal("duplicate registration should fail")
	}
}

func TestSchedulerStartInvalidSchedule(t *testing.T) {
	t.Parallel()

	s := NewScheduler(slog.Default())
	_ = s.RegisterJob(&simpleJob{name: "bad", schedule: "invalid"})

	if err := s.Start(); err == nil {
		t.Fatal("expected error for invalid schedule")
	}
}

func TestSchedulerStartStop(t *testing.T) {
	t.Parallel()

	s := NewScheduler(slog.Default())
	_ = s.RegisterJob(&simpleJob{name: "noop", schedule: "* * * * *"})

	if err := s.Start(); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if err := s.Stop(context.Background()); err != nil {
		t.Fatalf("stop failed: %v", err)
	}
}

func TestSchedulerNilLogger(t *testing.T) {
	t.Parallel()

	s := NewScheduler(nil)
	if s.logger == nil {
		t.Fatal("logger should default")
	}
}
