package cron

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/agentlow/agentlow/internal/security"
)

type fakePruner struct {
	removed int64
	err     error
	calls   int
}

func (p *fakePruner) PruneExpired(_ context.Context) (int64, error) {
	p.calls++
	return p.removed, p.err
}

func TestCachePruneJobDefaults(t *testing.T) {
	t.Parallel()

	j := &CachePruneJob{}
	if j.Name() != "cache_prune" {
		t.Errorf("Name = %q", j.Name())
	}
	if j.Schedule() != "*/30 * * * *" {
		t.Errorf("Schedule = %q", j.Schedule())
	}

	j.ScheduleExpr = "0 * * * *"
	if j.Schedule() != "0 * * * *" {
		t.Errorf("Schedule override = %q", j.Schedule())
	}
}

func TestCachePruneJobRun(t *testing.T) {
	t.Parallel()

	var events []security.AuditEvent
	audit := security.NewAuditLogger(security.AuditLoggerConfig{
		OnEvent: func(ev security.AuditEvent) { events = append(events, ev) },
	})

	pruner := &fakePruner{removed: 3}
	j := &CachePruneJob{Cache: pruner, Audit: audit, Logger: slog.Default()}

	if err := j.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if pruner.calls != 1 {
		t.Errorf("PruneExpired called %d times, want 1", pruner.calls)
	}
	if len(events) != 1 || events[0].Type != security.EventCachePrune {
		t.Errorf("audit events = %+v, want one cache_prune event", events)
	}
}

func TestCachePruneJobRunNothingRemoved(t *testing.T) {
	t.Parallel()

	var events []security.AuditEvent
	audit := security.NewAuditLogger(security.AuditLoggerConfig{
		OnEvent: func(ev security.AuditEvent) { events = append(events, ev) },
	})

	j := &CachePruneJob{Cache: &fakePruner{}, Audit: audit, Logger: slog.Default()}

	if err := j.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(events) != 0 {
		t.Errorf("audit events = %+v, want none when nothing was pruned", events)
	}
}

func TestCachePruneJobRunError(t *testing.T) {
	t.Parallel()

	wantErr := errors.New("db locked")
	j := &CachePruneJob{Cache: &fakePruner{err: wantErr}, Logger: slog.Default()}

	if err := j.Run(context.Background()); !errors.Is(err, wantErr) {
		t.Errorf("Run = %v, want wrapped %v", err, wantErr)
	}
}
