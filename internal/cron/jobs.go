package cron

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/agentlow/agentlow/internal/security"
)

// Pruner is the subset of the cache needed by the prune job. Defined here to
// avoid a dependency on the cache package.
type Pruner interface {
	PruneExpired(ctx context.Context) (int64, error)
}

// CachePruneJob periodically removes expired response cache entries, so the
// store does not rely on lazy read-time expiry alone to stay bounded.
type CachePruneJob struct {
	Cache        Pruner
	Audit        *security.AuditLogger
	Logger       *slog.Logger
	ScheduleExpr string // empty = default "*/30 * * * *"
}

var _ Job = (*CachePruneJob)(nil)

// Name implements Job.
func (j *CachePruneJob) Name() string {
	return "cache_prune"
}

// Schedule implements Job.
func (j *CachePruneJob) Schedule() string {
	if j.ScheduleExpr != "" {
		return j.ScheduleExpr
	}
	return "*/30 * * * *"
}

// Run prunes expired entries and records an audit event when any were
// removed.
func (j *CachePruneJob) Run(ctx context.Context) error {
	removed, err := j.Cache.PruneExpired(ctx)
	if err != nil {
		return fmt.Errorf("cron: cache prune: %w", err)
	}
	if removed > 0 {
		j.Logger.Info("cron: pruned expired cache entries", "removed", removed)
		j.Audit.Log(security.AuditEvent{
			Type:   security.EventCachePrune,
			Detail: fmt.Sprintf("removed %d expired entries", removed),
		})
	}
	return nil
}
