// Package cron schedules periodic maintenance tasks, currently the response
// cache pruning pass.
package cron

import "context"

// Job is a periodic background task.
type Job interface {
	// Name returns a unique identifier for the job, used for logging and
	// duplicate detection.
	Name() string

	// Schedule returns a 5-field cron expression (e.g. "*/30 * * * *").
	Schedule() string

	// Run executes one pass of the job.
	Run(ctx context.Context) error
}
