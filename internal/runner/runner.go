// Package runner drives the autonomous loop from the outside. The core
// itself never blocks or schedules: enqueue, sync and interpret are all
// single synchronous calls, so something has to invoke them repeatedly.
// Runner is that caller, polling pending jobs on a fixed interval until
// its context is cancelled.
package runner

import (
	"context"
	"time"

	"github.com/J3r3C0/sheratan-core-v2/pkg/models"
	"github.com/J3r3C0/sheratan-core-v2/pkg/service"
)

// Logger defines the logging interface for the Runner
type Logger interface {
	Infof(format string, args ...interface{})
	Errorf(format string, args ...interface{})
	Warnf(format string, args ...interface{})
}

type Runner struct {
	svc      *service.MissionService
	logger   Logger
	interval time.Duration
}

func New(svc *service.MissionService, logger Logger, interval time.Duration) *Runner {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	return &Runner{
		svc:      svc,
		logger:   logger,
		interval: interval,
	}
}

// Run polls until ctx is cancelled. Each tick syncs every pending job once;
// jobs without a result stay pending and are probed again next tick. A
// failure on one job is logged and does not stop the loop.
func (r *Runner) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.logger.Infof("Runner polling every %s", r.interval)
	for {
		select {
		case <-ctx.Done():
			r.logger.Infof("Runner stopping: %v", ctx.Err())
			return nil
		case <-ticker.C:
			r.Tick()
		}
	}
}

// Tick performs one polling pass and returns the number of jobs that
// reached a terminal state during it.
func (r *Runner) Tick() int {
	jobs, err := r.svc.ListJobs()
	if err != nil {
		r.logger.Errorf("Failed to list jobs: %v", err)
		return 0
	}
	synced := 0
	for _, job := range jobs {
		if job.Status != models.PendingJobStatus {
			continue
		}
		updated, followups, err := r.svc.SyncJob(job.ID)
		if err != nil {
			r.logger.Errorf("Failed to sync job %s: %v", job.ID, err)
			continue
		}
		if updated == nil {
			continue
		}
		synced++
		if len(followups) > 0 {
			r.logger.Infof("Job %s expanded into %d follow-up job(s)", job.ID, len(followups))
		}
	}
	return synced
}
