package workers

import (
	"context"
	"time"

	"github.com/fieldsync/fieldsync/internal/service"
)

type Workers struct {
	workers []Worker
}

// NewWorkers groups the given workers for a single Run call.
func NewWorkers(w ...Worker) *Workers {
	return &Workers{workers: w}
}

func (w *Workers) Run() {
	for _, worker := range w.workers {
		worker.Run()
	}
}

// SyncWorker starts the periodic queue drain job.
type SyncWorker struct {
	ctx      context.Context
	job      service.SyncJob
	interval time.Duration
}

// NewSyncWorker wraps the sync job as a [Worker]. The job runs until ctx is
// cancelled or Stop is called on it.
func NewSyncWorker(ctx context.Context, job service.SyncJob, interval time.Duration) *SyncWorker {
	return &SyncWorker{ctx: ctx, job: job, interval: interval}
}

func (w *SyncWorker) Run() {
	w.job.Start(w.ctx, w.interval)
}
