package workflow

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"

	"artistry/internal/domain"
	"artistry/internal/infra"
)

// JobRunner executes one pending job to completion.
type JobRunner interface {
	ProcessJob(ctx context.Context, job *domain.Job) error
}

// Dispatcher hands freshly created jobs to whatever runs them.
type Dispatcher interface {
	Dispatch(job *domain.Job)
	// Wait blocks until in-flight work is done or ctx expires.
	Wait(ctx context.Context) error
}

// InlineDispatcher runs jobs in background goroutines of the current process.
// At most n jobs run at once; Dispatch itself never blocks.
type InlineDispatcher struct {
	runner JobRunner
	sem    *semaphore.Weighted
	logger infra.Logger
	base   context.Context
	wg     sync.WaitGroup
}

func NewInlineDispatcher(runner JobRunner, concurrency int, logger infra.Logger) *InlineDispatcher {
	if concurrency < 1 {
		concurrency = 1
	}
	return &InlineDispatcher{
		runner: runner,
		sem:    semaphore.NewWeighted(int64(concurrency)),
		logger: logger,
		base:   context.Background(),
	}
}

func (d *InlineDispatcher) Dispatch(job *domain.Job) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		if err := d.sem.Acquire(d.base, 1); err != nil {
			d.logger.Error().Err(err).Str("job_id", job.ID).Msg("dispatch: acquire slot failed")
			return
		}
		defer d.sem.Release(1)
		if err := d.runner.ProcessJob(d.base, job); err != nil {
			d.logger.Warn().Err(err).Str("job_id", job.ID).Msg("dispatch: job failed")
		}
	}()
}

func (d *InlineDispatcher) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// QueueDispatcher leaves jobs pending for a worker process to claim.
type QueueDispatcher struct {
	logger infra.Logger
}

func NewQueueDispatcher(logger infra.Logger) *QueueDispatcher {
	return &QueueDispatcher{logger: logger}
}

func (d *QueueDispatcher) Dispatch(job *domain.Job) {
	d.logger.Debug().Str("job_id", job.ID).Msg("dispatch: queued for worker")
}

func (d *QueueDispatcher) Wait(ctx context.Context) error {
	return nil
}

var (
	_ Dispatcher = (*InlineDispatcher)(nil)
	_ Dispatcher = (*QueueDispatcher)(nil)
)
