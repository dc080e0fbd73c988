package workflow

import (
	"context"
	"errors"
	"time"

	"artistry/internal/domain"
	"artistry/internal/infra"
)

// DefaultPollInterval is how long an idle worker sleeps between claims.
const DefaultPollInterval = 2 * time.Second

// Worker claims pending jobs one at a time and runs them.
type Worker struct {
	claimer domain.JobClaimer
	runner  JobRunner
	logger  infra.Logger
	poll    time.Duration
}

func NewWorker(claimer domain.JobClaimer, runner JobRunner, logger infra.Logger, poll time.Duration) *Worker {
	if poll <= 0 {
		poll = DefaultPollInterval
	}
	return &Worker{claimer: claimer, runner: runner, logger: logger, poll: poll}
}

// Run loops until ctx is cancelled. Job failures are recorded on the job and
// never stop the loop.
func (w *Worker) Run(ctx context.Context) error {
	w.logger.Info().Msg("worker: started")
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		job, err := w.claimer.ClaimPending(ctx)
		if err != nil {
			if !errors.Is(err, domain.ErrNotFound) && ctx.Err() == nil {
				w.logger.Error().Err(err).Msg("worker: failed to claim job")
			}
			if err := sleep(ctx, w.poll); err != nil {
				return err
			}
			continue
		}

		w.logger.Info().Str("job_id", job.ID).Msg("worker: picked job")
		if err := w.runner.ProcessJob(ctx, job); err != nil {
			w.logger.Error().Err(err).Str("job_id", job.ID).Msg("worker: job failed")
		}
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
