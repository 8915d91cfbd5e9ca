package workerpool

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/pitabwire/util"

	"github.com/pitabwire/localize/config"
)

const (
	jobRetryBackoffBaseDelay    = 100 * time.Millisecond
	jobRetryBackoffMaxDelay     = 30 * time.Second
	jobRetryBackoffMaxRunNumber = 10
)

var ErrPoolNotConfigured = errors.New("worker pool is not configured")

func jobRetryBackoffDelay(run int) time.Duration {
	if run < 1 {
		run = 1
	}

	if run > jobRetryBackoffMaxRunNumber {
		run = jobRetryBackoffMaxRunNumber
	}

	delay := jobRetryBackoffBaseDelay * time.Duration(1<<(run-1))
	if delay > jobRetryBackoffMaxDelay {
		return jobRetryBackoffMaxDelay
	}

	return delay
}

type manager struct {
	pool WorkerPool
}

// NewManager creates the pool dictionary loads run on.
func NewManager(ctx context.Context, cfg config.ConfigurationWorkerPool, opts ...Option) (Manager, error) {
	log := util.Log(ctx)

	poolOpts := defaultWorkerPoolOpts(cfg, log)
	for _, opt := range opts {
		opt(poolOpts)
	}

	pool, err := setupWorkerPool(ctx, poolOpts)
	if err != nil {
		return nil, fmt.Errorf("could not create worker pool: %w", err)
	}

	return &manager{pool: pool}, nil
}

func (m *manager) GetPool() (WorkerPool, error) {
	if m.pool == nil {
		return nil, ErrPoolNotConfigured
	}
	return m.pool, nil
}

func (m *manager) Shutdown(ctx context.Context) error {
	if m.pool == nil {
		return nil
	}
	return m.pool.Shutdown(ctx)
}

// SubmitJob hands job to the pool. The caller waits on the job for its result.
func SubmitJob[T any](ctx context.Context, m Manager, job *Job[T]) error {
	if m == nil {
		return ErrPoolNotConfigured
	}

	pool, err := m.GetPool()
	if err != nil {
		return err
	}

	return pool.Submit(ctx, createJobExecutionTask(ctx, m, job))
}

// createJobExecutionTask wraps a job run with its retry handling.
func createJobExecutionTask[T any](ctx context.Context, m Manager, job *Job[T]) func() {
	return func() {
		log := util.Log(ctx).
			WithField("job", job.ID()).
			WithField("name", job.Name()).
			WithField("run", job.Runs())

		if job.process == nil {
			log.Error("job has no process function")
			var zero T
			job.finish(zero, errors.New("job has no process function"))
			return
		}

		job.runs.Add(1)
		result, executionErr := job.process(ctx)
		if executionErr == nil {
			job.finish(result, nil)
			return
		}

		log = log.WithError(executionErr).WithField("can retry", job.CanRun())
		if !job.retryable(executionErr) {
			log.Debug("job failed and will not be retried")
			job.finish(result, executionErr)
			return
		}

		log.Warn("job failed, attempting to retry it")
		scheduleRetryResubmission(ctx, m, job, jobRetryBackoffDelay(job.Runs()), log, executionErr)
	}
}

func scheduleRetryResubmission[T any](
	ctx context.Context,
	m Manager,
	job *Job[T],
	delay time.Duration,
	log *util.LogEntry,
	executionErr error,
) {
	go func() {
		timer := time.NewTimer(delay)
		defer timer.Stop()

		var zero T
		select {
		case <-ctx.Done():
			job.finish(zero, errors.Join(executionErr, ctx.Err()))
			return
		case <-timer.C:
		}

		if resubmitErr := SubmitJob(ctx, m, job); resubmitErr != nil {
			log.WithError(resubmitErr).Error("failed to resubmit job")
			job.finish(zero, fmt.Errorf("failed to resubmit job: %w", errors.Join(executionErr, resubmitErr)))
		}
	}()
}
