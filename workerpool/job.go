package workerpool

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/rs/xid"
)

// ErrJobNotFinished is returned by Result while a job is still running.
var ErrJobNotFinished = errors.New("worker job has not finished")

// Job is a unit of work that produces a single value of type T.
type Job[T any] struct {
	id        string
	name      string
	process   func(ctx context.Context) (T, error)
	retries   int
	permanent func(error) bool
	runs      atomic.Int64

	once   sync.Once
	done   chan struct{}
	result T
	err    error
}

type jobSettings struct {
	retries   int
	permanent func(error) bool
}

// JobOption configures a Job.
type JobOption func(*jobSettings)

// WithRetries sets how many times a failed job is run again.
func WithRetries(retries int) JobOption {
	return func(s *jobSettings) {
		if retries >= 0 {
			s.retries = retries
		}
	}
}

// WithPermanentError marks errors that are never retried.
func WithPermanentError(permanent func(error) bool) JobOption {
	return func(s *jobSettings) {
		s.permanent = permanent
	}
}

// NewJob creates a job running process.
func NewJob[T any](name string, process func(ctx context.Context) (T, error), opts ...JobOption) *Job[T] {
	settings := &jobSettings{retries: defaultJobRetryCount}
	for _, opt := range opts {
		opt(settings)
	}

	return &Job[T]{
		id:        xid.New().String(),
		name:      name,
		process:   process,
		retries:   settings.retries,
		permanent: settings.permanent,
		done:      make(chan struct{}),
	}
}

func (j *Job[T]) ID() string {
	return j.id
}

func (j *Job[T]) Name() string {
	return j.name
}

func (j *Job[T]) Runs() int {
	return int(j.runs.Load())
}

// CanRun reports whether the job has runs left.
func (j *Job[T]) CanRun() bool {
	return j.retries >= j.Runs()
}

// Done is closed once the job has a final result.
func (j *Job[T]) Done() <-chan struct{} {
	return j.done
}

// Wait blocks until the job finishes or ctx ends.
func (j *Job[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-j.done:
		return j.result, j.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Result returns the final result without blocking.
func (j *Job[T]) Result() (T, error) {
	select {
	case <-j.done:
		return j.result, j.err
	default:
		var zero T
		return zero, ErrJobNotFinished
	}
}

func (j *Job[T]) retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if j.permanent != nil && j.permanent(err) {
		return false
	}
	return j.CanRun()
}

// finish records the final result once; later calls are ignored.
func (j *Job[T]) finish(result T, err error) {
	j.once.Do(func() {
		j.result = result
		j.err = err
		close(j.done)
	})
}
