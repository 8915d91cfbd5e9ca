// Package workerpool runs dictionary loads as retryable jobs on an ants pool.
package workerpool

import (
	"context"
)

// Jobs run once unless WithRetries says otherwise.
const defaultJobRetryCount = 0

// Manager owns the pool jobs are submitted to.
type Manager interface {
	GetPool() (WorkerPool, error)
	Shutdown(ctx context.Context) error
}

// WorkerPool is implemented over a single ants.Pool or an ants.MultiPool.
type WorkerPool interface {
	Submit(ctx context.Context, task func()) error
	Shutdown(ctx context.Context) error
}
