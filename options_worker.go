package localize

import (
	"context"

	"github.com/pitabwire/localize/config"
	"github.com/pitabwire/localize/workerpool"
)

// WithWorkerPoolOptions sets custom options for the ants pool dictionaries load on.
func WithWorkerPoolOptions(options ...workerpool.Option) Option {
	return func(ctx context.Context, e *Engine) {
		cfg, ok := e.Config().(config.ConfigurationWorkerPool)
		if !ok {
			e.Log(ctx).Error("worker pool configuration is not setup")
			return
		}

		wpm, err := workerpool.NewManager(ctx, cfg, options...)
		if err != nil {
			e.AddStartupError(err)
			return
		}

		if previous := e.workerPoolManager; previous != nil {
			_ = previous.Shutdown(ctx)
		} else {
			e.AddCleanupMethod(func(ctx context.Context) error {
				return e.workerPoolManager.Shutdown(ctx)
			})
		}
		e.workerPoolManager = wpm
	}
}

func (e *Engine) WorkManager() workerpool.Manager {
	return e.workerPoolManager
}
