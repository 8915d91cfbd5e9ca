package localize

import (
	"context"
)

// WithConfig specifies or overrides the configuration object of the engine.
// The logger is rebuilt from it.
func WithConfig(cfg any) Option {
	return func(ctx context.Context, e *Engine) {
		e.configuration = cfg

		WithLogger()(ctx, e)
	}
}
