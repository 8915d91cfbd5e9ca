package localize

import (
	"context"

	"github.com/pitabwire/util"

	"github.com/pitabwire/localize/config"
)

// WithLogger initialises the engine logger from the log settings of the configuration.
func WithLogger(opts ...util.Option) Option {
	return func(ctx context.Context, e *Engine) {
		if cfg, ok := e.Config().(config.ConfigurationLogLevel); ok {
			logLevel, err := util.ParseLevel(cfg.LoggingLevel())
			if err == nil {
				opts = append(opts, util.WithLogLevel(logLevel))
			}
			opts = append(opts,
				util.WithLogTimeFormat(cfg.LoggingTimeFormat()),
				util.WithLogNoColor(!cfg.LoggingColored()))
			if cfg.LoggingShowStackTrace() {
				opts = append(opts, util.WithLogStackTrace())
			}
		}

		log := util.NewLogger(ctx, opts...)
		if svc, ok := e.Config().(config.ConfigurationService); ok && svc.Name() != "" {
			log = log.WithField("service", svc.Name())
		}
		e.logger = log
	}
}

func (e *Engine) Log(ctx context.Context) *util.LogEntry {
	return e.logger.WithContext(ctx)
}
