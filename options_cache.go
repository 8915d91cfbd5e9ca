package localize

import (
	"context"
	"fmt"

	"github.com/pitabwire/localize/cache"
	"github.com/pitabwire/localize/config"
)

// WithCacheManager adds a cache manager to the engine.
func WithCacheManager() Option {
	return func(_ context.Context, e *Engine) {
		if e.cacheManager == nil {
			e.cacheManager = cache.NewManager()

			e.AddCleanupMethod(func(_ context.Context) error {
				return e.cacheManager.Close()
			})
		}
	}
}

// WithCache caches fetched dictionary documents in rawCache.
func WithCache(rawCache cache.RawCache) Option {
	return func(ctx context.Context, e *Engine) {
		if e.cacheManager == nil {
			WithCacheManager()(ctx, e)
		}

		e.cacheManager.AddCache(cache.DefaultName, rawCache)
	}
}

// WithInMemoryCache caches fetched dictionary documents in process memory,
// bounded and compressed as configured. Extra options override the configuration.
func WithInMemoryCache(opts ...cache.InMemoryOption) Option {
	return func(ctx context.Context, e *Engine) {
		var cacheOpts []cache.InMemoryOption
		if cfg, ok := e.Config().(config.ConfigurationLocalization); ok {
			cacheOpts = append(cacheOpts, cache.WithMaxEntries(cfg.GetCacheMaxEntries()))
			if cfg.CacheCompressed() {
				cacheOpts = append(cacheOpts, cache.WithCompression())
			}
		}
		cacheOpts = append(cacheOpts, opts...)

		rawCache, err := cache.NewInMemoryCache(cacheOpts...)
		if err != nil {
			e.AddStartupError(fmt.Errorf("creating document cache: %w", err))
			return
		}
		WithCache(rawCache)(ctx, e)
	}
}

// CacheManager returns the engine's cache manager.
func (e *Engine) CacheManager() cache.Manager {
	return e.cacheManager
}

func (e *Engine) documentCache() (cache.RawCache, bool) {
	if e.cacheManager == nil {
		return nil, false
	}
	return e.cacheManager.GetRawCache(cache.DefaultName)
}
