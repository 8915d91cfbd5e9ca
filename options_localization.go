package localize

import (
	"context"
	"io"
	"time"

	"github.com/pitabwire/localize/config"
	"github.com/pitabwire/localize/dictionary"
	"github.com/pitabwire/localize/fetch"
	"github.com/pitabwire/localize/manifest"
	"github.com/pitabwire/localize/marker"
)

// WithManifest uses an already parsed manifest.
func WithManifest(m *manifest.Manifest) Option {
	return func(_ context.Context, e *Engine) {
		e.manifest = m
	}
}

// WithManifestFile reads the manifest from a json, yaml or toml file at Start.
func WithManifestFile(path string) Option {
	return func(_ context.Context, e *Engine) {
		e.manifestPath = path
	}
}

// WithBaseURL sets what dictionary resource paths are resolved against: an
// http(s) URL, a blob bucket URL or a local directory.
func WithBaseURL(baseURL string) Option {
	return func(_ context.Context, e *Engine) {
		e.baseURL = baseURL
	}
}

// WithReader replaces how raw dictionary documents are read.
func WithReader(reader fetch.Reader) Option {
	return func(_ context.Context, e *Engine) {
		e.reader = reader
	}
}

// WithFetcher replaces how dictionaries are fetched and decoded. Caching is
// left to the fetcher.
func WithFetcher(fetcher fetch.Fetcher) Option {
	return func(_ context.Context, e *Engine) {
		e.fetcher = fetcher
	}
}

// WithReporter sets where walker diagnostics go.
func WithReporter(reporter marker.Reporter) Option {
	return func(_ context.Context, e *Engine) {
		if reporter != nil {
			e.reporter = reporter
		}
	}
}

// WithDictionary supplies the dictionary of a package directly; it is not fetched.
func WithDictionary(packageID string, content dictionary.Content) Option {
	return func(_ context.Context, e *Engine) {
		e.preload[packageID] = content
	}
}

// WithReservedNamespaces replaces the class name prefixes that are never localized.
func WithReservedNamespaces(prefixes ...string) Option {
	return func(_ context.Context, e *Engine) {
		e.reserved = append([]string{}, prefixes...)
	}
}

// WithDebug forces walker diagnostics on or off outside production.
func WithDebug(debug bool) Option {
	return func(_ context.Context, e *Engine) {
		e.debug = &debug
	}
}

func (e *Engine) reservedNamespaces() []string {
	if e.reserved != nil {
		return e.reserved
	}
	if cfg, ok := e.Config().(config.ConfigurationLocalization); ok {
		return cfg.GetReservedNamespaces()
	}
	return []string{config.DefaultReservedNamespaces}
}

// dictionaryFetcher assembles reading, caching and decoding of dictionary documents.
func (e *Engine) dictionaryFetcher() fetch.Fetcher {
	if e.fetcher != nil {
		return e.fetcher
	}

	reader := e.reader
	if reader == nil {
		mux := fetch.NewMux()
		if perSecond, burst := e.fetchRate(); perSecond > 0 {
			mux.HTTP = fetch.NewHTTPReader(nil, fetch.WithRateLimit(perSecond, burst))
		}
		if closer, ok := mux.Blob.(io.Closer); ok {
			e.AddCleanupMethod(func(_ context.Context) error {
				return closer.Close()
			})
		}
		reader = mux
	}

	if raw, ok := e.documentCache(); ok {
		reader = fetch.NewCachingReader(reader, raw, e.cacheTTL())
	}

	return fetch.NewFetcher(reader)
}

func (e *Engine) cacheTTL() time.Duration {
	if cfg, ok := e.Config().(config.ConfigurationLocalization); ok {
		return cfg.GetCacheTTL()
	}
	return 0
}

func (e *Engine) fetchRate() (float64, int) {
	if cfg, ok := e.Config().(config.ConfigurationLocalization); ok {
		return cfg.GetFetchRate()
	}
	return 0, 0
}
