// Package localize resolves localization markers in configuration trees
// against per-package dictionaries loaded from the application manifest.
package localize

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/pitabwire/util"
	"golang.org/x/sync/singleflight"
	"golang.org/x/text/language"

	"github.com/pitabwire/localize/cache"
	"github.com/pitabwire/localize/config"
	"github.com/pitabwire/localize/dictionary"
	"github.com/pitabwire/localize/fetch"
	"github.com/pitabwire/localize/loader"
	"github.com/pitabwire/localize/localization"
	"github.com/pitabwire/localize/manifest"
	"github.com/pitabwire/localize/marker"
	"github.com/pitabwire/localize/namespace"
	"github.com/pitabwire/localize/workerpool"
)

type contextKey string

func (c contextKey) String() string {
	return "localize/" + string(c)
}

const ctxKeyEngine = contextKey("engineKey")

var (
	// ErrMissingLocalizeConfig is returned when the manifest carries no
	// localize section. The engine stays disabled.
	ErrMissingLocalizeConfig = manifest.ErrMissingLocalizeConfig
	ErrMissingManifest       = errors.New("no application manifest configured")
	ErrNotStarted            = errors.New("localization engine has not been started")
	ErrHookRegistered        = errors.New("localization hook is already registered")
	ErrUnknownPackage        = errors.New("package is not a localized package of the manifest")
)

// Engine holds together everything needed to localize configuration trees.
// An instance is scoped to the lifetime of the application.
type Engine struct {
	configuration any
	logger        *util.LogEntry

	manifest     *manifest.Manifest
	manifestPath string
	baseURL      string
	reserved     []string
	debug        *bool

	reader   fetch.Reader
	fetcher  fetch.Fetcher
	reporter marker.Reporter
	preload  map[string]dictionary.Content

	store      *dictionary.Store
	table      *namespace.Table
	walker     *marker.Walker
	translator localization.Manager
	loader     *loader.Loader
	barrier    *loader.Barrier
	startup    []string
	disabled   bool
	loads      singleflight.Group

	workerPoolManager workerpool.Manager
	cacheManager      cache.Manager

	startupErrors []error
	cleanup       func(ctx context.Context) error

	mu           sync.Mutex
	startOnce    sync.Once
	startErr     error
	registerOnce sync.Once
}

type Option func(ctx context.Context, e *Engine)

// NewEngine creates an Engine configured from the environment and the
// supplied options. The returned context carries the engine, its
// configuration and its logger.
func NewEngine(ctx context.Context, opts ...Option) (context.Context, *Engine) {
	defaultLogger := util.Log(ctx)
	ctx = util.ContextWithLogger(ctx, defaultLogger)

	engine := &Engine{
		logger:   defaultLogger,
		store:    dictionary.NewStore(),
		table:    namespace.New(nil),
		reporter: marker.LogReporter{},
		preload:  make(map[string]dictionary.Content),
	}

	defaultCfg, err := config.FromEnv[config.ConfigurationDefault]()
	if err != nil {
		engine.AddStartupError(fmt.Errorf("reading configuration from environment: %w", err))
	}

	opts = append([]Option{WithConfig(&defaultCfg)}, opts...)
	engine.Init(ctx, opts...)

	if engine.workerPoolManager == nil {
		WithWorkerPoolOptions()(ctx, engine)
	}

	ctx = ToContext(ctx, engine)
	ctx = config.ToContext(ctx, engine.Config())
	ctx = util.ContextWithLogger(ctx, engine.logger)
	return ctx, engine
}

// ToContext pushes an engine into the supplied context.
func ToContext(ctx context.Context, engine *Engine) context.Context {
	return context.WithValue(ctx, ctxKeyEngine, engine)
}

// FromContext obtains the engine propagated through the context.
func FromContext(ctx context.Context) *Engine {
	engine, ok := ctx.Value(ctxKeyEngine).(*Engine)
	if !ok {
		return nil
	}
	return engine
}

// Init applies options to the engine.
func (e *Engine) Init(ctx context.Context, opts ...Option) {
	for _, opt := range opts {
		opt(ctx, e)
	}
}

// AddStartupError records a problem found while applying options; Start
// reports all of them.
func (e *Engine) AddStartupError(err error) {
	if err == nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.startupErrors = append(e.startupErrors, err)
}

// AddCleanupMethod adds a function run by Close. Later additions run first.
func (e *Engine) AddCleanupMethod(f func(ctx context.Context) error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.cleanup == nil {
		e.cleanup = f
		return
	}

	old := e.cleanup
	e.cleanup = func(ctx context.Context) error { return errors.Join(f(ctx), old(ctx)) }
}

// Start reads the manifest and begins loading every startup dictionary. It
// returns once the loads are submitted; use WaitReady to wait for them.
// A manifest without localize settings disables the engine and returns
// ErrMissingLocalizeConfig.
func (e *Engine) Start(ctx context.Context) error {
	e.startOnce.Do(func() {
		e.startErr = e.start(ctx)
	})
	return e.startErr
}

func (e *Engine) start(ctx context.Context) error {
	e.mu.Lock()
	startupErr := errors.Join(e.startupErrors...)
	e.mu.Unlock()
	if startupErr != nil {
		return startupErr
	}

	m, err := e.loadManifest()
	if err != nil {
		return err
	}

	if err = m.Validate(); err != nil {
		if errors.Is(err, ErrMissingLocalizeConfig) {
			e.mu.Lock()
			e.disabled = true
			e.mu.Unlock()
			e.Log(ctx).WithField("application", m.Name).Error("manifest has no localize config, localization is disabled")
		}
		return err
	}
	e.manifest = m

	lang := m.Tag()
	if lang == language.Und {
		e.Log(ctx).WithField("language", m.Language()).Warn("language is not a BCP 47 tag, translation bundle uses und")
	}

	e.table = namespace.New(m.NamespaceTable())
	e.walker = e.newWalker(m)
	e.translator = localization.NewManager(lang, e.store)
	e.loader = loader.New(e.workerPoolManager, e.dictionaryFetcher(), e.store, loader.WithRetries(e.fetchRetries()))

	sources, err := m.Sources(e.sourceBase())
	if err != nil {
		return err
	}

	e.startup = m.PackageIDs()

	pending := make([]manifest.Source, 0, len(sources))
	for _, src := range sources {
		if content, ok := e.preload[src.Package]; ok {
			e.store.Register(src.Package, content)
			continue
		}
		pending = append(pending, src)
	}

	e.Log(ctx).
		WithField("application", m.Name).
		WithField("language", lang.String()).
		WithField("packages", e.startup).
		Info("loading dictionaries")

	barrier := e.loader.Load(ctx, pending)

	e.mu.Lock()
	e.barrier = barrier
	e.mu.Unlock()

	barrier.OnOpen(func() { e.onReady(ctx) })
	return nil
}

func (e *Engine) loadManifest() (*manifest.Manifest, error) {
	m := e.manifest
	if m == nil {
		p := e.manifestPath
		if p == "" {
			if cfg, ok := e.Config().(config.ConfigurationLocalization); ok {
				p = cfg.GetManifestPath()
			}
		}
		if p == "" {
			return nil, ErrMissingManifest
		}

		var err error
		m, err = manifest.Load(p)
		if err != nil {
			return nil, err
		}
	}

	if cfg, ok := e.Config().(config.ConfigurationLocalization); ok && cfg.GetLanguage() != "" && m.Localize != nil {
		m.Localize.Language = cfg.GetLanguage()
	}
	return m, nil
}

func (e *Engine) newWalker(m *manifest.Manifest) *marker.Walker {
	opts := []marker.Option{
		marker.WithReporter(e.reporter),
		marker.WithDebug(e.debugEnabled(m)),
	}
	if cfg, ok := e.Config().(config.ConfigurationLocalization); ok {
		opts = append(opts,
			marker.WithSentinel(cfg.GetSentinel()),
			marker.WithFinalizedKey(cfg.GetFinalizedKey()))
	}
	return marker.NewWalker(e.store.Lookup, opts...)
}

// debugEnabled combines the manifest flag with the environment override.
// Production environments never report diagnostics.
func (e *Engine) debugEnabled(m *manifest.Manifest) bool {
	if cfg, ok := e.Config().(config.ConfigurationService); ok && config.IsProduction(cfg) {
		return false
	}
	if e.debug != nil {
		return *e.debug
	}
	if cfg, ok := e.Config().(config.ConfigurationLocalization); ok {
		if debug, set := cfg.DebugOverride(); set {
			return debug
		}
	}
	return m.Localize != nil && m.Localize.Debug
}

func (e *Engine) sourceBase() string {
	if e.baseURL != "" {
		return e.baseURL
	}
	if cfg, ok := e.Config().(config.ConfigurationLocalization); ok {
		return cfg.GetBaseURL()
	}
	return ""
}

func (e *Engine) fetchRetries() int {
	if cfg, ok := e.Config().(config.ConfigurationLocalization); ok {
		return cfg.GetFetchRetries()
	}
	return 0
}

func (e *Engine) onReady(ctx context.Context) {
	if err := e.translator.Refresh(ctx); err != nil {
		e.Log(ctx).WithError(err).Warn("could not build translation bundle")
	}

	log := e.Log(ctx).
		WithField("loaded", e.store.Loaded()).
		WithField("expected", len(e.startup))
	log.Info("localization ready")

	if e.walker.Debug() {
		log.WithField("language", e.manifest.Language()).
			WithField("namespaces", e.table.Entries()).
			Debug("available locales")
	}
}

// state returns the startup barrier, nil before Start, and whether the
// engine is disabled.
func (e *Engine) state() (*loader.Barrier, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.barrier, e.disabled
}

// Ready reports whether every startup dictionary load has completed.
func (e *Engine) Ready() bool {
	barrier, disabled := e.state()
	return !disabled && barrier != nil && barrier.IsOpen() && e.store.AllReady(e.startup)
}

// WaitReady blocks until the startup loads completed or ctx ends.
func (e *Engine) WaitReady(ctx context.Context) error {
	barrier, disabled := e.state()
	if disabled {
		return ErrMissingLocalizeConfig
	}
	if barrier == nil {
		return ErrNotStarted
	}
	return barrier.Wait(ctx)
}

// Disabled reports whether the manifest turned localization off.
func (e *Engine) Disabled() bool {
	_, disabled := e.state()
	return disabled
}

func (e *Engine) Config() any {
	return e.configuration
}

func (e *Engine) Manifest() *manifest.Manifest {
	return e.manifest
}

func (e *Engine) Store() *dictionary.Store {
	return e.store
}

func (e *Engine) Table() *namespace.Table {
	return e.table
}

// Translator exposes the loaded dictionaries as a go-i18n bundle. It is nil
// before Start.
func (e *Engine) Translator() localization.Manager {
	return e.translator
}

// Close releases the worker pool, caches and open buckets.
func (e *Engine) Close(ctx context.Context) error {
	e.mu.Lock()
	cleanup := e.cleanup
	e.cleanup = nil
	e.mu.Unlock()

	if cleanup == nil {
		return nil
	}
	return cleanup(ctx)
}
