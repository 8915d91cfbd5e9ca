package config

import (
	"context"
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type contextKey string

func (c contextKey) String() string {
	return "localize/config/" + string(c)
}

const (
	ctxKeyConfiguration = contextKey("configurationKey")

	DefaultSentinel           = "~"
	DefaultReservedNamespaces = "Ext."
	DefaultFinalizedKey       = "$finalized"
)

// ToContext adds engine configuration to the current supplied context.
func ToContext(ctx context.Context, config any) context.Context {
	return context.WithValue(ctx, ctxKeyConfiguration, config)
}

// FromContext extracts engine configuration from the supplied context if any exist.
func FromContext[T any](ctx context.Context) T {
	if cfg, ok := ctx.Value(ctxKeyConfiguration).(T); ok {
		return cfg
	}
	var zero T
	return zero
}

// FromEnv convenience method to process configs.
func FromEnv[T any]() (T, error) {
	return env.ParseAs[T]()
}

// LoadEnvFiles sets environment variables from dotenv files without
// overriding those already set. With no paths a missing .env is not an error.
func LoadEnvFiles(paths ...string) error {
	if len(paths) == 0 {
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
		return nil
	}
	return godotenv.Load(paths...)
}

// FromEnvFiles loads dotenv files and then processes configs.
func FromEnvFiles[T any](paths ...string) (T, error) {
	if err := LoadEnvFiles(paths...); err != nil {
		var zero T
		return zero, err
	}
	return FromEnv[T]()
}

// FillEnv convenience method to fill a config object with environment data.
func FillEnv(v any) error {
	return env.Parse(v)
}

type ConfigurationDefault struct {
	LogLevel      string `envDefault:"info"                      env:"LOG_LEVEL"       yaml:"log_level"`
	LogTimeFormat string `envDefault:"2006-01-02T15:04:05Z07:00" env:"LOG_TIME_FORMAT" yaml:"log_time_format"`
	LogColored    bool   `envDefault:"true"                      env:"LOG_COLORED"     yaml:"log_colored"`

	LogShowStackTrace bool `envDefault:"false" env:"LOG_SHOW_STACK_TRACE" yaml:"log_show_stack_trace"`

	ServiceName        string `envDefault:"" env:"SERVICE_NAME"        yaml:"service_name"`
	ServiceEnvironment string `envDefault:"" env:"SERVICE_ENVIRONMENT" yaml:"service_environment"`
	ServiceVersion     string `envDefault:"" env:"SERVICE_VERSION"     yaml:"service_version"`

	// Worker pool settings
	WorkerPoolCPUFactorForWorkerCount int    `envDefault:"10"  env:"WORKER_POOL_CPU_FACTOR_FOR_WORKER_COUNT" yaml:"worker_pool_cpu_factor_for_worker_count"`
	WorkerPoolCapacity                int    `envDefault:"100" env:"WORKER_POOL_CAPACITY"                    yaml:"worker_pool_capacity"`
	WorkerPoolCount                   int    `envDefault:"1"   env:"WORKER_POOL_COUNT"                       yaml:"worker_pool_count"`
	WorkerPoolExpiryDuration          string `envDefault:"1s"  env:"WORKER_POOL_EXPIRY_DURATION"             yaml:"worker_pool_expiry_duration"`

	LocalizeManifestPath      string   `envDefault:""           env:"LOCALIZE_MANIFEST_PATH"      yaml:"localize_manifest_path"`
	LocalizeBaseURL           string   `envDefault:""           env:"LOCALIZE_BASE_URL"           yaml:"localize_base_url"`
	LocalizeLanguage          string   `envDefault:""           env:"LOCALIZE_LANGUAGE"           yaml:"localize_language"`
	LocalizeSentinel          string   `envDefault:"~"          env:"LOCALIZE_SENTINEL"           yaml:"localize_sentinel"`
	LocalizeReservedNamespace []string `envDefault:"Ext."       env:"LOCALIZE_RESERVED_NAMESPACE" yaml:"localize_reserved_namespace"`
	LocalizeFinalizedKey      string   `envDefault:"$finalized" env:"LOCALIZE_FINALIZED_KEY"      yaml:"localize_finalized_key"`
	LocalizeDebug             string   `envDefault:""           env:"LOCALIZE_DEBUG"              yaml:"localize_debug"`
	LocalizeFetchRetries      int      `envDefault:"2"          env:"LOCALIZE_FETCH_RETRIES"      yaml:"localize_fetch_retries"`
	LocalizeCacheTTL          string   `envDefault:"0s"         env:"LOCALIZE_CACHE_TTL"          yaml:"localize_cache_ttl"`
	LocalizeCacheMaxEntries   int      `envDefault:"0"          env:"LOCALIZE_CACHE_MAX_ENTRIES"  yaml:"localize_cache_max_entries"`
	LocalizeCacheCompress     bool     `envDefault:"false"      env:"LOCALIZE_CACHE_COMPRESS"     yaml:"localize_cache_compress"`
	LocalizeFetchRate         float64  `envDefault:"0"          env:"LOCALIZE_FETCH_RATE"         yaml:"localize_fetch_rate"`
	LocalizeFetchBurst        int      `envDefault:"1"          env:"LOCALIZE_FETCH_BURST"        yaml:"localize_fetch_burst"`
}

type ConfigurationService interface {
	Name() string
	Environment() string
	Version() string
	IsProduction() bool
}

var _ ConfigurationService = new(ConfigurationDefault)

func (c *ConfigurationDefault) Name() string {
	return c.ServiceName
}
func (c *ConfigurationDefault) Environment() string {
	return c.ServiceEnvironment
}
func (c *ConfigurationDefault) Version() string {
	return c.ServiceVersion
}

func (c *ConfigurationDefault) IsProduction() bool {
	return NormalizeEnvironment(c.ServiceEnvironment) == EnvironmentProduction
}

type ConfigurationLogLevel interface {
	LoggingLevel() string
	LoggingTimeFormat() string
	LoggingShowStackTrace() bool
	LoggingColored() bool
	LoggingLevelIsDebug() bool
}

var _ ConfigurationLogLevel = new(ConfigurationDefault)

func (c *ConfigurationDefault) LoggingLevel() string {
	return c.LogLevel
}

func (c *ConfigurationDefault) LoggingTimeFormat() string {
	return c.LogTimeFormat
}

func (c *ConfigurationDefault) LoggingColored() bool {
	return c.LogColored
}

func (c *ConfigurationDefault) LoggingShowStackTrace() bool {
	return c.LogShowStackTrace
}

func (c *ConfigurationDefault) LoggingLevelIsDebug() bool {
	return c.LoggingLevel() == "debug" || c.LoggingLevel() == "trace"
}

type ConfigurationWorkerPool interface {
	GetCPUFactor() int
	GetCapacity() int
	GetCount() int
	GetExpiryDuration() time.Duration
}

var _ ConfigurationWorkerPool = new(ConfigurationDefault)

func (c *ConfigurationDefault) GetCPUFactor() int {
	return c.WorkerPoolCPUFactorForWorkerCount
}

func (c *ConfigurationDefault) GetCapacity() int {
	return c.WorkerPoolCapacity
}

func (c *ConfigurationDefault) GetCount() int {
	return c.WorkerPoolCount
}

func (c *ConfigurationDefault) GetExpiryDuration() time.Duration {
	if c.WorkerPoolExpiryDuration != "" {
		duration, err := time.ParseDuration(c.WorkerPoolExpiryDuration)
		if err == nil {
			return duration
		}
	}

	return time.Second
}

// ConfigurationLocalization carries the settings the engine reads on top of the manifest.
type ConfigurationLocalization interface {
	GetManifestPath() string
	GetBaseURL() string
	// GetLanguage overrides the manifest language when not empty.
	GetLanguage() string
	GetSentinel() string
	GetReservedNamespaces() []string
	GetFinalizedKey() string
	// DebugOverride reports whether LOCALIZE_DEBUG was set and its value.
	DebugOverride() (bool, bool)
	GetFetchRetries() int
	// GetCacheTTL is how long fetched documents stay cached; zero keeps them.
	GetCacheTTL() time.Duration
	// GetCacheMaxEntries bounds the document cache; zero is unbounded.
	GetCacheMaxEntries() int
	CacheCompressed() bool
	// GetFetchRate limits http dictionary requests per second; zero is unlimited.
	GetFetchRate() (float64, int)
}

var _ ConfigurationLocalization = new(ConfigurationDefault)

func (c *ConfigurationDefault) GetManifestPath() string {
	return strings.TrimSpace(c.LocalizeManifestPath)
}

func (c *ConfigurationDefault) GetBaseURL() string {
	return strings.TrimSpace(c.LocalizeBaseURL)
}

func (c *ConfigurationDefault) GetLanguage() string {
	return strings.TrimSpace(c.LocalizeLanguage)
}

func (c *ConfigurationDefault) GetSentinel() string {
	if c.LocalizeSentinel == "" {
		return DefaultSentinel
	}
	return c.LocalizeSentinel
}

func (c *ConfigurationDefault) GetReservedNamespaces() []string {
	if c.LocalizeReservedNamespace == nil {
		return []string{DefaultReservedNamespaces}
	}

	var namespaces []string
	for _, ns := range c.LocalizeReservedNamespace {
		ns = strings.TrimSpace(ns)
		if ns != "" {
			namespaces = append(namespaces, ns)
		}
	}
	return namespaces
}

func (c *ConfigurationDefault) GetFinalizedKey() string {
	if strings.TrimSpace(c.LocalizeFinalizedKey) == "" {
		return DefaultFinalizedKey
	}
	return c.LocalizeFinalizedKey
}

func (c *ConfigurationDefault) DebugOverride() (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(c.LocalizeDebug)) {
	case "1", "true", "yes", "on":
		return true, true
	case "0", "false", "no", "off":
		return false, true
	default:
		return false, false
	}
}

func (c *ConfigurationDefault) GetFetchRetries() int {
	if c.LocalizeFetchRetries < 0 {
		return 0
	}
	return c.LocalizeFetchRetries
}

func (c *ConfigurationDefault) GetCacheTTL() time.Duration {
	if c.LocalizeCacheTTL == "" {
		return 0
	}
	ttl, err := time.ParseDuration(c.LocalizeCacheTTL)
	if err != nil || ttl < 0 {
		return 0
	}
	return ttl
}

func (c *ConfigurationDefault) GetFetchRate() (float64, int) {
	if c.LocalizeFetchRate <= 0 {
		return 0, 0
	}
	burst := c.LocalizeFetchBurst
	if burst < 1 {
		burst = 1
	}
	return c.LocalizeFetchRate, burst
}

func (c *ConfigurationDefault) GetCacheMaxEntries() int {
	if c.LocalizeCacheMaxEntries < 0 {
		return 0
	}
	return c.LocalizeCacheMaxEntries
}

func (c *ConfigurationDefault) CacheCompressed() bool {
	return c.LocalizeCacheCompress
}
