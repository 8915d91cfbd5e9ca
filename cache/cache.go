// Package cache keeps fetched dictionary documents in process memory so a
// document shared by several loads is read from its source once.
package cache

import (
	"context"
	"time"
)

// RawCache is the low-level cache interface that works with bytes.
type RawCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	Flush(ctx context.Context) error
	Close() error
}

// DefaultName is the cache dictionary documents are stored under.
const DefaultName = "dictionaries"

// Manager keeps named caches and closes them with the engine.
type Manager interface {
	AddCache(name string, cache RawCache)
	GetRawCache(name string) (RawCache, bool)
	RemoveCache(name string) error
	Close() error
}
