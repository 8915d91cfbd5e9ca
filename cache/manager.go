package cache

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

type manager struct {
	mu     sync.RWMutex
	caches map[string]RawCache
}

// NewManager creates an empty Manager.
func NewManager() Manager {
	return &manager{caches: make(map[string]RawCache)}
}

// AddCache registers cache under name, closing the cache it replaces.
func (cm *manager) AddCache(name string, cache RawCache) {
	cm.mu.Lock()
	previous, replaced := cm.caches[name]
	cm.caches[name] = cache
	cm.mu.Unlock()

	if replaced && previous != cache {
		_ = previous.Close()
	}
}

func (cm *manager) GetRawCache(name string) (RawCache, bool) {
	cm.mu.RLock()
	defer cm.mu.RUnlock()

	c, ok := cm.caches[name]
	return c, ok
}

// RemoveCache unregisters and closes the cache under name.
func (cm *manager) RemoveCache(name string) error {
	cm.mu.Lock()
	c, ok := cm.caches[name]
	delete(cm.caches, name)
	cm.mu.Unlock()

	if !ok {
		return nil
	}
	return c.Close()
}

// Close closes every cache in name order and forgets them.
func (cm *manager) Close() error {
	cm.mu.Lock()
	caches := cm.caches
	cm.caches = make(map[string]RawCache)
	cm.mu.Unlock()

	names := make([]string, 0, len(caches))
	for name := range caches {
		names = append(names, name)
	}
	sort.Strings(names)

	var errs []error
	for _, name := range names {
		if err := caches[name].Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing cache %s: %w", name, err))
		}
	}
	return errors.Join(errs...)
}
