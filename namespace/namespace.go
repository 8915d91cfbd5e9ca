// Package namespace maps class names to the package whose dictionary applies to them.
package namespace

import (
	"sort"
	"strings"
	"sync"
)

// Table maps class namespace prefixes to package identifiers.
// It is filled once at startup and read concurrently afterwards; late packages
// loaded on demand may still be added.
type Table struct {
	mu       sync.RWMutex
	prefixes map[string]string
}

// New builds a table from a prefix to package mapping.
func New(entries map[string]string) *Table {
	t := &Table{prefixes: make(map[string]string, len(entries))}
	for prefix, pkg := range entries {
		t.prefixes[prefix] = pkg
	}
	return t
}

// Add maps prefix to packageID, replacing an existing mapping.
func (t *Table) Add(prefix, packageID string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.prefixes[prefix] = packageID
}

// Len returns the number of prefixes in the table.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return len(t.prefixes)
}

// Packages returns the distinct package identifiers referenced by the table, sorted.
func (t *Table) Packages() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	seen := make(map[string]struct{}, len(t.prefixes))
	var ids []string
	for _, pkg := range t.prefixes {
		if _, ok := seen[pkg]; ok {
			continue
		}
		seen[pkg] = struct{}{}
		ids = append(ids, pkg)
	}
	sort.Strings(ids)
	return ids
}

// Entries returns a copy of the prefix to package mapping.
func (t *Table) Entries() map[string]string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make(map[string]string, len(t.prefixes))
	for prefix, pkg := range t.prefixes {
		out[prefix] = pkg
	}
	return out
}

// Resolve returns the package of the deepest prefix className starts with.
//
// Depth is the number of dot separated segments of a prefix. Prefixes of
// equal depth are ordered by literal length, longest first, and then
// lexically so the result never depends on map iteration order.
func (t *Table) Resolve(className string) (string, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	best := ""
	found := false
	for prefix := range t.prefixes {
		if !strings.HasPrefix(className, prefix) {
			continue
		}

		if !found || better(prefix, best) {
			best = prefix
			found = true
		}
	}

	if !found {
		return "", false
	}
	return t.prefixes[best], true
}

// Depth counts the dot separated segments of prefix.
func Depth(prefix string) int {
	return strings.Count(prefix, ".") + 1
}

func better(candidate, current string) bool {
	cd, bd := Depth(candidate), Depth(current)
	if cd != bd {
		return cd > bd
	}
	if len(candidate) != len(current) {
		return len(candidate) > len(current)
	}
	return candidate < current
}
