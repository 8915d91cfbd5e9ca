package dictionary

import (
	"sort"
	"sync"
)

type state int

const (
	statePending state = iota
	stateLoaded
	stateFailed
)

type entry struct {
	content Content
	state   state
	err     error
}

// Store keeps the dictionary of every package together with its load state.
// Loads complete on worker goroutines, so all access is guarded.
type Store struct {
	mu      sync.RWMutex
	entries map[string]*entry
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{entries: make(map[string]*entry)}
}

// Expect declares packages whose dictionaries are about to be loaded.
// Already known packages keep their state.
func (s *Store) Expect(packageIDs ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range packageIDs {
		if _, ok := s.entries[id]; !ok {
			s.entries[id] = &entry{state: statePending}
		}
	}
}

// Register stores the parsed content of a package and marks it ready.
// A second call for the same package replaces the first.
func (s *Store) Register(packageID string, content Content) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[packageID] = &entry{content: content, state: stateLoaded}
}

// Fail records a failed load. The package counts as ready but has no content.
func (s *Store) Fail(packageID string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[packageID] = &entry{state: stateFailed, err: err}
}

// IsReady reports whether a load for packageID has completed, successfully or not.
func (s *Store) IsReady(packageID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[packageID]
	return ok && e.state != statePending
}

// AllReady reports whether every package in packageIDs is ready.
func (s *Store) AllReady(packageIDs []string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, id := range packageIDs {
		e, ok := s.entries[id]
		if !ok || e.state == statePending {
			return false
		}
	}
	return true
}

// Content returns the dictionary of a package, nil when absent or failed.
func (s *Store) Content(packageID string) Content {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[packageID]
	if !ok {
		return nil
	}
	return e.content
}

// Err returns the load error recorded for a package.
func (s *Store) Err(packageID string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[packageID]
	if !ok {
		return nil
	}
	return e.err
}

// Lookup resolves dottedKey in the dictionary of packageID.
// Unknown, pending and failed packages always miss. An empty string value is
// a hit that resolves to "".
func (s *Store) Lookup(packageID, dottedKey string) (string, bool) {
	return Lookup(s.Content(packageID), dottedKey)
}

// Packages lists every package the store knows about, sorted.
func (s *Store) Packages() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.entries))
	for id := range s.entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Loaded lists the packages whose dictionary loaded successfully, sorted.
func (s *Store) Loaded() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var ids []string
	for id, e := range s.entries {
		if e.state == stateLoaded {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}
