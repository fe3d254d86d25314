package state

import (
	"maps"
	"sync"
)

// Result reports whether Apply modified the store.
type Result uint8

const (
	// Unchanged means the stored value already equalled the new one.
	Unchanged Result = iota

	// Changed means the value was added or replaced.
	Changed
)

// String returns the result name.
func (r Result) String() string {
	switch r {
	case Unchanged:
		return "UNCHANGED"
	case Changed:
		return "CHANGED"
	default:
		return "UNKNOWN"
	}
}

// Snapshot maps parameter names to their last observed typed value.
// Snapshots handed out by Store are copies and may be kept by the caller.
type Snapshot map[string]any

// Clone returns a copy of the snapshot.
func (s Snapshot) Clone() Snapshot {
	out := make(Snapshot, len(s))
	maps.Copy(out, s)
	return out
}

// Store holds the last known value of every parameter reported by the
// device. It is safe for concurrent use; in practice the connection read
// loop is the only writer.
type Store struct {
	mu     sync.RWMutex
	values map[string]any
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{values: make(map[string]any)}
}

// Apply records value for name. An absent entry differs from any value.
func (s *Store) Apply(name string, value any) Result {
	s.mu.Lock()
	defer s.mu.Unlock()

	if old, ok := s.values[name]; ok && old == value {
		return Unchanged
	}
	s.values[name] = value
	return Changed
}

// Get returns the stored value for name.
func (s *Store) Get(name string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[name]
	return v, ok
}

// Snapshot returns a copy of the current mapping.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(Snapshot, len(s.values))
	maps.Copy(out, s.values)
	return out
}

// Clear empties the store and reports whether it held anything.
func (s *Store) Clear() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	had := len(s.values) > 0
	clear(s.values)
	return had
}

// Len returns the number of stored parameters.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.values)
}
