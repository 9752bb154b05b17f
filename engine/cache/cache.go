// Package cache tracks per-context derived state with an explicit freshness state machine.
//
// Every key moves through three states:
//
//	Absent --Put--> Dirty --MarkFresh--> Fresh
//	Fresh --MarkDirty / DirtyAll--> Dirty
//	Dirty / Fresh --Delete--> Absent
//
// The cache holds no locks; callers serialize access the same way they serialize access to
// the owner of the cached values.
package cache

import "sort"

// State is the freshness of a cached value for one key.
type State int

const (
	// StateAbsent means no value is stored for the key.
	StateAbsent State = iota
	// StateDirty means a value is stored but must be rebuilt before use.
	StateDirty
	// StateFresh means the stored value is current.
	StateFresh
)

// String returns a readable name for the state.
func (s State) String() string {
	switch s {
	case StateAbsent:
		return "absent"
	case StateDirty:
		return "dirty"
	case StateFresh:
		return "fresh"
	default:
		return "unknown"
	}
}

// ChunkCache stores one value per key along with that value's freshness.
type ChunkCache[K comparable, V any] interface {
	// Get returns the stored value and its state. The zero value is returned with StateAbsent
	// when nothing is stored.
	//
	// Parameters:
	//   - key: the context key
	//
	// Returns:
	//   - V: the stored value
	//   - State: the freshness of the stored value
	Get(key K) (V, State)

	// Put stores a value for the key. The entry always enters StateDirty.
	//
	// Parameters:
	//   - key: the context key
	//   - value: the value to store
	Put(key K, value V)

	// State returns the freshness of the key without touching the value.
	//
	// Parameters:
	//   - key: the context key
	//
	// Returns:
	//   - State: the current state
	State(key K) State

	// MarkFresh transitions a stored entry to StateFresh. Absent keys are ignored.
	//
	// Parameters:
	//   - key: the context key
	MarkFresh(key K)

	// MarkDirty transitions a stored entry to StateDirty. Absent keys are ignored.
	//
	// Parameters:
	//   - key: the context key
	MarkDirty(key K)

	// DirtyAll marks every stored entry dirty.
	DirtyAll()

	// Delete removes the entry for key and returns the value it held.
	//
	// Parameters:
	//   - key: the context key
	//
	// Returns:
	//   - V: the removed value
	//   - bool: true if an entry existed
	Delete(key K) (V, bool)

	// Keys returns every key with a stored entry.
	//
	// Returns:
	//   - []K: the keys, in no particular order
	Keys() []K

	// Len returns the number of stored entries.
	//
	// Returns:
	//   - int: the entry count
	Len() int
}

// entry is a stored value and its freshness.
type entry[V any] struct {
	value V
	fresh bool
}

// chunkCache is the map-backed implementation of ChunkCache.
type chunkCache[K comparable, V any] struct {
	entries map[K]*entry[V]
}

var _ ChunkCache[int, string] = &chunkCache[int, string]{}

// NewChunkCache creates an empty ChunkCache.
//
// Returns:
//   - ChunkCache[K, V]: the new cache
func NewChunkCache[K comparable, V any]() ChunkCache[K, V] {
	return &chunkCache[K, V]{entries: make(map[K]*entry[V])}
}

func (c *chunkCache[K, V]) Get(key K) (V, State) {
	e, ok := c.entries[key]
	if !ok {
		var zero V
		return zero, StateAbsent
	}
	return e.value, stateOf(e)
}

func (c *chunkCache[K, V]) Put(key K, value V) {
	c.entries[key] = &entry[V]{value: value}
}

func (c *chunkCache[K, V]) State(key K) State {
	e, ok := c.entries[key]
	if !ok {
		return StateAbsent
	}
	return stateOf(e)
}

func (c *chunkCache[K, V]) MarkFresh(key K) {
	if e, ok := c.entries[key]; ok {
		e.fresh = true
	}
}

func (c *chunkCache[K, V]) MarkDirty(key K) {
	if e, ok := c.entries[key]; ok {
		e.fresh = false
	}
}

func (c *chunkCache[K, V]) DirtyAll() {
	for _, e := range c.entries {
		e.fresh = false
	}
}

func (c *chunkCache[K, V]) Delete(key K) (V, bool) {
	e, ok := c.entries[key]
	if !ok {
		var zero V
		return zero, false
	}
	delete(c.entries, key)
	return e.value, true
}

func (c *chunkCache[K, V]) Keys() []K {
	keys := make([]K, 0, len(c.entries))
	for k := range c.entries {
		keys = append(keys, k)
	}
	return keys
}

func (c *chunkCache[K, V]) Len() int {
	return len(c.entries)
}

func stateOf[V any](e *entry[V]) State {
	if e.fresh {
		return StateFresh
	}
	return StateDirty
}

// SortedKeys returns the keys of c in ascending order, for deterministic iteration.
//
// Parameters:
//   - c: the cache to read
//   - less: the ordering of keys
//
// Returns:
//   - []K: the sorted keys
func SortedKeys[K comparable, V any](c ChunkCache[K, V], less func(a, b K) bool) []K {
	keys := c.Keys()
	sort.Slice(keys, func(i, j int) bool { return less(keys[i], keys[j]) })
	return keys
}
