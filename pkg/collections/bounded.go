package collections

import (
	"container/list"
	"sync"
)

// BoundedMap is a thread-safe map with a hard capacity. When the map is full,
// inserting a new key evicts the oldest-inserted entry first, so callers can
// key it by untrusted input (client IPs, request keys) without risking
// unbounded growth.
type BoundedMap[K comparable, V any] struct {
	mu       sync.RWMutex
	capacity int
	entries  map[K]*list.Element
	order    *list.List
}

type boundedEntry[K comparable, V any] struct {
	key   K
	value V
}

// NewBoundedMap creates a bounded map holding at most capacity entries.
func NewBoundedMap[K comparable, V any](capacity int) *BoundedMap[K, V] {
	if capacity <= 0 {
		capacity = 1
	}
	return &BoundedMap[K, V]{
		capacity: capacity,
		entries:  make(map[K]*list.Element),
		order:    list.New(),
	}
}

// Get returns the value stored under key.
func (m *BoundedMap[K, V]) Get(key K) (V, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	elem, ok := m.entries[key]
	if !ok {
		var zero V
		return zero, false
	}
	return elem.Value.(*boundedEntry[K, V]).value, true
}

// Set stores value under key. Updating an existing key keeps its insertion
// position; inserting a new key into a full map evicts the oldest entry.
func (m *BoundedMap[K, V]) Set(key K, value V) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if elem, ok := m.entries[key]; ok {
		elem.Value.(*boundedEntry[K, V]).value = value
		return
	}

	if m.order.Len() >= m.capacity {
		oldest := m.order.Front()
		if oldest != nil {
			m.order.Remove(oldest)
			delete(m.entries, oldest.Value.(*boundedEntry[K, V]).key)
		}
	}

	m.entries[key] = m.order.PushBack(&boundedEntry[K, V]{key: key, value: value})
}

// GetOrSet returns the existing value for key, or stores and returns value
// when the key is absent. The boolean reports whether the key was already
// present. The check and insert happen under one lock, so two concurrent
// callers for the same key always share one value.
func (m *BoundedMap[K, V]) GetOrSet(key K, value V) (V, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if elem, ok := m.entries[key]; ok {
		return elem.Value.(*boundedEntry[K, V]).value, true
	}

	if m.order.Len() >= m.capacity {
		oldest := m.order.Front()
		if oldest != nil {
			m.order.Remove(oldest)
			delete(m.entries, oldest.Value.(*boundedEntry[K, V]).key)
		}
	}

	m.entries[key] = m.order.PushBack(&boundedEntry[K, V]{key: key, value: value})
	return value, false
}

// Delete removes key if present.
func (m *BoundedMap[K, V]) Delete(key K) {
	m.mu.Lock()
	defer m.mu.Unlock()

	elem, ok := m.entries[key]
	if !ok {
		return
	}
	m.order.Remove(elem)
	delete(m.entries, key)
}

// Len returns the number of stored entries.
func (m *BoundedMap[K, V]) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.order.Len()
}

// Capacity returns the maximum number of entries the map can hold.
func (m *BoundedMap[K, V]) Capacity() int {
	return m.capacity
}

// Range calls fn for each entry in insertion order until fn returns false.
// It iterates over a snapshot, so fn may safely call Set or Delete.
func (m *BoundedMap[K, V]) Range(fn func(key K, value V) bool) {
	m.mu.RLock()
	snapshot := make([]boundedEntry[K, V], 0, m.order.Len())
	for elem := m.order.Front(); elem != nil; elem = elem.Next() {
		entry := elem.Value.(*boundedEntry[K, V])
		snapshot = append(snapshot, boundedEntry[K, V]{key: entry.key, value: entry.value})
	}
	m.mu.RUnlock()

	for _, entry := range snapshot {
		if !fn(entry.key, entry.value) {
			return
		}
	}
}

// Clear removes all entries.
func (m *BoundedMap[K, V]) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries = make(map[K]*list.Element)
	m.order.Init()
}
