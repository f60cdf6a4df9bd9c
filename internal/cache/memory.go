package cache

import (
	"context"
	"sync"
)

// Memory is a bounded in-memory Cache. It tracks total byte size and
// insertion order; when a put would exceed the configured maximum, the
// oldest-inserted entries are evicted (FIFO, not LRU) until the new entry
// fits or the store is empty. A max size of 0 means unbounded.
type Memory struct {
	mu      sync.Mutex
	entries map[string][]byte
	order   []string
	size    int
	maxSize int
}

// NewMemory returns an in-memory cache bounded to maxSize bytes.
func NewMemory(maxSize int) *Memory {
	return &Memory{
		entries: make(map[string][]byte),
		maxSize: maxSize,
	}
}

// Get returns the cached bytes for key.
func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, ok := m.entries[key]
	return data, ok, nil
}

// Put stores data under key, evicting oldest entries if the size cap would
// be exceeded.
func (m *Memory) Put(_ context.Context, key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.entries[key]; ok {
		m.removeLocked(key)
	}

	if m.maxSize > 0 {
		for m.size+len(data) > m.maxSize && len(m.order) > 0 {
			m.removeLocked(m.order[0])
		}
	}

	m.entries[key] = data
	m.order = append(m.order, key)
	m.size += len(data)
	return nil
}

// Contains reports whether key is present.
func (m *Memory) Contains(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, ok := m.entries[key]
	return ok, nil
}

// Remove deletes key if present.
func (m *Memory) Remove(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.removeLocked(key)
	return nil
}

// Clear empties the store.
func (m *Memory) Clear(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries = make(map[string][]byte)
	m.order = nil
	m.size = 0
	return nil
}

// Size returns the current total byte size.
func (m *Memory) Size() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.size
}

// Len returns the current entry count.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

func (m *Memory) removeLocked(key string) {
	data, ok := m.entries[key]
	if !ok {
		return
	}
	delete(m.entries, key)
	m.size -= len(data)
	for i, k := range m.order {
		if k == key {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
}
