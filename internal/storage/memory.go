package storage

import (
	"sort"
	"sync"
)

// MemoryStore is a map-backed Store. A positive quota caps the total number
// of value bytes held; writes past it fail with ErrQuotaExceeded.
type MemoryStore struct {
	mu    sync.RWMutex
	data  map[string][]byte
	used  int
	quota int
}

// NewMemoryStore creates an empty store. quota <= 0 means unbounded.
func NewMemoryStore(quota int) *MemoryStore {
	return &MemoryStore{
		data:  make(map[string][]byte),
		quota: quota,
	}
}

func (m *MemoryStore) Get(key string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

func (m *MemoryStore) Put(key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	next := m.used - len(m.data[key]) + len(value)
	if m.quota > 0 && next > m.quota {
		return ErrQuotaExceeded
	}
	m.data[key] = append([]byte(nil), value...)
	m.used = next
	return nil
}

func (m *MemoryStore) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.used -= len(m.data[key])
	delete(m.data, key)
	return nil
}

func (m *MemoryStore) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = make(map[string][]byte)
	m.used = 0
	return nil
}

func (m *MemoryStore) Keys() ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]string, 0, len(m.data))
	for k := range m.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

// Snapshot returns a copy of the raw contents (for tests and debugging).
func (m *MemoryStore) Snapshot() map[string]string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	cp := make(map[string]string, len(m.data))
	for k, v := range m.data {
		cp[k] = string(v)
	}
	return cp
}

func (m *MemoryStore) Close() error { return nil }

// Unavailable is a Store for environments where persistence is disabled.
// Every operation fails with ErrUnavailable.
type Unavailable struct{}

func (Unavailable) Get(string) ([]byte, bool, error) { return nil, false, ErrUnavailable }
func (Unavailable) Put(string, []byte) error         { return ErrUnavailable }
func (Unavailable) Delete(string) error              { return ErrUnavailable }
func (Unavailable) Clear() error                     { return ErrUnavailable }
func (Unavailable) Keys() ([]string, error)          { return nil, ErrUnavailable }
func (Unavailable) Close() error                     { return nil }
