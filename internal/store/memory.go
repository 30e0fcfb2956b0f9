// Package store: in-memory backend, used in tests and as the default when
// no DSN is configured.
package store

import (
	"strings"
	"sync"
)

type memoryKV struct {
	mu   sync.RWMutex
	data map[string]string
}

// NewInMemoryStore creates a store backed by a process-local map.
func NewInMemoryStore() *Store {
	return &Store{kv: &memoryKV{data: make(map[string]string)}}
}

func (m *memoryKV) Get(key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *memoryKV) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *memoryKV) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *memoryKV) List(prefix string) (map[string]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]string)
	for k, v := range m.data {
		if strings.HasPrefix(k, prefix) {
			out[k] = v
		}
	}
	return out, nil
}

func (m *memoryKV) Close() error {
	return nil
}
