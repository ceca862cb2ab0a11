package store

import (
	"fmt"
	"sync"
)

// MemoryStore keeps everything in memory. Data is lost on restart.
// Safe for concurrent use.
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{collections: make(map[string][]byte)}
}

func (m *MemoryStore) Ensure(collection string, shape Shape) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.collections[collection]; !ok {
		m.collections[collection] = shape.Empty()
	}
	return nil
}

func (m *MemoryStore) ReadAll(collection string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.collections[collection]
	if !ok {
		return nil, fmt.Errorf("collection %q does not exist", collection)
	}
	return append([]byte(nil), data...), nil
}

func (m *MemoryStore) WriteAll(collection string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.collections[collection] = append([]byte(nil), data...)
	return nil
}
