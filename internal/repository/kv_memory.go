package repository

import (
	"context"
	"sync"

	"github.com/mansoorceksport/repsync/internal/domain"
)

// MemoryKeyValueStore is an in-process store for development and tests.
// Values are copied on the way in and out so callers never share buffers with it.
type MemoryKeyValueStore struct {
	mu    sync.Mutex
	items map[string][]byte
}

func NewMemoryKeyValueStore() *MemoryKeyValueStore {
	return &MemoryKeyValueStore{items: make(map[string][]byte)}
}

var _ domain.KeyValueStore = (*MemoryKeyValueStore)(nil)

func (m *MemoryKeyValueStore) GetItem(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	v, ok := m.items[key]
	if !ok {
		return nil, domain.ErrKeyNotFound
	}
	return append([]byte(nil), v...), nil
}

func (m *MemoryKeyValueStore) SetItem(ctx context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.items[key] = append([]byte(nil), value...)
	return nil
}

func (m *MemoryKeyValueStore) RemoveItem(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.items, key)
	return nil
}
