package storage

import (
	"context"

	"github.com/debemdeboas/semantic-composer/internal/cache"
)

// MemoryStore keeps records for the lifetime of the process.
type MemoryStore struct {
	items *cache.Cache[string, string]
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		items: cache.NewCache[string, string](),
	}
}

func (m *MemoryStore) Name() string { return BackendMemory }

func (m *MemoryStore) Get(_ context.Context, key string) (string, bool, error) {
	value, ok := m.items.Get(key)
	return value, ok, nil
}

func (m *MemoryStore) Set(_ context.Context, key, value string) error {
	m.items.Set(key, value)
	return nil
}

func (m *MemoryStore) Remove(_ context.Context, key string) error {
	m.items.Delete(key)
	return nil
}

func (m *MemoryStore) Keys(_ context.Context, prefix string) ([]string, error) {
	return cache.KeysWithPrefix(m.items, prefix), nil
}

func (m *MemoryStore) Close() error {
	m.items.Clear()
	return nil
}
