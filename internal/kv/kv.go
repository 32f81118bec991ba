// Package kv defines the key-value store contract used for persistence.
package kv

import (
	"context"
	"sort"
	"sync"
)

// Store is a string key-value store.
type Store interface {
	// Get returns the value for key and whether it exists.
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// Batcher is implemented by stores that can write several keys atomically.
type Batcher interface {
	SetMany(ctx context.Context, values map[string]string) error
}

// SetMany writes all values, atomically when s implements Batcher.
func SetMany(ctx context.Context, s Store, values map[string]string) error {
	if len(values) == 0 {
		return nil
	}
	if b, ok := s.(Batcher); ok {
		return b.SetMany(ctx, values)
	}
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := s.Set(ctx, k, values[k]); err != nil {
			return err
		}
	}
	return nil
}

// Memory is an in-process Store.
type Memory struct {
	mu   sync.RWMutex
	data map[string]string
}

// NewMemory returns an empty Memory store.
func NewMemory() *Memory {
	return &Memory{data: map[string]string{}}
}

// Get implements Store.
func (m *Memory) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	return v, ok, nil
}

// Set implements Store.
func (m *Memory) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	m.data[key] = value
	m.mu.Unlock()
	return nil
}

// Delete implements Store.
func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.data, key)
	m.mu.Unlock()
	return nil
}

// SetMany implements Batcher.
func (m *Memory) SetMany(_ context.Context, values map[string]string) error {
	m.mu.Lock()
	for k, v := range values {
		m.data[k] = v
	}
	m.mu.Unlock()
	return nil
}

// Close implements io.Closer so Memory can stand in for other backends.
func (m *Memory) Close() error {
	return nil
}
