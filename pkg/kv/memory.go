package kv

import (
	"context"
	"sort"
	"sync"
)

// Memory is a thread-safe in-memory Store. The zero value is ready to use.
// State is lost when the process exits.
type Memory struct {
	mu   sync.RWMutex
	once sync.Once
	data map[string]string
}

var _ Store = (*Memory)(nil)

// init ensures internal structures are allocated.
func (m *Memory) init() {
	m.once.Do(func() {
		m.data = make(map[string]string)
	})
}

// Get returns the value for key.
func (m *Memory) Get(ctx context.Context, key string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	m.init()
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.data[key]
	if !ok {
		return "", ErrNotFound
	}

	return v, nil
}

// Set stores value under key.
func (m *Memory) Set(ctx context.Context, key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.init()
	m.mu.Lock()
	defer m.mu.Unlock()

	m.data[key] = value

	return nil
}

// Delete removes key.
func (m *Memory) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.init()
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.data, key)

	return nil
}

// Keys returns a sorted slice of all keys in the store.
func (m *Memory) Keys() []string {
	m.init()
	m.mu.RLock()
	defer m.mu.RUnlock()

	keys := make([]string, 0, len(m.data))
	for k := range m.data {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	return keys
}

// Snapshot returns a copy of the entire store.
func (m *Memory) Snapshot() map[string]string {
	m.init()
	m.mu.RLock()
	defer m.mu.RUnlock()

	cp := make(map[string]string, len(m.data))
	for k, v := range m.data {
		cp[k] = v
	}

	return cp
}
