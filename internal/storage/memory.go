package storage

import (
	"context"
	"fmt"
	"sync"
)

// MemoryMedium is an in-memory Medium intended for tests and throwaway
// sessions. A positive quota caps the total size (keys plus values, in bytes)
// the medium accepts, mimicking browser storage limits.
type MemoryMedium struct {
	mu     sync.RWMutex
	values map[string]string
	quota  int
}

func NewMemoryMedium() *MemoryMedium {
	return &MemoryMedium{values: map[string]string{}}
}

// NewMemoryMediumWithQuota returns a MemoryMedium that rejects writes once
// the stored data would exceed quota bytes.
func NewMemoryMediumWithQuota(quota int) *MemoryMedium {
	m := NewMemoryMedium()
	m.quota = quota
	return m
}

func (m *MemoryMedium) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *MemoryMedium) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.quota > 0 {
		size := len(key) + len(value)
		for k, v := range m.values {
			if k != key {
				size += len(k) + len(v)
			}
		}
		if size > m.quota {
			return fmt.Errorf("set %q: %w", key, ErrQuotaExceeded)
		}
	}

	m.values[key] = value
	return nil
}

func (m *MemoryMedium) Remove(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.values, key)
	m.mu.Unlock()
	return nil
}

// Len returns the number of stored keys.
func (m *MemoryMedium) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.values)
}
