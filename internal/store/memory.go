package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/mrz1836/testmo/internal/errors"
)

// MemoryKV keeps values in a map. Nothing survives the process.
type MemoryKV struct {
	mu       sync.RWMutex
	data     map[string][]byte
	maxBytes int64
}

var _ KV = (*MemoryKV)(nil)

// NewMemoryKV creates an empty in-memory store with an optional value size limit.
func NewMemoryKV(maxValueBytes int64) *MemoryKV {
	return &MemoryKV{data: make(map[string][]byte), maxBytes: maxValueBytes}
}

// Get implements KV.
func (m *MemoryKV) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", errors.ErrKeyNotFound, key)
	}
	return append([]byte(nil), v...), nil
}

// Put implements KV.
func (m *MemoryKV) Put(_ context.Context, key string, value []byte) error {
	if err := checkQuota(key, value, m.maxBytes); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = append([]byte(nil), value...)
	return nil
}

// Delete implements KV.
func (m *MemoryKV) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

// Close implements KV.
func (m *MemoryKV) Close() error { return nil }
