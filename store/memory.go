package store

import (
	"fmt"
	"iter"
	"sync"

	"github.com/bitfsorg/hoard-go/codec"
)

// Memory is an in-memory Store. Values are copied on the way in and out.
// It is safe for concurrent use.
type Memory struct {
	mu    sync.RWMutex
	data  map[string][]byte
	codec codec.Codec
}

var _ Store = (*Memory)(nil)

// NewMemory creates an empty in-memory store using the default codec.
func NewMemory() *Memory {
	return &Memory{
		data:  make(map[string][]byte),
		codec: codec.MustGet(codec.Default),
	}
}

// NewMemoryWithCodec creates an empty in-memory store using the named codec.
func NewMemoryWithCodec(name string) (*Memory, error) {
	c, err := codec.Get(name)
	if err != nil {
		return nil, err
	}
	m := NewMemory()
	m.codec = c
	return m, nil
}

// Codec returns the store's codec.
func (m *Memory) Codec() codec.Codec { return m.codec }

// LoadRaw returns a copy of the stored bytes.
func (m *Memory) LoadRaw(key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.data[key]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, key)
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

// StoreRaw stores a copy of data.
func (m *Memory) StoreRaw(key string, data []byte) error {
	stored := make([]byte, len(data))
	copy(stored, data)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = stored
	return nil
}

// Delete removes key.
func (m *Memory) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.data[key]; !ok {
		return fmt.Errorf("%w: %q", ErrNotFound, key)
	}
	delete(m.data, key)
	return nil
}

// Contains reports whether key is present.
func (m *Memory) Contains(key string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.data[key]
	return ok, nil
}

// Keys snapshots the key set at the start of each iteration.
func (m *Memory) Keys() iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		m.mu.RLock()
		keys := make([]string, 0, len(m.data))
		for k := range m.data {
			keys = append(keys, k)
		}
		m.mu.RUnlock()

		for _, k := range keys {
			if !yield(k, nil) {
				return
			}
		}
	}
}

// Len returns the number of stored keys.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.data)
}
