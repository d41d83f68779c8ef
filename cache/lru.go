package cache

import (
	"bytes"
	"fmt"
	"iter"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/bitfsorg/hoard-go/codec"
	"github.com/bitfsorg/hoard-go/store"
)

// LRU memoises base reads in process memory, keeping the size most
// recently used values. Writes and deletes go straight to base.
type LRU struct {
	base  store.Store
	cache *lru.Cache[string, []byte]
}

var (
	_ store.Store = (*LRU)(nil)
	_ store.Coded = (*LRU)(nil)
)

// NewLRU wraps base with an in-process LRU of the given size.
func NewLRU(base store.Store, size int) (*LRU, error) {
	c, err := lru.New[string, []byte](size)
	if err != nil {
		return nil, fmt.Errorf("cache: %w", err)
	}
	return &LRU{base: base, cache: c}, nil
}

// Codec returns the base store's codec.
func (l *LRU) Codec() codec.Codec { return store.CodecOf(l.base) }

// LoadRaw serves key from the LRU, else from base.
func (l *LRU) LoadRaw(key string) ([]byte, error) {
	if data, ok := l.cache.Get(key); ok {
		return bytes.Clone(data), nil
	}
	data, err := l.base.LoadRaw(key)
	if err != nil {
		return nil, err
	}
	l.cache.Add(key, bytes.Clone(data))
	return data, nil
}

// StoreRaw writes base and refreshes the cached copy.
func (l *LRU) StoreRaw(key string, data []byte) error {
	if err := l.base.StoreRaw(key, data); err != nil {
		l.cache.Remove(key)
		return err
	}
	l.cache.Add(key, bytes.Clone(data))
	return nil
}

// Delete evicts key and removes it from base.
func (l *LRU) Delete(key string) error {
	l.cache.Remove(key)
	return l.base.Delete(key)
}

// Contains checks the LRU, then base.
func (l *LRU) Contains(key string) (bool, error) {
	if l.cache.Contains(key) {
		return true, nil
	}
	return l.base.Contains(key)
}

// Keys lists the base store.
func (l *LRU) Keys() iter.Seq2[string, error] { return l.base.Keys() }

// Len returns the number of memoised values.
func (l *LRU) Len() int { return l.cache.Len() }

// Purge drops every memoised value.
func (l *LRU) Purge() { l.cache.Purge() }
