// Package cache provides caching decorators over a store.Store: a
// write-through Cache backed by a faster front store, a Bounded cache that
// keeps the front store to a fixed number of entries using an ordering
// index, and an in-process LRU memoiser.
package cache

import (
	"errors"
	"fmt"
	"iter"

	"github.com/bitfsorg/hoard-go/codec"
	"github.com/bitfsorg/hoard-go/store"
)

// Cache is a write-through cache. Writes go to front then base, reads try
// front and fall back to a single base fetch that refills front.
type Cache struct {
	base  store.Store
	front store.Store
}

var (
	_ store.Store = (*Cache)(nil)
	_ store.Coded = (*Cache)(nil)
)

// New wraps base with front. A nil front means a fresh in-memory store.
func New(base, front store.Store) *Cache {
	if front == nil {
		front = store.NewMemory()
	}
	return &Cache{base: base, front: front}
}

// Base returns the backing store.
func (c *Cache) Base() store.Store { return c.base }

// Front returns the cache store.
func (c *Cache) Front() store.Store { return c.front }

// Codec returns the base store's codec.
func (c *Cache) Codec() codec.Codec { return store.CodecOf(c.base) }

// LoadRaw serves key from front, else fetches it once from base and fills front.
func (c *Cache) LoadRaw(key string) ([]byte, error) {
	data, err := c.front.LoadRaw(key)
	if err == nil {
		return data, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	data, err = c.base.LoadRaw(key)
	if err != nil {
		return nil, err
	}
	if err := c.front.StoreRaw(key, data); err != nil {
		return nil, fmt.Errorf("fill cache for %q: %w", key, err)
	}
	return data, nil
}

// StoreRaw writes front first, then base.
func (c *Cache) StoreRaw(key string, data []byte) error {
	if err := c.front.StoreRaw(key, data); err != nil {
		return err
	}
	return c.base.StoreRaw(key, data)
}

// Delete removes key from front (a miss there is ignored) and then from
// base, returning the base result.
func (c *Cache) Delete(key string) error {
	if err := c.front.Delete(key); err != nil && !errors.Is(err, store.ErrNotFound) {
		return err
	}
	return c.base.Delete(key)
}

// Contains checks front, then base.
func (c *Cache) Contains(key string) (bool, error) {
	ok, err := c.front.Contains(key)
	if err != nil || ok {
		return ok, err
	}
	return c.base.Contains(key)
}

// Keys lists the base store.
func (c *Cache) Keys() iter.Seq2[string, error] { return c.base.Keys() }

// Reconcile drops front entries that no longer exist in base and returns
// how many were dropped.
func (c *Cache) Reconcile() (int, error) {
	keys, err := store.KeySlice(c.front)
	if err != nil {
		return 0, err
	}

	dropped := 0
	for _, key := range keys {
		ok, err := c.base.Contains(key)
		if err != nil {
			return dropped, err
		}
		if ok {
			continue
		}
		if err := c.front.Delete(key); err != nil && !errors.Is(err, store.ErrNotFound) {
			return dropped, err
		}
		dropped++
	}
	return dropped, nil
}
