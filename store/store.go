// Package store defines the uniform key-value contract shared by every
// backend and decorator, together with the in-memory backend and the
// generic helpers built on the raw byte primitives.
//
// Backends implement LoadRaw/StoreRaw; typed access goes through Get, Set
// and friends, which encode values with the store's codec.
package store

import (
	"iter"

	"github.com/bitfsorg/hoard-go/codec"
)

// Store is the contract implemented by all backends and decorators.
// Keys are unique within a store and carry no ordering.
type Store interface {
	// LoadRaw returns the encoded value for key, or ErrNotFound.
	LoadRaw(key string) ([]byte, error)

	// StoreRaw writes the encoded value for key, overwriting any previous value.
	StoreRaw(key string, data []byte) error

	// Delete removes key, or returns ErrNotFound if it is absent.
	Delete(key string) error

	// Contains reports whether key is present. A missing key is not an error.
	Contains(key string) (bool, error)

	// Keys returns a lazy, restartable sequence of keys in no particular order.
	// Concurrent mutation is reflected on a best-effort basis.
	Keys() iter.Seq2[string, error]
}

// Coded is implemented by stores that carry their own codec.
type Coded interface {
	Codec() codec.Codec
}

// CodecOf returns the codec configured on s, or the default codec.
func CodecOf(s Store) codec.Codec {
	if c, ok := s.(Coded); ok {
		if cc := c.Codec(); cc != nil {
			return cc
		}
	}
	return codec.MustGet(codec.Default)
}

// KeySlice drains s.Keys() into a slice.
func KeySlice(s Store) ([]string, error) {
	var keys []string
	for k, err := range s.Keys() {
		if err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, nil
}

// SliceKeys adapts an eagerly listed key set to a key sequence.
func SliceKeys(keys []string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		for _, k := range keys {
			if !yield(k, nil) {
				return
			}
		}
	}
}

// ErrKeys returns a key sequence that fails immediately with err.
func ErrKeys(err error) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		yield("", err)
	}
}
