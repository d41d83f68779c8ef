package store

import (
	"iter"

	"github.com/bitfsorg/hoard-go/codec"
)

// ReadOnly guards a store against writes. Reads pass through unchanged.
type ReadOnly struct {
	base Store
}

var _ Store = (*ReadOnly)(nil)

// NewReadOnly wraps base.
func NewReadOnly(base Store) *ReadOnly {
	return &ReadOnly{base: base}
}

// Codec returns the wrapped store's codec.
func (r *ReadOnly) Codec() codec.Codec { return CodecOf(r.base) }

// LoadRaw reads from the wrapped store.
func (r *ReadOnly) LoadRaw(key string) ([]byte, error) { return r.base.LoadRaw(key) }

// StoreRaw always fails with ErrReadOnly.
func (r *ReadOnly) StoreRaw(string, []byte) error { return ErrReadOnly }

// Delete always fails with ErrReadOnly.
func (r *ReadOnly) Delete(string) error { return ErrReadOnly }

// Contains checks the wrapped store.
func (r *ReadOnly) Contains(key string) (bool, error) { return r.base.Contains(key) }

// Keys lists the wrapped store.
func (r *ReadOnly) Keys() iter.Seq2[string, error] { return r.base.Keys() }
