package store

import (
	"iter"

	"github.com/bitfsorg/hoard-go/codec"
)

// RemapFunc maps a caller-facing key to the key used in the wrapped store.
type RemapFunc func(key string) string

// View redirects every keyed operation through a remap function, aliasing
// keys without copying data. Keys lists the wrapped store unchanged.
type View struct {
	base  Store
	remap RemapFunc
}

var _ Store = (*View)(nil)

// NewView wraps base with remap. A nil remap is the identity.
func NewView(base Store, remap RemapFunc) *View {
	if remap == nil {
		remap = func(k string) string { return k }
	}
	return &View{base: base, remap: remap}
}

// MapRemap returns a RemapFunc that translates keys found in aliases and
// passes every other key through.
func MapRemap(aliases map[string]string) RemapFunc {
	return func(k string) string {
		if v, ok := aliases[k]; ok {
			return v
		}
		return k
	}
}

// Codec returns the wrapped store's codec.
func (v *View) Codec() codec.Codec { return CodecOf(v.base) }

// LoadRaw reads the remapped key.
func (v *View) LoadRaw(key string) ([]byte, error) {
	return v.base.LoadRaw(v.remap(key))
}

// StoreRaw writes the remapped key.
func (v *View) StoreRaw(key string, data []byte) error {
	return v.base.StoreRaw(v.remap(key), data)
}

// Delete removes the remapped key.
func (v *View) Delete(key string) error {
	return v.base.Delete(v.remap(key))
}

// Contains checks the remapped key.
func (v *View) Contains(key string) (bool, error) {
	return v.base.Contains(v.remap(key))
}

// Keys lists the wrapped store without remapping.
func (v *View) Keys() iter.Seq2[string, error] {
	return v.base.Keys()
}
