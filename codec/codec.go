// Package codec converts typed values to and from byte slices.
//
// Codecs are stateless and looked up by name from a process-wide registry
// populated at init time. The built-in set is:
//
//	bytes   []byte only, stored verbatim
//	text    string only, stored as UTF-8
//	native  encoding/gob (the default)
//	json    encoding/json
//	yaml    gopkg.in/yaml.v3
package codec

import (
	"fmt"
	"sort"
	"sync"
)

// Default is the name of the codec used when none is configured.
const Default = "native"

// Codec is a named, deterministic value <-> bytes transform.
// Decode(Encode(v)) must reproduce v; the bytes themselves need not be stable.
type Codec interface {
	// Name returns the registry name of the codec.
	Name() string

	// Encode serializes v.
	Encode(v any) ([]byte, error)

	// Decode deserializes data into v, which must be a non-nil pointer.
	Decode(data []byte, v any) error
}

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Codec)
)

// Register adds c to the process-wide registry. It panics when the name is
// already taken, so it is meant to be called from init functions.
func Register(c Codec) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if _, exists := registry[c.Name()]; exists {
		panic(fmt.Errorf("%w: %q", ErrDuplicateCodec, c.Name()))
	}
	registry[c.Name()] = c
}

// Get returns the codec registered under name.
func Get(name string) (Codec, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	c, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCodec, name)
	}
	return c, nil
}

// MustGet is like Get but panics on an unknown name.
func MustGet(name string) Codec {
	c, err := Get(name)
	if err != nil {
		panic(err)
	}
	return c
}

// Names returns the registered codec names in sorted order.
func Names() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
