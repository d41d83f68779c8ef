// Package secret provides a store decorator that encrypts values to a
// secp256k1 public key. Without the matching private key the store is
// write-only; keys and membership stay visible.
package secret

import (
	"iter"

	ec "github.com/bsv-blockchain/go-sdk/primitives/ec"

	"github.com/bitfsorg/hoard-go/codec"
	"github.com/bitfsorg/hoard-go/store"
)

// Store encrypts values before handing them to its base store.
type Store struct {
	base store.Store
	pub  *ec.PublicKey
	priv *ec.PrivateKey
}

var (
	_ store.Store = (*Store)(nil)
	_ store.Coded = (*Store)(nil)
)

// New wraps base. priv may be nil for a write-only store.
func New(base store.Store, pub *ec.PublicKey, priv *ec.PrivateKey) (*Store, error) {
	if pub == nil {
		if priv == nil {
			return nil, ErrNilPublicKey
		}
		pub = priv.PubKey()
	}
	return &Store{base: base, pub: pub, priv: priv}, nil
}

// CanRead reports whether the store holds a private key.
func (s *Store) CanRead() bool { return s.priv != nil }

// Codec returns the base store's codec.
func (s *Store) Codec() codec.Codec { return store.CodecOf(s.base) }

// LoadRaw decrypts the stored blob. It needs the private key.
func (s *Store) LoadRaw(key string) ([]byte, error) {
	if s.priv == nil {
		return nil, ErrNoPrivateKey
	}
	blob, err := s.base.LoadRaw(key)
	if err != nil {
		return nil, err
	}
	return Open(s.priv, blob)
}

// StoreRaw encrypts data to the public key before storing it.
func (s *Store) StoreRaw(key string, data []byte) error {
	blob, err := Seal(s.pub, data)
	if err != nil {
		return err
	}
	return s.base.StoreRaw(key, blob)
}

// Delete removes key from the base store.
func (s *Store) Delete(key string) error { return s.base.Delete(key) }

// Contains reports whether the base store holds key.
func (s *Store) Contains(key string) (bool, error) { return s.base.Contains(key) }

// Keys lists the base store. Keys are not encrypted.
func (s *Store) Keys() iter.Seq2[string, error] { return s.base.Keys() }
