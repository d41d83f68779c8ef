// Package boltstore keeps stores in buckets of a bbolt database file.
package boltstore

import (
	"bytes"
	"errors"
	"fmt"
	"iter"
	"os"
	"path/filepath"

	"go.etcd.io/bbolt"

	"github.com/bitfsorg/hoard-go/codec"
	"github.com/bitfsorg/hoard-go/store"
)

var metaBucket = []byte("__hoard_meta")

// DB wraps a bbolt database. Each named bucket is one store.
type DB struct {
	db *bbolt.DB
}

// Open opens or creates the database at path, creating the parent
// directory if needed.
func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("boltstore: create directory: %w", err)
	}
	db, err := bbolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("boltstore: open bolt db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(metaBucket)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("boltstore: create meta bucket: %w", err)
	}
	return &DB{db: db}, nil
}

// Close closes the underlying database.
func (d *DB) Close() error { return d.db.Close() }

// Buckets lists the store buckets in the database.
func (d *DB) Buckets() ([]string, error) {
	var names []string
	err := d.db.View(func(tx *bbolt.Tx) error {
		return tx.ForEach(func(name []byte, _ *bbolt.Bucket) error {
			if !bytes.Equal(name, metaBucket) {
				names = append(names, string(name))
			}
			return nil
		})
	})
	return names, err
}

// Store returns the store in bucket name, creating it with the named codec
// if it does not exist. An existing bucket keeps the codec it was created with.
func (d *DB) Store(name, codecName string) (*Store, error) {
	if name == "" || name == string(metaBucket) {
		return nil, fmt.Errorf("boltstore: invalid bucket name %q", name)
	}
	if codecName == "" {
		codecName = codec.Default
	}
	if _, err := codec.Get(codecName); err != nil {
		return nil, err
	}

	err := d.db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
			return err
		}
		meta := tx.Bucket(metaBucket)
		if existing := meta.Get([]byte(name)); existing != nil {
			codecName = string(existing)
			return nil
		}
		return meta.Put([]byte(name), []byte(codecName))
	})
	if err != nil {
		return nil, fmt.Errorf("%w: create bucket %q: %w", store.ErrStorageFault, name, err)
	}

	c, err := codec.Get(codecName)
	if err != nil {
		return nil, err
	}
	return &Store{db: d.db, bucket: []byte(name), codec: c}, nil
}

// Store is a store.Store over one bbolt bucket.
type Store struct {
	db     *bbolt.DB
	bucket []byte
	codec  codec.Codec
}

// Compile-time interface checks.
var (
	_ store.Store = (*Store)(nil)
	_ store.Coded = (*Store)(nil)
)

// Codec returns the codec recorded for the bucket.
func (s *Store) Codec() codec.Codec { return s.codec }

// fault marks a bbolt failure as a storage fault. Missing keys and errors
// that already carry the taxonomy pass through.
func fault(op, key string, err error) error {
	if err == nil || errors.Is(err, store.ErrNotFound) || errors.Is(err, store.ErrStorageFault) {
		return err
	}
	return fmt.Errorf("%w: %s %q: %w", store.ErrStorageFault, op, key, err)
}

// LoadRaw returns a copy of the value stored under key.
func (s *Store) LoadRaw(key string) ([]byte, error) {
	var out []byte
	err := s.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket(s.bucket).Get([]byte(key))
		if v == nil {
			return fmt.Errorf("%w: %q", store.ErrNotFound, key)
		}
		out = bytes.Clone(v)
		return nil
	})
	return out, fault("get", key, err)
}

// StoreRaw puts data under key.
func (s *Store) StoreRaw(key string, data []byte) error {
	if key == "" {
		return fmt.Errorf("%w: empty key", store.ErrInvalidKey)
	}
	err := s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(s.bucket).Put([]byte(key), data)
	})
	if err != nil {
		return fmt.Errorf("%w: put %q: %w", store.ErrStorageFault, key, err)
	}
	return nil
}

// Delete removes key.
func (s *Store) Delete(key string) error {
	err := s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(s.bucket)
		if b.Get([]byte(key)) == nil {
			return fmt.Errorf("%w: %q", store.ErrNotFound, key)
		}
		return b.Delete([]byte(key))
	})
	return fault("delete", key, err)
}

// Contains reports whether key is present.
func (s *Store) Contains(key string) (bool, error) {
	var ok bool
	err := s.db.View(func(tx *bbolt.Tx) error {
		ok = tx.Bucket(s.bucket).Get([]byte(key)) != nil
		return nil
	})
	return ok, fault("contains", key, err)
}

// Keys snapshots the bucket's keys in one read transaction when iteration
// starts, so callers may write to the store while iterating.
func (s *Store) Keys() iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		var keys []string
		err := s.db.View(func(tx *bbolt.Tx) error {
			return tx.Bucket(s.bucket).ForEach(func(k, _ []byte) error {
				keys = append(keys, string(k))
				return nil
			})
		})
		if err != nil {
			yield("", fmt.Errorf("%w: %w", store.ErrStorageFault, err))
			return
		}
		for _, k := range keys {
			if !yield(k, nil) {
				return
			}
		}
	}
}
