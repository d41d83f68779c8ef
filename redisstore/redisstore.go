// Package redisstore keeps a store in a single Redis hash and provides a
// Redis sorted-set ordering index for cache.Bounded, so several processes
// can share one bounded cache.
package redisstore

import (
	"context"
	"errors"
	"fmt"
	"iter"

	"github.com/redis/go-redis/v9"

	"github.com/bitfsorg/hoard-go/codec"
	"github.com/bitfsorg/hoard-go/store"
)

const (
	configPrefix = "__HOARDCONFIG."
	codecField   = "codec"
	scanCount    = 500
)

// ConfigKey returns the Redis key holding the store's config hash.
func ConfigKey(key string) string { return configPrefix + key }

// Store is a store.Store over the Redis hash at Key.
type Store struct {
	client redis.Cmdable
	key    string
	codec  codec.Codec
}

var (
	_ store.Store = (*Store)(nil)
	_ store.Coded = (*Store)(nil)
)

// Create initialises a store at key with the named codec. It fails with
// store.ErrAlreadyExists when key or its config already exist, unless
// overwrite is set, in which case both are removed first.
func Create(ctx context.Context, client redis.Cmdable, key, codecName string, overwrite bool) (*Store, error) {
	if codecName == "" {
		codecName = codec.Default
	}
	c, err := codec.Get(codecName)
	if err != nil {
		return nil, err
	}

	n, err := client.Exists(ctx, key, ConfigKey(key)).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", store.ErrStorageFault, err)
	}
	if n > 0 {
		if !overwrite {
			return nil, fmt.Errorf("%w: redis key %q", store.ErrAlreadyExists, key)
		}
		if err := client.Del(ctx, key, ConfigKey(key), IndexKey(key)).Err(); err != nil {
			return nil, fmt.Errorf("%w: %w", store.ErrStorageFault, err)
		}
	}

	if err := client.HSet(ctx, ConfigKey(key), codecField, codecName).Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", store.ErrStorageFault, err)
	}
	return &Store{client: client, key: key, codec: c}, nil
}

// Open attaches to an existing store. A missing config means the default codec.
func Open(ctx context.Context, client redis.Cmdable, key string) (*Store, error) {
	name, err := client.HGet(ctx, ConfigKey(key), codecField).Result()
	if errors.Is(err, redis.Nil) {
		name = codec.Default
	} else if err != nil {
		return nil, fmt.Errorf("%w: %w", store.ErrStorageFault, err)
	}

	c, err := codec.Get(name)
	if err != nil {
		return nil, err
	}
	return &Store{client: client, key: key, codec: c}, nil
}

// Key returns the Redis hash key.
func (s *Store) Key() string { return s.key }

// Codec returns the codec recorded in the config hash.
func (s *Store) Codec() codec.Codec { return s.codec }

// Drop removes the hash and its config.
func (s *Store) Drop(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key, ConfigKey(s.key)).Err(); err != nil {
		return fmt.Errorf("%w: %w", store.ErrStorageFault, err)
	}
	return nil
}

// LoadRaw reads the hash field key.
func (s *Store) LoadRaw(key string) ([]byte, error) {
	data, err := s.client.HGet(context.Background(), s.key, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: %q", store.ErrNotFound, key)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: hget %q: %w", store.ErrStorageFault, key, err)
	}
	return data, nil
}

// StoreRaw sets the hash field key.
func (s *Store) StoreRaw(key string, data []byte) error {
	if err := s.client.HSet(context.Background(), s.key, key, data).Err(); err != nil {
		return fmt.Errorf("%w: hset %q: %w", store.ErrStorageFault, key, err)
	}
	return nil
}

// Delete removes the hash field key.
func (s *Store) Delete(key string) error {
	n, err := s.client.HDel(context.Background(), s.key, key).Result()
	if err != nil {
		return fmt.Errorf("%w: hdel %q: %w", store.ErrStorageFault, key, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %q", store.ErrNotFound, key)
	}
	return nil
}

// Contains reports whether the hash field key exists.
func (s *Store) Contains(key string) (bool, error) {
	ok, err := s.client.HExists(context.Background(), s.key, key).Result()
	if err != nil {
		return false, fmt.Errorf("%w: hexists %q: %w", store.ErrStorageFault, key, err)
	}
	return ok, nil
}

// Keys walks the hash with HSCAN.
func (s *Store) Keys() iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		ctx := context.Background()
		var cursor uint64
		for {
			page, next, err := s.client.HScan(ctx, s.key, cursor, "", scanCount).Result()
			if err != nil {
				yield("", fmt.Errorf("%w: hscan %q: %w", store.ErrStorageFault, s.key, err))
				return
			}
			// HSCAN returns field, value pairs.
			for i := 0; i+1 < len(page); i += 2 {
				if !yield(page[i], nil) {
					return
				}
			}
			if next == 0 {
				return
			}
			cursor = next
		}
	}
}
