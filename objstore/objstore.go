// Package objstore adapts an object storage bucket to store.Store. Values
// live at <partition>/<key> in the bucket.
package objstore

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"strings"
	"time"

	"github.com/bitfsorg/hoard-go/store"
)

// ErrObjectNotFound is returned by an ObjectClient for a missing object.
var ErrObjectNotFound = errors.New("objstore: object not found")

// DefaultPartition is the key prefix used when none is given.
const DefaultPartition = "root"

// ObjectClient is the subset of an object storage API the store needs.
type ObjectClient interface {
	Get(ctx context.Context, bucket, key string) ([]byte, error)
	Put(ctx context.Context, bucket, key string, data []byte) error
	Delete(ctx context.Context, bucket, key string) error
	Exists(ctx context.Context, bucket, key string) (bool, error)
	// List yields object keys under prefix, following pagination as needed.
	List(ctx context.Context, bucket, prefix string) iter.Seq2[string, error]
}

// Store is a store.Store over one partition of a bucket.
type Store struct {
	client    ObjectClient
	bucket    string
	partition string
	timeout   time.Duration
}

var _ store.Store = (*Store)(nil)

// New returns a store over bucket. An empty partition means DefaultPartition.
func New(client ObjectClient, bucket, partition string) *Store {
	if partition == "" {
		partition = DefaultPartition
	}
	return &Store{client: client, bucket: bucket, partition: partition, timeout: time.Minute}
}

// WithTimeout bounds each object operation.
func (s *Store) WithTimeout(d time.Duration) *Store {
	s.timeout = d
	return s
}

func (s *Store) objectKey(key string) (string, error) {
	if key == "" {
		return "", fmt.Errorf("%w: empty key", store.ErrInvalidKey)
	}
	return s.partition + "/" + key, nil
}

func (s *Store) ctx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), s.timeout)
}

// wrap maps client errors onto the store taxonomy.
func wrap(key string, err error) error {
	if errors.Is(err, ErrObjectNotFound) {
		return fmt.Errorf("%w: %q", store.ErrNotFound, key)
	}
	return fmt.Errorf("%w: %q: %w", store.ErrStorageFault, key, err)
}

// LoadRaw downloads the object for key.
func (s *Store) LoadRaw(key string) ([]byte, error) {
	obj, err := s.objectKey(key)
	if err != nil {
		return nil, err
	}
	ctx, cancel := s.ctx()
	defer cancel()

	data, err := s.client.Get(ctx, s.bucket, obj)
	if err != nil {
		return nil, wrap(key, err)
	}
	return data, nil
}

// StoreRaw uploads data as the object for key.
func (s *Store) StoreRaw(key string, data []byte) error {
	obj, err := s.objectKey(key)
	if err != nil {
		return err
	}
	ctx, cancel := s.ctx()
	defer cancel()

	if err := s.client.Put(ctx, s.bucket, obj, data); err != nil {
		return wrap(key, err)
	}
	return nil
}

// Delete removes key. Object stores accept deletes of missing objects, so
// existence is checked first.
func (s *Store) Delete(key string) error {
	obj, err := s.objectKey(key)
	if err != nil {
		return err
	}
	ctx, cancel := s.ctx()
	defer cancel()

	exists, err := s.client.Exists(ctx, s.bucket, obj)
	if err != nil {
		return wrap(key, err)
	}
	if !exists {
		return fmt.Errorf("%w: %q", store.ErrNotFound, key)
	}
	if err := s.client.Delete(ctx, s.bucket, obj); err != nil {
		return wrap(key, err)
	}
	return nil
}

// Contains reports whether the object for key exists.
func (s *Store) Contains(key string) (bool, error) {
	obj, err := s.objectKey(key)
	if err != nil {
		return false, err
	}
	ctx, cancel := s.ctx()
	defer cancel()

	exists, err := s.client.Exists(ctx, s.bucket, obj)
	if err != nil {
		return false, wrap(key, err)
	}
	return exists, nil
}

// Keys lists the partition with the partition prefix stripped.
func (s *Store) Keys() iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		prefix := s.partition + "/"
		for k, err := range s.client.List(ctx, s.bucket, prefix) {
			if err != nil {
				yield("", fmt.Errorf("%w: list %s/%s: %w", store.ErrStorageFault, s.bucket, prefix, err))
				return
			}
			if !yield(strings.TrimPrefix(k, prefix), nil) {
				return
			}
		}
	}
}
