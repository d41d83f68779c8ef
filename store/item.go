package store

import "errors"

// Item is a handle on a single key of a store.
type Item[T any] struct {
	Store Store
	Key   string
}

// NewItem returns a handle on key in s.
func NewItem[T any](s Store, key string) Item[T] {
	return Item[T]{Store: s, Key: key}
}

// Get returns the stored value.
func (it Item[T]) Get() (T, error) {
	return Get[T](it.Store, it.Key)
}

// GetOrCompute returns the stored value, or calls compute when the key is
// missing. With persist set, a computed value is written back.
func (it Item[T]) GetOrCompute(compute func(key string) (T, error), persist bool) (T, error) {
	v, err := it.Get()
	if err == nil || !errors.Is(err, ErrNotFound) {
		return v, err
	}
	v, err = compute(it.Key)
	if err != nil {
		return v, err
	}
	if persist {
		if err := it.Set(v); err != nil {
			return v, err
		}
	}
	return v, nil
}

// Set stores v.
func (it Item[T]) Set(v T) error { return Set(it.Store, it.Key, v) }

// Delete removes the key.
func (it Item[T]) Delete() error { return it.Store.Delete(it.Key) }

// Exists reports whether the key is present.
func (it Item[T]) Exists() (bool, error) { return it.Store.Contains(it.Key) }

// Memoize wraps fn so that results are persisted in s under keyFn(arg) and
// served from s on later calls.
func Memoize[A, T any](s Store, keyFn func(A) string, fn func(A) (T, error)) func(A) (T, error) {
	return func(arg A) (T, error) {
		it := NewItem[T](s, keyFn(arg))
		return it.GetOrCompute(func(string) (T, error) { return fn(arg) }, true)
	}
}
