package store

import (
	"errors"
	"fmt"
	"iter"
	"regexp"
)

// Get loads key from s and decodes it with the store's codec.
func Get[T any](s Store, key string) (T, error) {
	var v T
	data, err := s.LoadRaw(key)
	if err != nil {
		return v, err
	}
	if err := CodecOf(s).Decode(data, &v); err != nil {
		return v, fmt.Errorf("store: decode %q: %w", key, err)
	}
	return v, nil
}

// GetOr is Get with a fallback for missing keys. Only ErrNotFound is
// swallowed; every other failure is returned.
func GetOr[T any](s Store, key string, def T) (T, error) {
	v, err := Get[T](s, key)
	if errors.Is(err, ErrNotFound) {
		return def, nil
	}
	return v, err
}

// Set encodes v with the store's codec and stores it under key.
func Set[T any](s Store, key string, v T) error {
	data, err := CodecOf(s).Encode(v)
	if err != nil {
		return fmt.Errorf("store: encode %q: %w", key, err)
	}
	return s.StoreRaw(key, data)
}

// Update sets every entry of the sequence in iteration order. It is not
// atomic: entries written before a failure stay written.
func Update[T any](s Store, entries iter.Seq2[string, T]) error {
	for k, v := range entries {
		if err := Set(s, k, v); err != nil {
			return err
		}
	}
	return nil
}

// Entry is a decoded key/value pair produced by Items.
type Entry[T any] struct {
	Key   string
	Value T
}

// Items yields every key with its decoded value. Keys that disappear
// between listing and loading are skipped; any other failure is yielded
// and ends the sequence.
func Items[T any](s Store) iter.Seq2[Entry[T], error] {
	return func(yield func(Entry[T], error) bool) {
		for k, err := range s.Keys() {
			if err != nil {
				yield(Entry[T]{}, err)
				return
			}
			v, err := Get[T](s, k)
			if errors.Is(err, ErrNotFound) {
				continue
			}
			if err != nil {
				yield(Entry[T]{Key: k}, err)
				return
			}
			if !yield(Entry[T]{Key: k, Value: v}, nil) {
				return
			}
		}
	}
}

// Match yields the keys of s matching pattern, anchored at the start of the key.
func Match(s Store, pattern string) (iter.Seq2[string, error], error) {
	re, err := regexp.Compile(`^(?:` + pattern + `)`)
	if err != nil {
		return nil, fmt.Errorf("store: match pattern: %w", err)
	}
	return MatchRegexp(s, re), nil
}

// MatchRegexp yields the keys of s for which re.FindStringIndex reports a
// match at offset zero.
func MatchRegexp(s Store, re *regexp.Regexp) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		for k, err := range s.Keys() {
			if err != nil {
				yield("", err)
				return
			}
			if loc := re.FindStringIndex(k); loc == nil || loc[0] != 0 {
				continue
			}
			if !yield(k, nil) {
				return
			}
		}
	}
}

// DeleteKeys deletes each key in turn and stops at the first error.
func DeleteKeys(s Store, keys ...string) error {
	for _, k := range keys {
		if err := s.Delete(k); err != nil {
			return err
		}
	}
	return nil
}

// Siphon copies every key of src into dst. Keys already present in dst are
// left alone unless overwrite is set. A source key that vanishes before it
// is copied is skipped. Raw bytes are copied, so both stores should share a codec.
func Siphon(dst, src Store, overwrite bool) error {
	keys, err := KeySlice(src)
	if err != nil {
		return fmt.Errorf("store: siphon list: %w", err)
	}

	for _, k := range keys {
		if !overwrite {
			ok, err := dst.Contains(k)
			if err != nil {
				return err
			}
			if ok {
				continue
			}
		}

		data, err := src.LoadRaw(k)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return err
		}
		if err := dst.StoreRaw(k, data); err != nil {
			return err
		}
	}
	return nil
}

// Sync fills the gaps of a from b and then of b from a. Keys present on
// both sides are never overwritten.
func Sync(a, b Store) error {
	if err := Siphon(a, b, false); err != nil {
		return err
	}
	return Siphon(b, a, false)
}
