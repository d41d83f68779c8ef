package store_test

import (
	"errors"
	"io"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitfsorg/hoard-go/store"
)

func newTextStore(t *testing.T) *store.Memory {
	t.Helper()
	m, err := store.NewMemoryWithCodec("text")
	require.NoError(t, err)
	return m
}

func TestAsFile_ReadsCurrentValue(t *testing.T) {
	m := newTextStore(t)
	require.NoError(t, store.Set(m, "hash", "foo"))

	err := store.AsFile(m, "hash", "", func(path string) error {
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "foo", string(data))
		return nil
	})
	require.NoError(t, err)
}

func TestAsFile_WritesBackChanges(t *testing.T) {
	m := newTextStore(t)
	require.NoError(t, store.Set(m, "k", "before"))

	err := store.AsFile(m, "k", t.TempDir(), func(path string) error {
		return os.WriteFile(path, []byte("after"), 0o600)
	})
	require.NoError(t, err)

	v, err := store.Get[string](m, "k")
	require.NoError(t, err)
	assert.Equal(t, "after", v)
}

func TestAsFile_WritesBackOnFailure(t *testing.T) {
	m := newTextStore(t)
	boom := errors.New("boom")

	err := store.AsFile(m, "k", "", func(path string) error {
		require.NoError(t, os.WriteFile(path, []byte("partial"), 0o600))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	v, err := store.Get[string](m, "k")
	require.NoError(t, err)
	assert.Equal(t, "partial", v)
}

func TestAsFile_WritesBackOnPanic(t *testing.T) {
	m := newTextStore(t)

	assert.Panics(t, func() {
		_ = store.AsFile(m, "k", "", func(path string) error {
			_ = os.WriteFile(path, []byte("panicked"), 0o600)
			panic("boom")
		})
	})

	v, err := store.Get[string](m, "k")
	require.NoError(t, err)
	assert.Equal(t, "panicked", v)
}

func TestAsFile_UntouchedMissingKey(t *testing.T) {
	m := newTextStore(t)
	require.NoError(t, store.AsFile(m, "absent", "", func(string) error { return nil }))

	ok, err := m.Contains("absent")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestOpen(t *testing.T) {
	m := newTextStore(t)

	err := store.Open(m, "direct", os.O_WRONLY|os.O_CREATE|os.O_TRUNC, func(f *os.File) error {
		_, err := f.WriteString("bar")
		return err
	})
	require.NoError(t, err)

	v, err := store.Get[string](m, "direct")
	require.NoError(t, err)
	assert.Equal(t, "bar", v)

	err = store.Open(m, "direct", os.O_RDONLY, func(f *os.File) error {
		data, err := io.ReadAll(f)
		assert.Equal(t, "bar", string(data))
		return err
	})
	require.NoError(t, err)
}

func TestOpen_MissingKey(t *testing.T) {
	m := newTextStore(t)

	called := false
	err := store.Open(m, "missing", os.O_RDONLY, func(*os.File) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.NotErrorIs(t, err, store.ErrStorageFault)
	assert.False(t, called)

	ok, err := m.Contains("missing")
	require.NoError(t, err)
	assert.False(t, ok)
}
