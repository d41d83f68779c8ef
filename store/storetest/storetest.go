// Package storetest holds a conformance suite that every store.Store
// implementation in this module runs from its own tests.
package storetest

import (
	"fmt"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitfsorg/hoard-go/store"
)

// Run exercises the store contract on an empty, writable store.
func Run(t *testing.T, s store.Store) {
	t.Helper()

	t.Run("MissingKey", func(t *testing.T) {
		ok, err := s.Contains("foo")
		require.NoError(t, err)
		assert.False(t, ok)

		_, err = s.LoadRaw("foo")
		assert.ErrorIs(t, err, store.ErrNotFound)

		assert.ErrorIs(t, s.Delete("foo"), store.ErrNotFound)
	})

	t.Run("SetGetDelete", func(t *testing.T) {
		require.NoError(t, s.StoreRaw("foo", []byte("one two three")))

		data, err := s.LoadRaw("foo")
		require.NoError(t, err)
		assert.Equal(t, []byte("one two three"), data)

		ok, err := s.Contains("foo")
		require.NoError(t, err)
		assert.True(t, ok)

		require.NoError(t, s.StoreRaw("bar", []byte{4, 2, 0}))
		data, err = s.LoadRaw("bar")
		require.NoError(t, err)
		assert.Equal(t, []byte{4, 2, 0}, data)

		require.NoError(t, s.Delete("bar"))
		ok, err = s.Contains("bar")
		require.NoError(t, err)
		assert.False(t, ok)

		_, err = s.LoadRaw("bar")
		assert.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("Overwrite", func(t *testing.T) {
		require.NoError(t, s.StoreRaw("over", []byte("original")))
		require.NoError(t, s.StoreRaw("over", []byte("overwritten")))

		data, err := s.LoadRaw("over")
		require.NoError(t, err)
		assert.Equal(t, []byte("overwritten"), data)
	})

	t.Run("Keys", func(t *testing.T) {
		want := []string{"foo", "over"}
		for i, w := range []string{"the", "quick", "brown", "fox", "dir0/item0"} {
			require.NoError(t, s.StoreRaw(w, []byte(fmt.Sprint(i))))
			want = append(want, w)
		}

		got, err := store.KeySlice(s)
		require.NoError(t, err)
		sort.Strings(got)
		sort.Strings(want)
		assert.Equal(t, want, got)

		again, err := store.KeySlice(s)
		require.NoError(t, err)
		assert.Len(t, again, len(want), "Keys must be restartable")
	})
}
