package cache

import (
	"sort"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitfsorg/hoard-go/store"
	"github.com/bitfsorg/hoard-go/store/storetest"
)

// countingStore records how often values are fetched from the wrapped store.
type countingStore struct {
	*store.Memory
	loads atomic.Int64
}

func newCounting() *countingStore { return &countingStore{Memory: store.NewMemory()} }

func (c *countingStore) LoadRaw(key string) ([]byte, error) {
	c.loads.Add(1)
	return c.Memory.LoadRaw(key)
}

func TestCacheConformance(t *testing.T) {
	storetest.Run(t, New(store.NewMemory(), nil))
}

func TestCacheReadThrough(t *testing.T) {
	base := newCounting()
	require.NoError(t, base.StoreRaw("foo", []byte("bar")))

	c := New(base, nil)
	for range 3 {
		data, err := c.LoadRaw("foo")
		require.NoError(t, err)
		assert.Equal(t, []byte("bar"), data)
	}
	assert.Equal(t, int64(1), base.loads.Load(), "base is fetched once")

	ok, err := c.Front().Contains("foo")
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = c.LoadRaw("missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestCacheWriteThrough(t *testing.T) {
	base, front := newCounting(), store.NewMemory()
	c := New(base, front)

	require.NoError(t, c.StoreRaw("k", []byte("v")))

	data, err := c.LoadRaw("k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), data)
	assert.Equal(t, int64(0), base.loads.Load(), "a read after a write is served by the front store")

	for _, s := range []store.Store{base.Memory, front} {
		data, err := s.LoadRaw("k")
		require.NoError(t, err)
		assert.Equal(t, []byte("v"), data)
	}
}

func TestCacheStaleAfterExternalWrite(t *testing.T) {
	base := newCounting()
	c := New(base, nil)

	require.NoError(t, c.StoreRaw("k", []byte("old")))
	require.NoError(t, base.StoreRaw("k", []byte("new")))

	data, err := c.LoadRaw("k")
	require.NoError(t, err)
	assert.Equal(t, []byte("old"), data, "writes that bypass the cache are not seen")
	assert.Equal(t, int64(0), base.loads.Load())
}

func TestCacheDelete(t *testing.T) {
	base, front := store.NewMemory(), store.NewMemory()
	c := New(base, front)

	// Present in base only: front miss is ignored.
	require.NoError(t, base.StoreRaw("k", []byte("v")))
	require.NoError(t, c.Delete("k"))
	assert.Equal(t, 0, base.Len())

	// Present in front only: front is cleared, base result is returned.
	require.NoError(t, front.StoreRaw("stale", []byte("v")))
	assert.ErrorIs(t, c.Delete("stale"), store.ErrNotFound)
	assert.Equal(t, 0, front.Len())
}

func TestCacheReconcile(t *testing.T) {
	base, front := store.NewMemory(), store.NewMemory()
	c := New(base, front)

	require.NoError(t, c.StoreRaw("kept", []byte("1")))
	require.NoError(t, c.StoreRaw("gone", []byte("2")))
	require.NoError(t, base.Delete("gone"))

	n, err := c.Reconcile()
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	keys, err := store.KeySlice(front)
	require.NoError(t, err)
	assert.Equal(t, []string{"kept"}, keys)
}

func TestBoundedConformance(t *testing.T) {
	b, err := NewBounded(store.NewMemory(), nil, nil, 100)
	require.NoError(t, err)
	storetest.Run(t, b)
}

func TestBoundedEviction(t *testing.T) {
	const capacity, extra = 3, 2

	base, front := newCounting(), store.NewMemory()
	b, err := NewBounded(base, front, nil, capacity)
	require.NoError(t, err)

	keys := []string{"k0", "k1", "k2", "k3", "k4"}
	require.Len(t, keys, capacity+extra)
	for _, k := range keys {
		require.NoError(t, b.StoreRaw(k, []byte(k)))
	}

	assert.Equal(t, capacity, front.Len())
	assert.Equal(t, capacity+extra, base.Len(), "eviction never touches base")

	tracked, err := b.Tracked()
	require.NoError(t, err)
	assert.Equal(t, []string{"k2", "k3", "k4"}, tracked)

	// Reading an evicted key refills front and evicts the oldest survivor.
	data, err := b.LoadRaw("k0")
	require.NoError(t, err)
	assert.Equal(t, []byte("k0"), data)
	assert.Equal(t, int64(1), base.loads.Load())

	tracked, err = b.Tracked()
	require.NoError(t, err)
	assert.Equal(t, []string{"k3", "k4", "k0"}, tracked)

	ok, err := front.Contains("k2")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, capacity, front.Len())
}

func TestBoundedDelete(t *testing.T) {
	base, front := store.NewMemory(), store.NewMemory()
	b, err := NewBounded(base, front, nil, 10)
	require.NoError(t, err)

	require.NoError(t, b.StoreRaw("k", []byte("v")))
	require.NoError(t, b.Delete("k"))

	tracked, err := b.Tracked()
	require.NoError(t, err)
	assert.Empty(t, tracked)
	assert.Equal(t, 0, base.Len())
	assert.Equal(t, 0, front.Len())

	assert.ErrorIs(t, b.Delete("k"), store.ErrNotFound)
}

func TestBoundedInvalidCapacity(t *testing.T) {
	_, err := NewBounded(store.NewMemory(), nil, nil, 0)
	assert.Error(t, err)
}

func TestBoundedScoresIncrease(t *testing.T) {
	b, err := NewBounded(store.NewMemory(), nil, nil, 1)
	require.NoError(t, err)

	prev := b.nextScore()
	for range 1000 {
		next := b.nextScore()
		require.Greater(t, next, prev)
		prev = next
	}
}

func TestMemoryIndex(t *testing.T) {
	idx := NewMemoryIndex()
	require.NoError(t, idx.Touch("a", 1))
	require.NoError(t, idx.Touch("b", 2))
	require.NoError(t, idx.Touch("c", 3))
	require.NoError(t, idx.Touch("a", 4))

	n, err := idx.Count()
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	members, err := idx.Members()
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c", "a"}, members)

	popped, err := idx.PopMin(2)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c"}, popped)

	require.NoError(t, idx.Remove("a"))
	require.NoError(t, idx.Remove("absent"))

	popped, err = idx.PopMin(5)
	require.NoError(t, err)
	assert.Empty(t, popped)
}

func TestMemoryIndexCompacts(t *testing.T) {
	idx := NewMemoryIndex()
	for i := range 1000 {
		require.NoError(t, idx.Touch("k", float64(i)))
	}
	assert.LessOrEqual(t, len(idx.heap), 2*1+64+1)

	popped, err := idx.PopMin(1)
	require.NoError(t, err)
	assert.Equal(t, []string{"k"}, popped)
}

func TestLRUConformance(t *testing.T) {
	l, err := NewLRU(store.NewMemory(), 16)
	require.NoError(t, err)
	storetest.Run(t, l)
}

func TestLRUMemoises(t *testing.T) {
	base := newCounting()
	for _, k := range []string{"a", "b", "c"} {
		require.NoError(t, base.StoreRaw(k, []byte(k)))
	}

	l, err := NewLRU(base, 2)
	require.NoError(t, err)

	for range 3 {
		_, err := l.LoadRaw("a")
		require.NoError(t, err)
	}
	assert.Equal(t, int64(1), base.loads.Load())

	_, err = l.LoadRaw("b")
	require.NoError(t, err)
	_, err = l.LoadRaw("c")
	require.NoError(t, err)
	assert.Equal(t, 2, l.Len())

	// "a" was least recently used and has been dropped.
	_, err = l.LoadRaw("a")
	require.NoError(t, err)
	assert.Equal(t, int64(4), base.loads.Load())

	require.NoError(t, l.Delete("a"))
	_, err = l.LoadRaw("a")
	assert.ErrorIs(t, err, store.ErrNotFound)

	l.Purge()
	assert.Equal(t, 0, l.Len())

	keys, err := store.KeySlice(l)
	require.NoError(t, err)
	sort.Strings(keys)
	assert.Equal(t, []string{"b", "c"}, keys)
}

func TestLRUInvalidSize(t *testing.T) {
	_, err := NewLRU(store.NewMemory(), 0)
	assert.Error(t, err)
}
