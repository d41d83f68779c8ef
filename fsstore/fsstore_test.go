package fsstore

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitfsorg/hoard-go/store"
	"github.com/bitfsorg/hoard-go/store/storetest"
)

func newHashed(t *testing.T, depth int, opts Options) *Store {
	t.Helper()
	s, err := CreateHashed(filepath.Join(t.TempDir(), "hashed"), depth, opts)
	require.NoError(t, err)
	return s
}

func TestFlatConformance(t *testing.T) {
	s, err := CreateFlat(filepath.Join(t.TempDir(), "flat"), Options{})
	require.NoError(t, err)
	storetest.Run(t, s)
}

func TestHashedConformance(t *testing.T) {
	for _, depth := range []int{0, 1, 3} {
		t.Run(strings.Repeat("d", depth+1), func(t *testing.T) {
			storetest.Run(t, newHashed(t, depth, Options{}))
		})
	}
}

func TestCompressedConformance(t *testing.T) {
	for _, scheme := range []string{CompressGZIP, CompressLZW} {
		t.Run(scheme, func(t *testing.T) {
			storetest.Run(t, newHashed(t, 2, Options{Compression: scheme}))
		})
	}
}

func TestEncodeKey(t *testing.T) {
	token, err := EncodeKey("alpha")
	require.NoError(t, err)
	assert.NotContains(t, token, "/")

	key, err := DecodeKey(token)
	require.NoError(t, err)
	assert.Equal(t, "alpha", key)

	_, err = EncodeKey("")
	assert.ErrorIs(t, err, store.ErrInvalidKey)

	_, err = DecodeKey("0OIl")
	assert.ErrorIs(t, err, store.ErrInvalidKey)
}

func TestShardPath(t *testing.T) {
	token, err := EncodeKey("alpha")
	require.NoError(t, err)

	assert.Empty(t, ShardPath(token, 0))

	segs := ShardPath(token, 3)
	require.Len(t, segs, 3)
	assert.Equal(t, segs, ShardPath(token, 3), "sharding must be deterministic")
	assert.Equal(t, segs[:2], ShardPath(token, 2), "shallower paths are prefixes")
	for _, seg := range segs {
		assert.Regexp(t, `^[0-9]{1,2}$`, seg)
	}
}

func TestHashedLayout(t *testing.T) {
	s := newHashed(t, 2, Options{})

	require.NoError(t, s.StoreRaw("alpha", []byte("1")))
	require.NoError(t, s.StoreRaw("beta", []byte("2")))

	for _, key := range []string{"alpha", "beta"} {
		token, err := EncodeKey(key)
		require.NoError(t, err)
		segs := ShardPath(token, 2)
		want := filepath.Join(append(append([]string{s.Root(), "data"}, segs...), token)...)
		_, err = os.Stat(want)
		assert.NoError(t, err, "value for %q at %s", key, want)
	}

	keys, err := store.KeySlice(s)
	require.NoError(t, err)
	sort.Strings(keys)
	assert.Equal(t, []string{"alpha", "beta"}, keys)

	data, err := s.LoadRaw("beta")
	require.NoError(t, err)
	assert.Equal(t, []byte("2"), data)
}

func TestKeysIgnoresTempAndForeignFiles(t *testing.T) {
	s, err := CreateFlat(filepath.Join(t.TempDir(), "flat"), Options{})
	require.NoError(t, err)

	require.NoError(t, s.StoreRaw("kept", []byte("v1")))

	// A crash between write and rename leaves a partial dot-prefixed sibling.
	path, err := s.Path("kept")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(tempPath(path), []byte("v2-parti"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(filepath.Dir(path), "0bad"), nil, 0o600))

	keys, err := store.KeySlice(s)
	require.NoError(t, err)
	assert.Equal(t, []string{"kept"}, keys)

	data, err := s.LoadRaw("kept")
	require.NoError(t, err)
	assert.Equal(t, []byte("v1"), data)
}

func TestAtomicWriteLeavesNoTemp(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "target")

	require.NoError(t, atomicWrite(path, []byte("one"), 0o600))
	require.NoError(t, atomicWrite(path, []byte("two"), 0o600))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "target", entries[0].Name())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte("two"), data)
}

func TestAtomicWriteFailureRemovesTemp(t *testing.T) {
	dir := t.TempDir()
	// Renaming a file over a non-empty directory fails.
	target := filepath.Join(dir, "target")
	require.NoError(t, os.MkdirAll(filepath.Join(target, "child"), 0o700))

	assert.Error(t, atomicWrite(target, []byte("data"), 0o600))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "target", entries[0].Name())
}

func TestCreateExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "s")

	s, err := CreateFlat(path, Options{})
	require.NoError(t, err)
	require.NoError(t, s.StoreRaw("foo", []byte("bar")))

	_, err = CreateFlat(path, Options{})
	assert.ErrorIs(t, err, store.ErrAlreadyExists)

	s, err = CreateHashed(path, 1, Options{Overwrite: true})
	require.NoError(t, err)
	ok, err := s.Contains("foo")
	require.NoError(t, err)
	assert.False(t, ok, "overwrite must start from an empty tree")
}

func TestCreateInvalid(t *testing.T) {
	dir := t.TempDir()

	_, err := CreateHashed(filepath.Join(dir, "a"), -1, Options{})
	assert.ErrorIs(t, err, ErrInvalidDepth)

	_, err = CreateFlat(filepath.Join(dir, "b"), Options{Compression: "zstd"})
	assert.ErrorIs(t, err, ErrUnsupportedCompression)

	_, err = CreateFlat(filepath.Join(dir, "c"), Options{Codec: "nope"})
	assert.Error(t, err)
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()
	flatPath := filepath.Join(dir, "flat")
	hashedPath := filepath.Join(dir, "hashed")

	flat, err := CreateFlat(flatPath, Options{Codec: "json", Compression: CompressGZIP})
	require.NoError(t, err)
	require.NoError(t, store.Set(flat, "answer", 42))

	_, err = CreateHashed(hashedPath, 2, Options{})
	require.NoError(t, err)

	reopened, err := Open(flatPath)
	require.NoError(t, err)
	assert.False(t, reopened.Config().Sharded())
	assert.Equal(t, "json", reopened.Codec().Name())
	v, err := store.Get[int](reopened, "answer")
	require.NoError(t, err)
	assert.Equal(t, 42, v)

	h, err := OpenHashed(hashedPath)
	require.NoError(t, err)
	assert.Equal(t, 2, h.Depth())

	_, err = OpenHashed(flatPath)
	assert.ErrorIs(t, err, ErrLayoutMismatch)
	_, err = OpenFlat(hashedPath)
	assert.ErrorIs(t, err, ErrLayoutMismatch)

	_, err = Open(filepath.Join(dir, "missing"))
	assert.ErrorIs(t, err, ErrInvalidRoot)
	assert.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "junk"), nil, 0o600))
	_, err = Open(filepath.Join(dir, "junk"))
	assert.ErrorIs(t, err, ErrInvalidRoot)

	require.NoError(t, os.MkdirAll(filepath.Join(dir, "noconfig"), 0o700))
	_, err = Open(filepath.Join(dir, "noconfig"))
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestPartition(t *testing.T) {
	s := newHashed(t, 1, Options{})
	p := s.Partition("thumbs")

	keys, err := store.KeySlice(p)
	require.NoError(t, err)
	assert.Empty(t, keys, "unused partition lists nothing")

	require.NoError(t, s.StoreRaw("foo", []byte("main")))
	require.NoError(t, p.StoreRaw("foo", []byte("thumb")))

	data, err := s.LoadRaw("foo")
	require.NoError(t, err)
	assert.Equal(t, []byte("main"), data)

	data, err = p.LoadRaw("foo")
	require.NoError(t, err)
	assert.Equal(t, []byte("thumb"), data)

	_, err = os.Stat(filepath.Join(s.Root(), "data.thumbs"))
	assert.NoError(t, err)
}

func TestLocalPath(t *testing.T) {
	s := newHashed(t, 2, Options{})

	err := store.AsFile(s, "doc", "", func(path string) error {
		assert.True(t, strings.HasPrefix(path, s.Root()), "uncompressed stores hand out their own file")
		return os.WriteFile(path, []byte("direct"), 0o600)
	})
	require.NoError(t, err)

	data, err := s.LoadRaw("doc")
	require.NoError(t, err)
	assert.Equal(t, []byte("direct"), data)

	gz := newHashed(t, 0, Options{Compression: CompressGZIP})
	_, ok := gz.LocalPath("doc")
	assert.False(t, ok)
}

func TestCompressionOnDisk(t *testing.T) {
	s := newHashed(t, 1, Options{Compression: CompressGZIP})
	payload := []byte(strings.Repeat("hoard ", 200))
	require.NoError(t, s.StoreRaw("big", payload))

	path, err := s.Path("big")
	require.NoError(t, err)
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Less(t, len(raw), len(payload))

	data, err := s.LoadRaw("big")
	require.NoError(t, err)
	assert.Equal(t, payload, data)
}
