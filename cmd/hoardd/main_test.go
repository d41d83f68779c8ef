package main

import (
	"bytes"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitfsorg/hoard-go/fsstore"
	"github.com/bitfsorg/hoard-go/remote"
	"github.com/bitfsorg/hoard-go/store"
)

func TestOpenStores(t *testing.T) {
	dir := t.TempDir()

	flat, err := createStore(filepath.Join(dir, "flat"), -1, fsstore.Options{})
	require.NoError(t, err)
	require.NoError(t, flat.StoreRaw("k", []byte("v")))

	_, err = createStore(filepath.Join(dir, "hashed"), 2, fsstore.Options{Codec: "json"})
	require.NoError(t, err)

	require.NoError(t, os.Mkdir(filepath.Join(dir, "scratch"), 0o700))

	stores, err := openStores(dir, true, slog.Default())
	require.NoError(t, err)
	require.Len(t, stores, 2)

	assert.Equal(t, "json", store.CodecOf(stores["hashed"]).Name())
	assert.ErrorIs(t, stores["flat"].StoreRaw("k", []byte("w")), store.ErrReadOnly)

	data, err := stores["flat"].LoadRaw("k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), data)
}

func TestKeysCommand(t *testing.T) {
	mem := store.NewMemory()
	require.NoError(t, mem.StoreRaw("only", []byte("1")))

	srv, err := remote.Listen("127.0.0.1:0", map[string]store.Store{"foo": mem})
	require.NoError(t, err)
	defer srv.Stop()
	port := srv.Addr().(*net.TCPAddr).Port

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"keys", "foo@" + net.JoinHostPort("127.0.0.1", strconv.Itoa(port))})
	require.NoError(t, rootCmd.Execute())
	assert.Equal(t, "only\n", out.String())
}

func TestCreateCommand(t *testing.T) {
	dir := t.TempDir()

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"create", "--datadir", dir, "--depth", "1", "--compression", "gzip", "pics"})
	require.NoError(t, rootCmd.Execute())
	assert.Contains(t, out.String(), "depth 1")

	s, err := fsstore.OpenHashed(filepath.Join(dir, "pics"))
	require.NoError(t, err)
	assert.Equal(t, fsstore.CompressGZIP, s.Config().Compression)
}
