// Package fsstore implements filesystem-backed stores. A flat store keeps
// every value directly under its data directory; a hashed store spreads
// values across depth levels of numbered directories derived from SHA-1.
package fsstore

import (
	"errors"
	"fmt"
	"io/fs"
	"iter"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/bitfsorg/hoard-go/codec"
	"github.com/bitfsorg/hoard-go/store"
)

const (
	dataDir  = "data"
	filePerm = 0o600
	dirPerm  = 0o700
)

// Options configures store creation.
type Options struct {
	// Codec names the value codec; defaults to codec.Default.
	Codec string
	// Compression is one of CompressNone, CompressGZIP, CompressLZW.
	Compression string
	// Overwrite removes an existing tree at the target path.
	Overwrite bool
	Logger    *slog.Logger
}

// Store is a filesystem-backed store. The zero value is not usable; obtain
// one through CreateFlat, CreateHashed or one of the Open functions.
type Store struct {
	root      string
	partition string
	cfg       Config
	codec     codec.Codec
	logger    *slog.Logger
}

var (
	_ store.Store      = (*Store)(nil)
	_ store.Coded      = (*Store)(nil)
	_ store.LocalFiler = (*Store)(nil)
)

// CreateFlat initialises a flat store at path.
func CreateFlat(path string, opts Options) (*Store, error) {
	return create(path, nil, opts)
}

// CreateHashed initialises a hashed store at path with the given shard depth.
func CreateHashed(path string, depth int, opts Options) (*Store, error) {
	if depth < 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidDepth, depth)
	}
	return create(path, &depth, opts)
}

func create(path string, depth *int, opts Options) (*Store, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	cfg := Config{Compression: opts.Compression, Codec: opts.Codec, Depth: depth}
	if cfg.Codec == "" {
		cfg.Codec = codec.Default
	}
	var err error
	if cfg.Compression, err = normalizeCompression(cfg.Compression); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	if _, err := os.Stat(path); err == nil {
		if !opts.Overwrite {
			return nil, fmt.Errorf("%w: %s", store.ErrAlreadyExists, path)
		}
		logger.Warn("overwriting existing store", "path", path)
		if err := os.RemoveAll(path); err != nil {
			return nil, fmt.Errorf("%w: remove %s: %w", store.ErrStorageFault, path, err)
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %w", store.ErrStorageFault, err)
	}

	if err := os.MkdirAll(filepath.Join(path, dataDir), dirPerm); err != nil {
		return nil, fmt.Errorf("%w: create %s: %w", store.ErrStorageFault, path, err)
	}
	if err := writeConfig(path, cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", store.ErrStorageFault, err)
	}

	logger.Debug("created store", "path", path, "sharded", cfg.Sharded(), "codec", cfg.Codec)
	return newStore(path, cfg, logger)
}

// Open opens an existing store, choosing flat or hashed from its config.
func Open(path string) (*Store, error) {
	return OpenWithLogger(path, nil)
}

// OpenWithLogger is Open with an explicit logger.
func OpenWithLogger(path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %w: %s", ErrInvalidRoot, store.ErrNotFound, path)
		}
		return nil, fmt.Errorf("%w: %w", ErrInvalidRoot, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrInvalidRoot, path)
	}

	cfg, err := readConfig(path)
	if err != nil {
		return nil, err
	}
	return newStore(path, cfg, logger)
}

// OpenFlat opens an existing flat store.
func OpenFlat(path string) (*Store, error) {
	s, err := Open(path)
	if err != nil {
		return nil, err
	}
	if s.cfg.Sharded() {
		return nil, fmt.Errorf("%w: %s is hashed", ErrLayoutMismatch, path)
	}
	return s, nil
}

// OpenHashed opens an existing hashed store.
func OpenHashed(path string) (*Store, error) {
	s, err := Open(path)
	if err != nil {
		return nil, err
	}
	if !s.cfg.Sharded() {
		return nil, fmt.Errorf("%w: %s is flat", ErrLayoutMismatch, path)
	}
	return s, nil
}

func newStore(root string, cfg Config, logger *slog.Logger) (*Store, error) {
	c, err := codec.Get(cfg.Codec)
	if err != nil {
		return nil, err
	}
	return &Store{root: root, cfg: cfg, codec: c, logger: logger}, nil
}

// Partition returns a store of the same kind over data.<name>. Partitions
// share the root config and are otherwise independent.
func (s *Store) Partition(name string) *Store {
	p := *s
	p.partition = name
	return &p
}

// Root returns the store root directory.
func (s *Store) Root() string { return s.root }

// Config returns the store configuration.
func (s *Store) Config() Config { return s.cfg }

// Codec returns the store's value codec.
func (s *Store) Codec() codec.Codec { return s.codec }

// Depth returns the shard depth, or 0 for a flat store.
func (s *Store) Depth() int {
	if s.cfg.Depth == nil {
		return 0
	}
	return *s.cfg.Depth
}

func (s *Store) dataRoot() string {
	if s.partition == "" {
		return filepath.Join(s.root, dataDir)
	}
	return filepath.Join(s.root, dataDir+"."+s.partition)
}

// Path returns the file path that holds key.
func (s *Store) Path(key string) (string, error) {
	token, err := EncodeKey(key)
	if err != nil {
		return "", err
	}
	parts := append([]string{s.dataRoot()}, ShardPath(token, s.Depth())...)
	parts = append(parts, token)
	return filepath.Join(parts...), nil
}

// LoadRaw reads and decompresses the value stored under key.
func (s *Store) LoadRaw(key string) ([]byte, error) {
	path, err := s.Path(key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %q", store.ErrNotFound, key)
		}
		return nil, fmt.Errorf("%w: read %q: %w", store.ErrStorageFault, key, err)
	}
	plain, err := Decompress(data, s.cfg.Compression)
	if err != nil {
		return nil, fmt.Errorf("%w: decompress %q: %w", store.ErrStorageFault, key, err)
	}
	return plain, nil
}

// StoreRaw compresses data and writes it atomically under key.
func (s *Store) StoreRaw(key string, data []byte) error {
	path, err := s.Path(key)
	if err != nil {
		return err
	}
	packed, err := Compress(data, s.cfg.Compression)
	if err != nil {
		return fmt.Errorf("%w: compress %q: %w", store.ErrStorageFault, key, err)
	}
	if err := os.MkdirAll(filepath.Dir(path), dirPerm); err != nil {
		return fmt.Errorf("%w: mkdir for %q: %w", store.ErrStorageFault, key, err)
	}
	if err := atomicWrite(path, packed, filePerm); err != nil {
		return fmt.Errorf("%w: write %q: %w", store.ErrStorageFault, key, err)
	}
	return nil
}

// Delete removes key.
func (s *Store) Delete(key string) error {
	path, err := s.Path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %q", store.ErrNotFound, key)
		}
		return fmt.Errorf("%w: delete %q: %w", store.ErrStorageFault, key, err)
	}
	return nil
}

// Contains reports whether key has a file on disk.
func (s *Store) Contains(key string) (bool, error) {
	path, err := s.Path(key)
	if err != nil {
		return false, err
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("%w: stat %q: %w", store.ErrStorageFault, key, err)
	}
	return true, nil
}

// LocalPath returns the on-disk path of key when values are stored
// uncompressed, creating parent directories as needed.
func (s *Store) LocalPath(key string) (string, bool) {
	if s.cfg.Compression != CompressNone {
		return "", false
	}
	path, err := s.Path(key)
	if err != nil {
		return "", false
	}
	if err := os.MkdirAll(filepath.Dir(path), dirPerm); err != nil {
		s.logger.Warn("local path unavailable", "key", key, "error", err)
		return "", false
	}
	return path, true
}

// Keys walks the data directory and yields decoded keys. Dot-prefixed
// entries (temp files) and names that are not valid tokens are skipped.
func (s *Store) Keys() iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		root := s.dataRoot()
		depth := s.Depth()

		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				if path == root && errors.Is(err, fs.ErrNotExist) {
					return filepath.SkipAll
				}
				return err
			}
			if path == root {
				return nil
			}

			rel, err := filepath.Rel(root, path)
			if err != nil {
				return err
			}
			level := strings.Count(rel, string(filepath.Separator))

			if d.IsDir() {
				if level >= depth {
					return filepath.SkipDir
				}
				return nil
			}
			if level != depth || strings.HasPrefix(d.Name(), ".") {
				return nil
			}

			key, err := DecodeKey(d.Name())
			if err != nil {
				s.logger.Debug("skipping foreign file", "path", path)
				return nil
			}
			if !yield(key, nil) {
				return filepath.SkipAll
			}
			return nil
		})
		if err != nil {
			yield("", fmt.Errorf("%w: walk %s: %w", store.ErrStorageFault, root, err))
		}
	}
}
