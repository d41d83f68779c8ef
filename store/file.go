package store

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// LocalFiler is implemented by stores whose values already live in plain
// local files. AsFile hands such paths out directly instead of copying.
type LocalFiler interface {
	// LocalPath returns the file backing key and whether it may be used directly.
	LocalPath(key string) (string, bool)
}

// AsFile materialises the current value of key as a local file, calls fn
// with its path and writes the file back when fn created or changed it.
// The write-back runs on every exit path, including an error or panic in fn.
// An empty workdir means a fresh temporary directory that is removed afterwards.
func AsFile(s Store, key, workdir string, fn func(path string) error) (err error) {
	if lf, ok := s.(LocalFiler); ok {
		if p, ok := lf.LocalPath(key); ok {
			return fn(p)
		}
	}

	if workdir == "" {
		dir, err := os.MkdirTemp("", "hoard-*")
		if err != nil {
			return fmt.Errorf("%w: %w", ErrStorageFault, err)
		}
		defer os.RemoveAll(dir)
		workdir = dir
	}
	path := filepath.Join(workdir, "hoardfile")

	existed := true
	original, err := s.LoadRaw(key)
	if errors.Is(err, ErrNotFound) {
		existed = false
	} else if err != nil {
		return err
	}

	if existed {
		if err := os.WriteFile(path, original, 0o600); err != nil {
			return fmt.Errorf("%w: %w", ErrStorageFault, err)
		}
	} else if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("%w: %w", ErrStorageFault, err)
	}

	defer func() {
		if werr := writeBack(s, key, path, existed, original); werr != nil && err == nil {
			err = werr
		}
	}()

	return fn(path)
}

func writeBack(s Store, key, path string, existed bool, original []byte) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("%w: %w", ErrStorageFault, err)
	}
	if existed && bytes.Equal(data, original) {
		return nil
	}
	return s.StoreRaw(key, data)
}

// Open opens the file backing key with the given os.OpenFile flags and
// passes it to fn. Parent directories are created as needed. Opening a
// missing key without os.O_CREATE fails with ErrNotFound.
func Open(s Store, key string, flag int, fn func(f *os.File) error) error {
	return AsFile(s, key, "", func(path string) error {
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return fmt.Errorf("%w: %w", ErrStorageFault, err)
		}
		f, err := os.OpenFile(path, flag, 0o600)
		if errors.Is(err, fs.ErrNotExist) && flag&os.O_CREATE == 0 {
			return fmt.Errorf("%w: %q", ErrNotFound, key)
		}
		if err != nil {
			return fmt.Errorf("%w: %w", ErrStorageFault, err)
		}
		defer f.Close()
		return fn(f)
	})
}
