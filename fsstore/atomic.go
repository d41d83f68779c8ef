package fsstore

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// tempPath returns a unique dot-prefixed sibling of path. Dot-prefixed
// names never collide with base-58 tokens and are skipped by Keys.
func tempPath(path string) string {
	return filepath.Join(filepath.Dir(path), fmt.Sprintf(".%s.%s.tmp", filepath.Base(path), uuid.NewString()))
}

// atomicWrite writes data to a temporary sibling and renames it over path,
// so readers see either the old or the new content, never a partial file.
func atomicWrite(path string, data []byte, perm os.FileMode) error {
	tmp := tempPath(path)

	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_EXCL, perm)
	if err != nil {
		return err
	}

	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}

	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}
