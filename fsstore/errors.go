package fsstore

import "errors"

var (
	// ErrInvalidRoot indicates the store root is missing or not a directory.
	ErrInvalidRoot = errors.New("fsstore: invalid store root")

	// ErrInvalidConfig indicates the on-disk config is missing or malformed.
	ErrInvalidConfig = errors.New("fsstore: invalid store config")

	// ErrUnsupportedCompression indicates an unknown compression scheme.
	ErrUnsupportedCompression = errors.New("fsstore: unsupported compression scheme")

	// ErrInvalidDepth indicates a negative shard depth.
	ErrInvalidDepth = errors.New("fsstore: shard depth must be >= 0")

	// ErrLayoutMismatch indicates a flat store was opened as hashed or vice versa.
	ErrLayoutMismatch = errors.New("fsstore: store layout mismatch")
)
