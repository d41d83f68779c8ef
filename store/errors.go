package store

import "errors"

var (
	// ErrNotFound indicates the key is absent on read or delete.
	ErrNotFound = errors.New("store: key not found")

	// ErrReadOnly indicates a write was attempted on a read-only store or layer.
	ErrReadOnly = errors.New("store: read-only")

	// ErrStorageFault indicates the underlying medium failed (disk, network),
	// as opposed to a missing key.
	ErrStorageFault = errors.New("store: storage fault")

	// ErrAlreadyExists indicates a new store would overwrite an existing one.
	ErrAlreadyExists = errors.New("store: already exists")

	// ErrInvalidKey indicates a key the backend cannot represent.
	ErrInvalidKey = errors.New("store: invalid key")

	// ErrUnknownStore indicates a store name is not part of a group.
	ErrUnknownStore = errors.New("store: unknown store name")
)
