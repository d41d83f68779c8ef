package codec

import "errors"

var (
	// ErrUnknownCodec indicates no codec is registered under the requested name.
	ErrUnknownCodec = errors.New("codec: unknown codec")

	// ErrTypeMismatch indicates a value does not match the shape a codec accepts.
	ErrTypeMismatch = errors.New("codec: type mismatch")

	// ErrDuplicateCodec indicates a codec name was registered twice.
	ErrDuplicateCodec = errors.New("codec: duplicate codec name")
)
