package secret

import "errors"

var (
	// ErrNilPublicKey indicates a store was created without a recipient key.
	ErrNilPublicKey = errors.New("secret: public key is nil")

	// ErrNoPrivateKey indicates a read from a write-only store.
	ErrNoPrivateKey = errors.New("secret: no private key, store is write-only")

	// ErrDecryptionFailed indicates a malformed or forged blob.
	ErrDecryptionFailed = errors.New("secret: decryption failed")
)
