package fsstore

import (
	"crypto/sha1"
	"fmt"
	"math/big"

	"github.com/mr-tron/base58"

	"github.com/bitfsorg/hoard-go/store"
)

// EncodeKey turns a key into a filesystem-safe token (base-58 of its UTF-8 bytes).
func EncodeKey(key string) (string, error) {
	if key == "" {
		return "", fmt.Errorf("%w: empty key", store.ErrInvalidKey)
	}
	return base58.Encode([]byte(key)), nil
}

// DecodeKey reverses EncodeKey.
func DecodeKey(token string) (string, error) {
	b, err := base58.Decode(token)
	if err != nil {
		return "", fmt.Errorf("%w: token %q: %w", store.ErrInvalidKey, token, err)
	}
	return string(b), nil
}

var hundred = big.NewInt(100)

// ShardPath returns the depth directory segments for a token. The SHA-1 of
// the token is read as a big-endian integer and written out in base 100,
// least significant digit first.
func ShardPath(token string, depth int) []string {
	sum := sha1.Sum([]byte(token))
	q := new(big.Int).SetBytes(sum[:])
	r := new(big.Int)

	segs := make([]string, 0, depth)
	for i := 0; i < depth; i++ {
		q.DivMod(q, hundred, r)
		segs = append(segs, r.String())
	}
	return segs
}
