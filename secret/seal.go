package secret

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"io"

	ec "github.com/bsv-blockchain/go-sdk/primitives/ec"
	"golang.org/x/crypto/hkdf"
)

const (
	// HKDFInfo is the HKDF info string for value keys.
	HKDFInfo = "hoard-secret"

	pubKeyLen = 33
	nonceLen  = 12
	tagLen    = 16

	// MinBlobLen is the size of a sealed empty value.
	MinBlobLen = pubKeyLen + nonceLen + tagLen
)

// Seal encrypts plaintext to pub. A fresh ephemeral key pair is generated
// per call; the result is ephemeralPub(33) || nonce(12) || ciphertext || tag(16).
func Seal(pub *ec.PublicKey, plaintext []byte) ([]byte, error) {
	if pub == nil {
		return nil, ErrNilPublicKey
	}

	eph, err := ec.NewPrivateKey()
	if err != nil {
		return nil, fmt.Errorf("secret: ephemeral key: %w", err)
	}
	ephPub := eph.PubKey().Compressed()

	key, err := deriveKey(eph, pub, ephPub)
	if err != nil {
		return nil, err
	}

	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("secret: random nonce: %w", err)
	}

	out := make([]byte, 0, len(ephPub)+len(nonce)+len(plaintext)+gcm.Overhead())
	out = append(out, ephPub...)
	out = append(out, nonce...)
	return gcm.Seal(out, nonce, plaintext, ephPub), nil
}

// Open reverses Seal using the recipient's private key.
func Open(priv *ec.PrivateKey, blob []byte) ([]byte, error) {
	if priv == nil {
		return nil, ErrNoPrivateKey
	}
	if len(blob) < MinBlobLen {
		return nil, fmt.Errorf("%w: blob too short (%d bytes)", ErrDecryptionFailed, len(blob))
	}

	ephPub := blob[:pubKeyLen]
	pub, err := ec.PublicKeyFromBytes(ephPub)
	if err != nil {
		return nil, fmt.Errorf("%w: ephemeral key: %v", ErrDecryptionFailed, err)
	}

	key, err := deriveKey(priv, pub, ephPub)
	if err != nil {
		return nil, err
	}
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	nonce := blob[pubKeyLen : pubKeyLen+nonceLen]
	plaintext, err := gcm.Open(nil, nonce, blob[pubKeyLen+nonceLen:], ephPub)
	if err != nil {
		return nil, ErrDecryptionFailed
	}
	if plaintext == nil {
		plaintext = []byte{}
	}
	return plaintext, nil
}

// deriveKey runs ECDH and stretches the shared x-coordinate with
// HKDF-SHA256, salted with the ephemeral public key.
func deriveKey(priv *ec.PrivateKey, pub *ec.PublicKey, salt []byte) ([]byte, error) {
	shared, err := priv.DeriveSharedSecret(pub)
	if err != nil {
		return nil, fmt.Errorf("%w: ECDH: %v", ErrDecryptionFailed, err)
	}

	x := make([]byte, 32)
	xb := shared.X.Bytes()
	copy(x[32-len(xb):], xb)

	key := make([]byte, 32)
	if _, err := io.ReadFull(hkdf.New(sha256.New, x, salt, []byte(HKDFInfo)), key); err != nil {
		return nil, fmt.Errorf("secret: HKDF: %w", err)
	}
	return key, nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("secret: AES cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("secret: GCM: %w", err)
	}
	return gcm, nil
}
