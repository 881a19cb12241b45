// Package encryption provides the content encryption and key wrapping
// primitives used for compact encrypted tokens.
package encryption

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"
)

const (
	// IVSize is the AES-GCM nonce length in bytes.
	IVSize = 12

	// TagSize is the AES-GCM authentication tag length in bytes.
	TagSize = 16
)

// ErrDecryptionFailed covers every content or key decryption failure.
// Causes are not distinguished.
var ErrDecryptionFailed = errors.New("decryption failed")

// GCM is AES-GCM with the tag carried separately from the ciphertext.
type GCM struct {
	aead cipher.AEAD
}

// NewGCM creates an AES-GCM cipher for a 16, 24 or 32 byte key.
func NewGCM(key []byte) (*GCM, error) {
	switch len(key) {
	case 16, 24, 32:
	default:
		return nil, fmt.Errorf("invalid key size for AES-GCM: got %d bytes", len(key))
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	return &GCM{aead: aead}, nil
}

// Seal encrypts plaintext and returns ciphertext and tag separately.
func (g *GCM) Seal(iv, plaintext, aad []byte) (ciphertext, tag []byte, err error) {
	if len(iv) != IVSize {
		return nil, nil, fmt.Errorf("invalid IV size: expected %d, got %d", IVSize, len(iv))
	}

	sealed := g.aead.Seal(nil, iv, plaintext, aad)
	split := len(sealed) - TagSize
	return sealed[:split], sealed[split:], nil
}

// Open authenticates and decrypts. Any failure returns ErrDecryptionFailed.
func (g *GCM) Open(iv, ciphertext, tag, aad []byte) ([]byte, error) {
	if len(iv) != IVSize || len(tag) != TagSize {
		return nil, ErrDecryptionFailed
	}

	sealed := make([]byte, 0, len(ciphertext)+TagSize)
	sealed = append(sealed, ciphertext...)
	sealed = append(sealed, tag...)

	plaintext, err := g.aead.Open(nil, iv, sealed, aad)
	if err != nil {
		return nil, ErrDecryptionFailed
	}
	if plaintext == nil {
		plaintext = []byte{}
	}
	return plaintext, nil
}

// RandomBytes returns n bytes from crypto/rand.
func RandomBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return nil, fmt.Errorf("crypto/rand is unavailable: %w", err)
	}
	return b, nil
}
