package encryption

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha1" // #nosec G505 -- RSA-OAEP in JOSE is defined over SHA-1
	"fmt"
)

// MinRSAKeyBits is the smallest recipient modulus accepted for key wrapping.
const MinRSAKeyBits = 2048

// WrapKey encrypts a content encryption key with RSAES-OAEP (SHA-1, MGF1 SHA-1).
func WrapKey(pub *rsa.PublicKey, cek []byte) ([]byte, error) {
	if pub == nil {
		return nil, fmt.Errorf("recipient public key is nil")
	}
	if pub.N.BitLen() < MinRSAKeyBits {
		return nil, fmt.Errorf("RSA key too small: minimum %d bits required, got %d", MinRSAKeyBits, pub.N.BitLen())
	}

	return rsa.EncryptOAEP(sha1.New(), rand.Reader, pub, cek, nil)
}

// UnwrapKey recovers a content encryption key. Any failure returns ErrDecryptionFailed.
func UnwrapKey(priv *rsa.PrivateKey, wrapped []byte) ([]byte, error) {
	if priv == nil {
		return nil, ErrDecryptionFailed
	}

	cek, err := rsa.DecryptOAEP(sha1.New(), rand.Reader, priv, wrapped, nil)
	if err != nil {
		return nil, ErrDecryptionFailed
	}
	return cek, nil
}
