package jose

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"github.com/cybergodev/jose/internal/security"
)

// Key is the key material handed to the engine: a symmetric secret, an RSA
// key pair, or an RSA public key alone.
//
// Copies of a Key share the same secret storage, so Destroy on one copy
// zeroes the secret for all of them.
type Key struct {
	secret  *security.SecureBytes
	private *rsa.PrivateKey
	public  *rsa.PublicKey
}

// SecretKey returns a symmetric key holding a copy of secret.
func SecretKey(secret []byte) Key {
	if len(secret) == 0 {
		return Key{}
	}
	return Key{secret: security.NewSecureBytesFromSlice(secret)}
}

// RSAKeyPair returns a key usable for signing, verification, encryption and decryption.
func RSAKeyPair(priv *rsa.PrivateKey) Key {
	if priv == nil {
		return Key{}
	}
	return Key{private: priv, public: &priv.PublicKey}
}

// RSAPublicKey returns a key usable only for verification and encryption.
func RSAPublicKey(pub *rsa.PublicKey) Key {
	return Key{public: pub}
}

// ParseRSAPrivateKeyPEM parses a PKCS#1 or PKCS#8 PEM private key.
func ParseRSAPrivateKeyPEM(data []byte) (Key, error) {
	priv, err := jwt.ParseRSAPrivateKeyFromPEM(data)
	if err != nil {
		return Key{}, fmt.Errorf("%w: parse RSA private key: %v", ErrMissingKeyMaterial, err)
	}
	return RSAKeyPair(priv), nil
}

// ParseRSAPublicKeyPEM parses a PKIX or PKCS#1 PEM public key or certificate.
func ParseRSAPublicKeyPEM(data []byte) (Key, error) {
	pub, err := jwt.ParseRSAPublicKeyFromPEM(data)
	if err != nil {
		return Key{}, fmt.Errorf("%w: parse RSA public key: %v", ErrMissingKeyMaterial, err)
	}
	return RSAPublicKey(pub), nil
}

// MarshalPrivateKeyPEM encodes the private half of k as a PKCS#8 PEM block.
func (k Key) MarshalPrivateKeyPEM() ([]byte, error) {
	if k.private == nil {
		return nil, ErrMissingPrivateKey
	}
	der, err := x509.MarshalPKCS8PrivateKey(k.private)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSerialization, err)
	}
	return pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der}), nil
}

// MarshalPublicKeyPEM encodes the public half of k as a PKIX PEM block.
func (k Key) MarshalPublicKeyPEM() ([]byte, error) {
	if k.public == nil {
		return nil, ErrMissingPublicKey
	}
	der, err := x509.MarshalPKIXPublicKey(k.public)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSerialization, err)
	}
	return pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der}), nil
}

// IsSymmetric reports whether the key holds a secret.
func (k Key) IsSymmetric() bool {
	return k.secret.Len() > 0
}

// HasPrivate reports whether the key can sign with RSA or decrypt.
func (k Key) HasPrivate() bool {
	return k.private != nil
}

// IsZero reports whether the key holds no material at all.
func (k Key) IsZero() bool {
	return !k.IsSymmetric() && k.private == nil && k.public == nil
}

// Public returns the public half of an RSA key. Symmetric keys have none.
func (k Key) Public() Key {
	return Key{public: k.public}
}

// clone returns a key with its own copy of the secret.
func (k Key) clone() Key {
	return Key{secret: k.secret.Copy(), private: k.private, public: k.public}
}

// Destroy zeroes the secret. RSA keys are left to the garbage collector.
func (k Key) Destroy() {
	k.secret.Destroy()
}

// signingKey returns the primitive key for signing with d.
func (k Key) signingKey(d Descriptor) (any, error) {
	switch d.Kind {
	case KindSymmetricSignature:
		if !k.IsSymmetric() {
			return nil, ErrMissingSecret
		}
		return k.secret.Bytes(), nil
	case KindAsymmetricSignature:
		if k.private == nil {
			return nil, ErrMissingPrivateKey
		}
		return k.private, nil
	default:
		return nil, fmt.Errorf("%w: %s is not a signing algorithm", ErrUnsupportedAlgorithm, d.Name)
	}
}

// verificationKey returns the primitive key for verifying with d. A key of
// the wrong kind is refused rather than reinterpreted.
func (k Key) verificationKey(d Descriptor) (any, error) {
	switch d.Kind {
	case KindSymmetricSignature:
		if k.public != nil || k.private != nil {
			return nil, fmt.Errorf("%w: %s requires a symmetric secret", ErrKeyKindMismatch, d.Name)
		}
		if !k.IsSymmetric() {
			return nil, ErrMissingSecret
		}
		return k.secret.Bytes(), nil
	case KindAsymmetricSignature:
		if k.IsSymmetric() {
			return nil, fmt.Errorf("%w: %s requires an RSA public key", ErrKeyKindMismatch, d.Name)
		}
		if k.public == nil {
			return nil, ErrMissingPublicKey
		}
		return k.public, nil
	default:
		return nil, fmt.Errorf("%w: %s is not a signing algorithm", ErrUnsupportedAlgorithm, d.Name)
	}
}
