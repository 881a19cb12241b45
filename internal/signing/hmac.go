package signing

import (
	"crypto"
	"crypto/hmac"
	"errors"
	"fmt"

	"github.com/cybergodev/jose/internal/security"
)

var errEmptySecret = errors.New("HMAC secret cannot be empty")

type hmacSigningMethod struct {
	Name     string
	HashFunc crypto.Hash
}

// DeriveKey hashes an arbitrary-length secret with the method's own hash,
// yielding a key of exactly Hash().Size() bytes. The caller must zero the
// result when done with it.
func (h *hmacSigningMethod) DeriveKey(secret []byte) ([]byte, error) {
	if len(secret) == 0 {
		return nil, errEmptySecret
	}
	if !h.HashFunc.Available() {
		return nil, fmt.Errorf("hash function %v not available", h.HashFunc)
	}
	hasher := h.HashFunc.New()
	hasher.Write(secret)
	return hasher.Sum(nil), nil
}

func (h *hmacSigningMethod) mac(signingInput string, key any) ([]byte, error) {
	secret, ok := key.([]byte)
	if !ok {
		return nil, fmt.Errorf("%w: HMAC key must be []byte, got %T", ErrInvalidKeyType, key)
	}

	derived, err := h.DeriveKey(secret)
	if err != nil {
		return nil, err
	}
	defer security.ZeroBytes(derived)

	mac := hmac.New(h.HashFunc.New, derived)
	mac.Write([]byte(signingInput))
	return mac.Sum(nil), nil
}

func (h *hmacSigningMethod) Sign(signingInput string, key any) ([]byte, error) {
	return h.mac(signingInput, key)
}

func (h *hmacSigningMethod) Verify(signingInput string, signature []byte, key any) error {
	expected, err := h.mac(signingInput, key)
	if err != nil {
		return err
	}
	defer security.ZeroBytes(expected)

	if !security.SecureCompare(signature, expected) {
		return ErrSignatureMismatch
	}

	return nil
}

func (h *hmacSigningMethod) Alg() string {
	return h.Name
}

func (h *hmacSigningMethod) Hash() crypto.Hash {
	return h.HashFunc
}

var (
	hmacHS256 = &hmacSigningMethod{"HS256", crypto.SHA256}
	hmacHS384 = &hmacSigningMethod{"HS384", crypto.SHA384}
	hmacHS512 = &hmacSigningMethod{"HS512", crypto.SHA512}
)
