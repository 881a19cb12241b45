package signing

import (
	"crypto"
	"errors"
	"fmt"

	_ "crypto/sha256"
	_ "crypto/sha512"
)

var (
	// ErrSignatureMismatch is returned when a signature does not match the signing input.
	ErrSignatureMismatch = errors.New("signature verification failed")

	// ErrInvalidKeyType is returned when the key does not fit the method.
	ErrInvalidKeyType = errors.New("key type does not match signing method")
)

// Method computes and checks signatures for one JOSE algorithm.
// Implementations hold no mutable state; every call builds its own primitive.
type Method interface {
	Alg() string
	Hash() crypto.Hash
	Sign(signingInput string, key any) ([]byte, error)
	Verify(signingInput string, signature []byte, key any) error
}

// GetMethod returns the method registered for a JOSE algorithm name.
func GetMethod(alg string) (Method, error) {
	switch alg {
	case "HS256":
		return hmacHS256, nil
	case "HS384":
		return hmacHS384, nil
	case "HS512":
		return hmacHS512, nil
	case "RS256":
		return rsaRS256, nil
	case "RS384":
		return rsaRS384, nil
	case "RS512":
		return rsaRS512, nil
	default:
		return nil, fmt.Errorf("unsupported signing method: %s", alg)
	}
}

func digest(h crypto.Hash, data string) ([]byte, error) {
	if !h.Available() {
		return nil, fmt.Errorf("hash function %v not available", h)
	}
	hasher := h.New()
	hasher.Write([]byte(data))
	return hasher.Sum(nil), nil
}
