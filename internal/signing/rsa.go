package signing

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"fmt"
)

// MinRSAKeyBits is the smallest modulus accepted for signing.
const MinRSAKeyBits = 2048

type rsaSigningMethod struct {
	Name     string
	HashFunc crypto.Hash
}

func (r *rsaSigningMethod) Sign(signingInput string, key any) ([]byte, error) {
	priv, ok := key.(*rsa.PrivateKey)
	if !ok || priv == nil {
		return nil, fmt.Errorf("%w: RSA signing requires *rsa.PrivateKey, got %T", ErrInvalidKeyType, key)
	}
	if priv.N.BitLen() < MinRSAKeyBits {
		return nil, fmt.Errorf("RSA key too small: minimum %d bits required, got %d", MinRSAKeyBits, priv.N.BitLen())
	}

	hashed, err := digest(r.HashFunc, signingInput)
	if err != nil {
		return nil, err
	}

	return rsa.SignPKCS1v15(rand.Reader, priv, r.HashFunc, hashed)
}

func (r *rsaSigningMethod) Verify(signingInput string, signature []byte, key any) error {
	pub, ok := key.(*rsa.PublicKey)
	if !ok || pub == nil {
		return fmt.Errorf("%w: RSA verification requires *rsa.PublicKey, got %T", ErrInvalidKeyType, key)
	}

	hashed, err := digest(r.HashFunc, signingInput)
	if err != nil {
		return err
	}

	if err := rsa.VerifyPKCS1v15(pub, r.HashFunc, hashed, signature); err != nil {
		return ErrSignatureMismatch
	}

	return nil
}

func (r *rsaSigningMethod) Alg() string {
	return r.Name
}

func (r *rsaSigningMethod) Hash() crypto.Hash {
	return r.HashFunc
}

var (
	rsaRS256 = &rsaSigningMethod{"RS256", crypto.SHA256}
	rsaRS384 = &rsaSigningMethod{"RS384", crypto.SHA384}
	rsaRS512 = &rsaSigningMethod{"RS512", crypto.SHA512}
)
