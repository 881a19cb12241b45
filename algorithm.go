package jose

import (
	"crypto"
	"fmt"
	"strings"

	"github.com/cybergodev/jose/internal/core"
)

// Algorithm identifies a signing or key-wrapping algorithm.
type Algorithm int

const (
	RS256 Algorithm = iota + 1
	RS384
	RS512
	HS256
	HS384
	HS512
	RSAOAEP
)

// ContentEncryption identifies a content encryption mode for encrypted tokens.
type ContentEncryption int

const (
	A128GCM ContentEncryption = iota + 1
	A256GCM
)

// PrimitiveKind classifies the cryptographic primitive behind an identifier.
type PrimitiveKind int

const (
	KindAsymmetricSignature PrimitiveKind = iota + 1
	KindSymmetricSignature
	KindKeyWrap
	KindContentEncryption
)

func (k PrimitiveKind) String() string {
	switch k {
	case KindAsymmetricSignature:
		return "asymmetric-signature"
	case KindSymmetricSignature:
		return "symmetric-signature"
	case KindKeyWrap:
		return "key-wrap"
	case KindContentEncryption:
		return "content-encryption"
	default:
		return "unknown"
	}
}

// Descriptor is the registry entry for one identifier.
//
// KeyLen is the required key length in bytes: the derived HMAC key for
// symmetric signatures and the content encryption key for GCM modes.
// It is zero where the key size is governed by the RSA modulus.
type Descriptor struct {
	Kind   PrimitiveKind
	Hash   crypto.Hash
	KeyLen int
	ID     string
	Name   string
}

// joseName converts an internal identifier to its serialized JOSE name.
func joseName(id string) string {
	return strings.ReplaceAll(id, "_", "-")
}

var algorithms = [...]Descriptor{
	RS256:   {Kind: KindAsymmetricSignature, Hash: crypto.SHA256, ID: "RS256"},
	RS384:   {Kind: KindAsymmetricSignature, Hash: crypto.SHA384, ID: "RS384"},
	RS512:   {Kind: KindAsymmetricSignature, Hash: crypto.SHA512, ID: "RS512"},
	HS256:   {Kind: KindSymmetricSignature, Hash: crypto.SHA256, KeyLen: 32, ID: "HS256"},
	HS384:   {Kind: KindSymmetricSignature, Hash: crypto.SHA384, KeyLen: 48, ID: "HS384"},
	HS512:   {Kind: KindSymmetricSignature, Hash: crypto.SHA512, KeyLen: 64, ID: "HS512"},
	RSAOAEP: {Kind: KindKeyWrap, Hash: crypto.SHA1, ID: "RSA_OAEP"},
}

var contentEncryptions = [...]Descriptor{
	A128GCM: {Kind: KindContentEncryption, KeyLen: 16, ID: "A128GCM"},
	A256GCM: {Kind: KindContentEncryption, KeyLen: 32, ID: "A256GCM"},
}

var (
	algorithmsByName  = make(map[string]Algorithm, len(algorithms))
	encryptionsByName = make(map[string]ContentEncryption, len(contentEncryptions))
)

func init() {
	for i := range algorithms {
		if algorithms[i].ID == "" {
			continue
		}
		algorithms[i].Name = joseName(algorithms[i].ID)
		algorithmsByName[algorithms[i].Name] = Algorithm(i)
	}
	for i := range contentEncryptions {
		if contentEncryptions[i].ID == "" {
			continue
		}
		contentEncryptions[i].Name = joseName(contentEncryptions[i].ID)
		encryptionsByName[contentEncryptions[i].Name] = ContentEncryption(i)
	}
}

// Describe returns the registry entry for an algorithm.
func Describe(alg Algorithm) (Descriptor, error) {
	if alg <= 0 || int(alg) >= len(algorithms) {
		return Descriptor{}, fmt.Errorf("%w: algorithm id %d", ErrUnsupportedAlgorithm, int(alg))
	}
	return algorithms[alg], nil
}

// LookupAlgorithm resolves a serialized JOSE name. Matching is exact.
func LookupAlgorithm(name string) (Algorithm, error) {
	if core.IsInsecureAlgorithm(name) {
		return 0, fmt.Errorf("%w: insecure algorithm %q", ErrUnsupportedAlgorithm, name)
	}
	alg, ok := algorithmsByName[name]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedAlgorithm, name)
	}
	return alg, nil
}

// String returns the JOSE name, or a placeholder for unknown values.
func (a Algorithm) String() string {
	d, err := Describe(a)
	if err != nil {
		return fmt.Sprintf("Algorithm(%d)", int(a))
	}
	return d.Name
}

// IsSigning reports whether the algorithm produces signatures.
func (a Algorithm) IsSigning() bool {
	d, err := Describe(a)
	return err == nil && (d.Kind == KindAsymmetricSignature || d.Kind == KindSymmetricSignature)
}

// MarshalText implements encoding.TextMarshaler.
func (a Algorithm) MarshalText() ([]byte, error) {
	d, err := Describe(a)
	if err != nil {
		return nil, err
	}
	return []byte(d.Name), nil
}

// UnmarshalText implements encoding.TextUnmarshaler so configuration files
// can name algorithms directly.
func (a *Algorithm) UnmarshalText(text []byte) error {
	alg, err := LookupAlgorithm(string(text))
	if err != nil {
		return err
	}
	*a = alg
	return nil
}

// Describe returns the registry entry for a content encryption mode.
func (e ContentEncryption) Describe() (Descriptor, error) {
	if e <= 0 || int(e) >= len(contentEncryptions) {
		return Descriptor{}, fmt.Errorf("%w: content encryption id %d", ErrUnsupportedMode, int(e))
	}
	return contentEncryptions[e], nil
}

// LookupContentEncryption resolves a serialized enc name.
func LookupContentEncryption(name string) (ContentEncryption, error) {
	enc, ok := encryptionsByName[name]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedMode, name)
	}
	return enc, nil
}

func (e ContentEncryption) String() string {
	d, err := e.Describe()
	if err != nil {
		return fmt.Sprintf("ContentEncryption(%d)", int(e))
	}
	return d.Name
}

// MarshalText implements encoding.TextMarshaler.
func (e ContentEncryption) MarshalText() ([]byte, error) {
	d, err := e.Describe()
	if err != nil {
		return nil, err
	}
	return []byte(d.Name), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (e *ContentEncryption) UnmarshalText(text []byte) error {
	enc, err := LookupContentEncryption(string(text))
	if err != nil {
		return err
	}
	*e = enc
	return nil
}
