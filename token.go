package jose

import (
	"errors"
	"fmt"

	"github.com/cybergodev/jose/internal/core"
)

// Header is the protected header of a compact token.
type Header = core.Header

// SignedToken is a parsed or freshly built compact JWS.
type SignedToken struct {
	raw      string
	header   Header
	segments [core.JWSSegments]string
}

// EncryptedToken is a parsed or freshly built compact JWE.
type EncryptedToken struct {
	raw      string
	header   Header
	segments [core.JWESegments]string
}

// ParseSigned splits a compact JWS and decodes its header. It does not
// check the signature.
func ParseSigned(token string) (SignedToken, error) {
	parts, err := splitToken(token, core.JWSSegments)
	if err != nil {
		return SignedToken{}, err
	}

	header, err := parseHeader(parts[0])
	if err != nil {
		return SignedToken{}, err
	}

	t := SignedToken{raw: token, header: header}
	copy(t.segments[:], parts)
	return t, nil
}

// ParseEncrypted splits a compact JWE and decodes its header.
func ParseEncrypted(token string) (EncryptedToken, error) {
	parts, err := splitToken(token, core.JWESegments)
	if err != nil {
		return EncryptedToken{}, err
	}

	header, err := parseHeader(parts[0])
	if err != nil {
		return EncryptedToken{}, err
	}

	t := EncryptedToken{raw: token, header: header}
	copy(t.segments[:], parts)
	return t, nil
}

func splitToken(token string, n int) ([]string, error) {
	parts, err := core.Split(token, n)
	switch {
	case err == nil:
		return parts, nil
	case errors.Is(err, core.ErrSegmentCount):
		return nil, fmt.Errorf("%w: %v", ErrInvalidSegmentCount, err)
	default:
		return nil, fmt.Errorf("%w: %v", ErrStructural, err)
	}
}

func parseHeader(segment string) (Header, error) {
	h, err := core.ParseHeader(segment)
	switch {
	case err == nil:
		return h, nil
	case errors.Is(err, core.ErrMissingAlg):
		return Header{}, fmt.Errorf("%w: header does not declare alg", ErrUnsupportedAlgorithm)
	default:
		return Header{}, fmt.Errorf("%w: %v", ErrMalformedSegment, err)
	}
}

func decodeSegment(name, segment string) ([]byte, error) {
	b, err := core.DecodeSegment(segment)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformedSegment, name, err)
	}
	return b, nil
}

// String returns the compact serialization.
func (t SignedToken) String() string { return t.raw }

// Header returns the decoded protected header.
func (t SignedToken) Header() Header { return t.header }

// SigningInput returns the bytes covered by the signature.
func (t SignedToken) SigningInput() string {
	return t.segments[0] + "." + t.segments[1]
}

// Payload decodes the payload segment without verifying the signature.
func (t SignedToken) Payload() ([]byte, error) {
	return decodeSegment("payload", t.segments[1])
}

// UnverifiedClaims decodes the payload as claims without verifying the
// signature. Use it only for routing and revocation bookkeeping.
func (t SignedToken) UnverifiedClaims() (*Claims, error) {
	payload, err := t.Payload()
	if err != nil {
		return nil, err
	}
	return ParseClaims(payload)
}

// Verify checks the token with key. See Verify.
func (t SignedToken) Verify(key Key, opts ...VerifyOption) VerifyResult {
	_, result, _ := verifySigned(t, key, newVerifyOptions(opts))
	return result
}

// String returns the compact serialization.
func (t EncryptedToken) String() string { return t.raw }

// Header returns the decoded protected header.
func (t EncryptedToken) Header() Header { return t.header }

// Decrypt decrypts the token with key. See Decrypt.
func (t EncryptedToken) Decrypt(key Key) ([]byte, error) {
	return decryptParsed(t, key)
}
