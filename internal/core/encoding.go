package core

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
)

var (
	errInvalidAlphabet   = errors.New("invalid base64url characters in segment")
	errImpossibleLength  = errors.New("impossible base64url length: remainder 1")
	errNonCanonicalInput = errors.New("non-canonical base64url encoding")
)

// strictEncoding rejects encodings with non-zero trailing bits, so every
// byte sequence has exactly one accepted encoded form.
var strictEncoding = base64.RawURLEncoding.Strict()

// EncodeSegment encodes data as base64url without padding.
func EncodeSegment(data []byte) string {
	return base64.RawURLEncoding.EncodeToString(data)
}

// DecodeSegment decodes an unpadded base64url segment. Padding characters,
// standard alphabet characters and whitespace are all rejected.
func DecodeSegment(segment string) ([]byte, error) {
	if len(segment)%4 == 1 {
		return nil, errImpossibleLength
	}

	if !isValidBase64URL(segment) {
		return nil, errInvalidAlphabet
	}

	buf := make([]byte, strictEncoding.DecodedLen(len(segment)))
	n, err := strictEncoding.Decode(buf, []byte(segment))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errNonCanonicalInput, err)
	}

	return buf[:n], nil
}

// DecodeJSON decodes a base64url segment and unmarshals the JSON it carries.
func DecodeJSON(segment string, dest any) error {
	raw, err := DecodeSegment(segment)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("failed to unmarshal JSON: %w", err)
	}

	return nil
}

// isValidBase64URL checks if string contains only valid base64url characters
func isValidBase64URL(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !((c >= 'A' && c <= 'Z') ||
			(c >= 'a' && c <= 'z') ||
			(c >= '0' && c <= '9') ||
			c == '-' || c == '_') {
			return false
		}
	}
	return true
}
