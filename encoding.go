package jose

import (
	"fmt"

	"github.com/cybergodev/jose/internal/core"
)

// EncodeSegment encodes data as unpadded base64url.
func EncodeSegment(data []byte) string {
	return core.EncodeSegment(data)
}

// DecodeSegment decodes unpadded base64url. Padded input, characters outside
// the URL alphabet and impossible lengths are rejected.
func DecodeSegment(segment string) ([]byte, error) {
	b, err := core.DecodeSegment(segment)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedSegment, err)
	}
	return b, nil
}
