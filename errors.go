package jose

import (
	"errors"
	"fmt"
)

// Error categories. Every error returned by the engine wraps exactly one of
// these, so callers can branch with errors.Is on the category alone.
var (
	ErrStructural         = errors.New("structural error")
	ErrAlgorithmMismatch  = errors.New("algorithm mismatch")
	ErrMissingKeyMaterial = errors.New("missing key material")
	ErrCryptographic      = errors.New("cryptographic failure")
	ErrClaimViolation     = errors.New("claim violation")
	ErrSerialization      = errors.New("serialization error")
	ErrProcessorFailure   = errors.New("processor failure")
)

// Specific errors.
var (
	// Structural
	ErrInvalidSegmentCount = fmt.Errorf("%w: unexpected segment count", ErrStructural)
	ErrMalformedSegment    = fmt.Errorf("%w: malformed segment", ErrStructural)

	// Algorithm
	ErrUnsupportedAlgorithm = fmt.Errorf("%w: unsupported algorithm", ErrAlgorithmMismatch)
	ErrUnsupportedMode      = fmt.Errorf("%w: unsupported content encryption mode", ErrAlgorithmMismatch)

	// Key material
	ErrMissingPrivateKey = fmt.Errorf("%w: private key required", ErrMissingKeyMaterial)
	ErrKeyKindMismatch   = fmt.Errorf("%w: key kind does not match algorithm", ErrAlgorithmMismatch)
	ErrMissingPublicKey  = fmt.Errorf("%w: public key required", ErrMissingKeyMaterial)
	ErrMissingSecret     = fmt.Errorf("%w: symmetric secret required", ErrMissingKeyMaterial)

	// Cryptographic
	ErrSignatureInvalid = fmt.Errorf("%w: signature mismatch", ErrCryptographic)
	ErrDecryptionFailed = fmt.Errorf("%w: decryption failed", ErrCryptographic)
	ErrVerifierFault    = fmt.Errorf("%w: verifier fault", ErrCryptographic)

	// Claims
	ErrExpired         = fmt.Errorf("%w: token is expired", ErrClaimViolation)
	ErrNotValidYet     = fmt.Errorf("%w: token is not valid yet", ErrClaimViolation)
	ErrAlreadyUsed     = fmt.Errorf("%w: token has already been used", ErrClaimViolation)
	ErrMalformedClaims = fmt.Errorf("%w: payload is not a readable claim set", ErrClaimViolation)

	// Serialization
	ErrEmptyPayload = fmt.Errorf("%w: payload is empty", ErrSerialization)

	// Processor
	ErrInvalidConfig     = errors.New("invalid configuration")
	ErrRateLimitExceeded = fmt.Errorf("%w: rate limit exceeded", ErrProcessorFailure)
	ErrProcessorClosed   = fmt.Errorf("%w: processor is closed", ErrProcessorFailure)
	ErrTokenMissingID    = fmt.Errorf("%w: token does not contain a jti claim", ErrProcessorFailure)
	ErrInvalidClaims     = fmt.Errorf("%w: invalid claims", ErrProcessorFailure)
)

// ValidationError represents a validation error for a specific field.
type ValidationError struct {
	Field   string // The field that failed validation
	Message string // Human-readable error message
	Err     error  // Underlying error, if any
}

func (e *ValidationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("validation failed for field '%s': %s: %v", e.Field, e.Message, e.Err)
	}
	return fmt.Sprintf("validation failed for field '%s': %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}
