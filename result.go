package jose

import "errors"

// VerifyResult is the outcome of a verification or decryption call.
type VerifyResult int

const (
	// ResultError means the verifier could not complete: unknown or
	// disallowed algorithm, unusable key, or a primitive fault.
	ResultError VerifyResult = iota
	ResultValid
	ResultInvalid
	ResultExpired
	ResultNotValidYet
	ResultAlreadyUsed
	ResultStructurallyInvalid
)

var resultNames = [...]string{
	ResultError:               "Error",
	ResultValid:               "Valid",
	ResultInvalid:             "Invalid",
	ResultExpired:             "Expired",
	ResultNotValidYet:         "NotValidYet",
	ResultAlreadyUsed:         "AlreadyUsed",
	ResultStructurallyInvalid: "StructurallyInvalid",
}

func (r VerifyResult) String() string {
	if r < 0 || int(r) >= len(resultNames) {
		return "Unknown"
	}
	return resultNames[r]
}

// Valid reports whether r is ResultValid.
func (r VerifyResult) Valid() bool {
	return r == ResultValid
}

// Err returns the error matching r, or nil for ResultValid.
func (r VerifyResult) Err() error {
	switch r {
	case ResultValid:
		return nil
	case ResultInvalid:
		return ErrSignatureInvalid
	case ResultExpired:
		return ErrExpired
	case ResultNotValidYet:
		return ErrNotValidYet
	case ResultAlreadyUsed:
		return ErrAlreadyUsed
	case ResultStructurallyInvalid:
		return ErrStructural
	default:
		return ErrVerifierFault
	}
}

// ResultOf maps an engine error onto a VerifyResult. A nil error is
// ResultValid; anything unrecognized is ResultError.
func ResultOf(err error) VerifyResult {
	switch {
	case err == nil:
		return ResultValid
	case errors.Is(err, ErrStructural):
		return ResultStructurallyInvalid
	case errors.Is(err, ErrSignatureInvalid), errors.Is(err, ErrMalformedClaims):
		return ResultInvalid
	case errors.Is(err, ErrExpired):
		return ResultExpired
	case errors.Is(err, ErrNotValidYet):
		return ResultNotValidYet
	case errors.Is(err, ErrAlreadyUsed):
		return ResultAlreadyUsed
	default:
		return ResultError
	}
}
