package jose

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cybergodev/jose/internal/core"
	"github.com/cybergodev/jose/internal/signing"
)

// defaultReplayRetention is how long a jti without exp is remembered.
const defaultReplayRetention = 24 * time.Hour

// Sign builds a compact JWS over payload. Input problems detectable without
// cryptography (empty payload, missing key half, missing secret) are
// reported before any primitive runs.
func Sign(payload any, alg Algorithm, key Key) (SignedToken, error) {
	payloadJSON, err := marshalPayload(payload)
	if err != nil {
		return SignedToken{}, err
	}

	desc, err := Describe(alg)
	if err != nil {
		return SignedToken{}, err
	}

	signingKey, err := key.signingKey(desc)
	if err != nil {
		return SignedToken{}, err
	}

	method, err := signing.GetMethod(desc.Name)
	if err != nil {
		return SignedToken{}, fmt.Errorf("%w: %v", ErrUnsupportedAlgorithm, err)
	}

	header := Header{Typ: core.TokenType, Alg: desc.Name}
	headerJSON, err := json.Marshal(header)
	if err != nil {
		return SignedToken{}, fmt.Errorf("%w: header: %v", ErrSerialization, err)
	}

	t := SignedToken{header: header}
	t.segments[0] = core.EncodeSegment(headerJSON)
	t.segments[1] = core.EncodeSegment(payloadJSON)

	sig, err := method.Sign(t.SigningInput(), signingKey)
	if err != nil {
		return SignedToken{}, fmt.Errorf("%w: %v", ErrCryptographic, err)
	}

	t.segments[2] = core.EncodeSegment(sig)
	t.raw = core.Join(t.segments[:]...)
	return t, nil
}

// Verify checks a compact JWS and reports exactly one outcome.
//
// Checks run in order: structure, header algorithm, signature, then exp,
// nbf and jti. Claim outcomes are only reported for tokens whose signature
// is valid. Verify never panics.
func Verify(token string, key Key, opts ...VerifyOption) VerifyResult {
	_, result, _ := verifyToken(token, key, newVerifyOptions(opts))
	return result
}

// VerifyAs verifies token and decodes its payload into T. The payload is
// only decoded when the token is valid.
func VerifyAs[T any](token string, key Key, opts ...VerifyOption) (T, VerifyResult, error) {
	var out T

	payload, result, err := verifyToken(token, key, newVerifyOptions(opts))
	if result != ResultValid {
		return out, result, err
	}

	if err := json.Unmarshal(payload, &out); err != nil {
		return out, ResultError, fmt.Errorf("%w: %v", ErrSerialization, err)
	}

	return out, ResultValid, nil
}

func verifyToken(token string, key Key, o *verifyOptions) ([]byte, VerifyResult, error) {
	t, err := ParseSigned(token)
	if err != nil {
		return nil, ResultOf(err), err
	}
	return verifySigned(t, key, o)
}

func verifySigned(t SignedToken, key Key, o *verifyOptions) (payload []byte, result VerifyResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			payload = nil
			err = fmt.Errorf("%w: %v", ErrVerifierFault, r)
			result = ResultError
		}
	}()

	payload, err = t.verify(key, o)
	if err != nil {
		return nil, ResultOf(err), err
	}
	return payload, ResultValid, nil
}

func (t SignedToken) verify(key Key, o *verifyOptions) ([]byte, error) {
	if t.raw == "" {
		return nil, fmt.Errorf("%w: empty token", ErrStructural)
	}

	payload, err := t.Payload()
	if err != nil {
		return nil, err
	}

	sig, err := decodeSegment("signature", t.segments[2])
	if err != nil {
		return nil, err
	}

	alg, err := LookupAlgorithm(t.header.Alg)
	if err != nil {
		return nil, err
	}
	if !alg.IsSigning() {
		return nil, fmt.Errorf("%w: %s cannot sign", ErrUnsupportedAlgorithm, t.header.Alg)
	}
	if !o.permits(alg) {
		return nil, fmt.Errorf("%w: %s is not allowed", ErrUnsupportedAlgorithm, t.header.Alg)
	}

	desc, err := Describe(alg)
	if err != nil {
		return nil, err
	}

	verificationKey, err := key.verificationKey(desc)
	if err != nil {
		return nil, err
	}

	method, err := signing.GetMethod(desc.Name)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedAlgorithm, err)
	}

	if err := method.Verify(t.SigningInput(), sig, verificationKey); err != nil {
		if errors.Is(err, signing.ErrSignatureMismatch) {
			return nil, ErrSignatureInvalid
		}
		return nil, fmt.Errorf("%w: %v", ErrVerifierFault, err)
	}

	// Valid JSON that is not an object parses to an empty claim set.
	claims, err := ParseClaims(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedClaims, err)
	}

	if err := o.validator().Validate(claims, o.now()); err != nil {
		return nil, err
	}

	if o.store != nil {
		if err := recordReplay(o, claims); err != nil {
			return nil, err
		}
	}

	return payload, nil
}

func recordReplay(o *verifyOptions, claims *Claims) error {
	jti, ok := claims.ID()
	if !ok || jti == "" {
		return ErrTokenMissingID
	}

	expiresAt := o.now().Add(defaultReplayRetention)
	if exp, ok, _ := claims.ExpiresAt(); ok {
		expiresAt = exp.Time
	}

	replayed, err := o.store.Record(o.ctx, jti, expiresAt)
	if err != nil {
		return fmt.Errorf("%w: replay store: %w", ErrVerifierFault, err)
	}
	if replayed {
		return ErrAlreadyUsed
	}
	return nil
}

// marshalPayload JSON-encodes a payload, refusing nil and JSON null.
func marshalPayload(payload any) ([]byte, error) {
	if payload == nil {
		return nil, ErrEmptyPayload
	}

	b, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSerialization, err)
	}
	if string(b) == "null" {
		return nil, ErrEmptyPayload
	}

	return b, nil
}
