// Package jose issues and verifies compact JOSE tokens.
//
// Signed tokens (JWS) use RS256, RS384, RS512, HS256, HS384 or HS512.
// Encrypted tokens (JWE) wrap a per-token content key with RSA-OAEP and
// encrypt the payload with A128GCM or A256GCM.
//
//	tok, err := jose.Sign(map[string]any{"sub": "u1"}, jose.HS256, jose.SecretKey(secret))
//	if err != nil {
//		return err
//	}
//	switch jose.Verify(tok.String(), jose.SecretKey(secret)) {
//	case jose.ResultValid:
//	case jose.ResultExpired:
//	}
//
// HMAC secrets are hashed with the algorithm's own hash before use, so an
// HS256 token verifies under another library only when that library is given
// SHA-256(secret) as the key.
//
// Processor layers issuance policy on top of the engine: issuer and lifetime
// stamping, token IDs, per-subject rate limits, revocation through a replay
// store, and metrics.
package jose
