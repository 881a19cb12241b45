package jose

import (
	"encoding/json"
	"fmt"

	"github.com/cybergodev/jose/internal/core"
	"github.com/cybergodev/jose/internal/encryption"
	"github.com/cybergodev/jose/internal/security"
)

// Encrypt builds a compact JWE for the recipient's public key. The content
// encryption key is generated per call, wrapped with RSA-OAEP and zeroed
// before Encrypt returns.
//
// []byte, json.RawMessage and string payloads are encrypted as given, any
// other value is JSON-encoded first.
func Encrypt(payload any, key Key, enc ContentEncryption) (EncryptedToken, error) {
	plaintext, err := plaintextOf(payload)
	if err != nil {
		return EncryptedToken{}, err
	}

	encDesc, err := enc.Describe()
	if err != nil {
		return EncryptedToken{}, err
	}

	if key.IsSymmetric() {
		return EncryptedToken{}, fmt.Errorf("%w: RSA-OAEP requires an RSA public key", ErrKeyKindMismatch)
	}
	if key.public == nil {
		return EncryptedToken{}, ErrMissingPublicKey
	}

	algDesc, err := Describe(RSAOAEP)
	if err != nil {
		return EncryptedToken{}, err
	}

	header := Header{Typ: core.TokenType, Alg: algDesc.Name, Enc: encDesc.Name}
	headerJSON, err := json.Marshal(header)
	if err != nil {
		return EncryptedToken{}, fmt.Errorf("%w: header: %v", ErrSerialization, err)
	}
	encodedHeader := core.EncodeSegment(headerJSON)

	cek, err := encryption.RandomBytes(encDesc.KeyLen)
	if err != nil {
		return EncryptedToken{}, fmt.Errorf("%w: %v", ErrCryptographic, err)
	}
	defer security.ZeroBytes(cek)

	iv, err := encryption.RandomBytes(encryption.IVSize)
	if err != nil {
		return EncryptedToken{}, fmt.Errorf("%w: %v", ErrCryptographic, err)
	}

	gcm, err := encryption.NewGCM(cek)
	if err != nil {
		return EncryptedToken{}, fmt.Errorf("%w: %v", ErrCryptographic, err)
	}

	ciphertext, tag, err := gcm.Seal(iv, plaintext, []byte(encodedHeader))
	if err != nil {
		return EncryptedToken{}, fmt.Errorf("%w: %v", ErrCryptographic, err)
	}

	wrapped, err := encryption.WrapKey(key.public, cek)
	if err != nil {
		return EncryptedToken{}, fmt.Errorf("%w: key wrap: %v", ErrCryptographic, err)
	}

	t := EncryptedToken{header: header}
	t.segments = [core.JWESegments]string{
		encodedHeader,
		core.EncodeSegment(wrapped),
		core.EncodeSegment(iv),
		core.EncodeSegment(ciphertext),
		core.EncodeSegment(tag),
	}
	t.raw = core.Join(t.segments[:]...)
	return t, nil
}

// Decrypt returns the plaintext of a compact JWE. Unwrap failures, tag
// mismatches and primitive faults all yield ErrDecryptionFailed.
func Decrypt(token string, key Key) ([]byte, error) {
	t, err := ParseEncrypted(token)
	if err != nil {
		return nil, err
	}
	return decryptParsed(t, key)
}

// DecryptAs decrypts token and decodes the JSON plaintext into T.
func DecryptAs[T any](token string, key Key) (T, error) {
	var out T

	plaintext, err := Decrypt(token, key)
	if err != nil {
		return out, err
	}

	if err := json.Unmarshal(plaintext, &out); err != nil {
		return out, fmt.Errorf("%w: %v", ErrSerialization, err)
	}
	return out, nil
}

func decryptParsed(t EncryptedToken, key Key) (plaintext []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			plaintext = nil
			err = fmt.Errorf("%w: %v", ErrDecryptionFailed, r)
		}
	}()

	if t.raw == "" {
		return nil, fmt.Errorf("%w: empty token", ErrStructural)
	}

	if !key.HasPrivate() {
		return nil, ErrMissingPrivateKey
	}

	alg, err := LookupAlgorithm(t.header.Alg)
	if err != nil {
		return nil, err
	}
	if alg != RSAOAEP {
		return nil, fmt.Errorf("%w: %s is not a key wrap algorithm", ErrUnsupportedAlgorithm, t.header.Alg)
	}

	enc, err := LookupContentEncryption(t.header.Enc)
	if err != nil {
		return nil, err
	}
	encDesc, err := enc.Describe()
	if err != nil {
		return nil, err
	}

	parts := make([][]byte, 0, 4)
	for i, name := range []string{"encrypted key", "iv", "ciphertext", "tag"} {
		b, err := decodeSegment(name, t.segments[i+1])
		if err != nil {
			return nil, err
		}
		parts = append(parts, b)
	}
	wrapped, iv, ciphertext, tag := parts[0], parts[1], parts[2], parts[3]

	if len(iv) != encryption.IVSize {
		return nil, fmt.Errorf("%w: iv must be %d bytes", ErrMalformedSegment, encryption.IVSize)
	}
	if len(tag) != encryption.TagSize {
		return nil, fmt.Errorf("%w: tag must be %d bytes", ErrMalformedSegment, encryption.TagSize)
	}

	cek, err := encryption.UnwrapKey(key.private, wrapped)
	if err != nil {
		return nil, ErrDecryptionFailed
	}
	defer security.ZeroBytes(cek)

	if len(cek) != encDesc.KeyLen {
		return nil, ErrDecryptionFailed
	}

	gcm, err := encryption.NewGCM(cek)
	if err != nil {
		return nil, ErrDecryptionFailed
	}

	plaintext, err = gcm.Open(iv, ciphertext, tag, []byte(t.segments[0]))
	if err != nil {
		return nil, ErrDecryptionFailed
	}
	return plaintext, nil
}

// plaintextOf returns the bytes to encrypt. Only a nil payload or JSON null
// is empty; a zero-length byte slice is a valid payload.
func plaintextOf(payload any) ([]byte, error) {
	switch p := payload.(type) {
	case nil:
		return nil, ErrEmptyPayload
	case []byte:
		return p, nil
	case json.RawMessage:
		return p, nil
	case string:
		return []byte(p), nil
	default:
		return marshalPayload(payload)
	}
}
