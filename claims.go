package jose

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"time"
)

// Registered claim names.
const (
	ClaimIssuer    = "iss"
	ClaimSubject   = "sub"
	ClaimAudience  = "aud"
	ClaimID        = "jti"
	ClaimExpiresAt = "exp"
	ClaimNotBefore = "nbf"
	ClaimIssuedAt  = "iat"
)

// Claims is a typed view over a decoded JSON object. Registered claims have
// named accessors; any other member is reachable through Get.
//
// Accessors read permissively: an absent claim reports ok == false. The
// temporal accessors return an error for a present but malformed value.
type Claims struct {
	values map[string]any
}

// NewClaims returns an empty claim set.
func NewClaims() *Claims {
	return &Claims{values: make(map[string]any)}
}

// ParseClaims decodes a payload. Numbers are kept exact. A payload that is
// valid JSON but not an object has no claims.
func ParseClaims(payload []byte) (*Claims, error) {
	c := NewClaims()

	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		if len(trimmed) > 0 && !json.Valid(trimmed) {
			return nil, fmt.Errorf("%w: payload is not JSON", ErrSerialization)
		}
		return c, nil
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()
	if err := dec.Decode(&c.values); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSerialization, err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("%w: trailing data after claims object", ErrSerialization)
	}
	if c.values == nil {
		c.values = make(map[string]any)
	}

	return c, nil
}

// Get returns the raw value of a claim.
func (c *Claims) Get(name string) (any, bool) {
	if c == nil {
		return nil, false
	}
	v, ok := c.values[name]
	return v, ok
}

// Set assigns a claim and returns c for chaining.
func (c *Claims) Set(name string, value any) *Claims {
	if c.values == nil {
		c.values = make(map[string]any)
	}
	c.values[name] = value
	return c
}

// Delete removes a claim.
func (c *Claims) Delete(name string) {
	delete(c.values, name)
}

// Len returns the number of claims.
func (c *Claims) Len() int {
	if c == nil {
		return 0
	}
	return len(c.values)
}

// Map returns a shallow copy of all claims.
func (c *Claims) Map() map[string]any {
	if c == nil {
		return map[string]any{}
	}
	return maps.Clone(c.values)
}

// Clone returns an independent claim set with the same top-level members.
func (c *Claims) Clone() *Claims {
	return &Claims{values: c.Map()}
}

func (c *Claims) stringClaim(name string) (string, bool) {
	v, ok := c.Get(name)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// Issuer returns the iss claim.
func (c *Claims) Issuer() (string, bool) { return c.stringClaim(ClaimIssuer) }

// Subject returns the sub claim.
func (c *Claims) Subject() (string, bool) { return c.stringClaim(ClaimSubject) }

// ID returns the jti claim.
func (c *Claims) ID() (string, bool) { return c.stringClaim(ClaimID) }

// Audience returns the aud claim, which may be a single string or an array.
func (c *Claims) Audience() ([]string, bool) {
	v, ok := c.Get(ClaimAudience)
	if !ok {
		return nil, false
	}

	switch aud := v.(type) {
	case string:
		return []string{aud}, true
	case []string:
		return append([]string(nil), aud...), true
	case []any:
		out := make([]string, 0, len(aud))
		for _, item := range aud {
			s, ok := item.(string)
			if !ok {
				return nil, false
			}
			out = append(out, s)
		}
		return out, true
	default:
		return nil, false
	}
}

func (c *Claims) dateClaim(name string) (NumericDate, bool, error) {
	v, ok := c.Get(name)
	if !ok {
		return NumericDate{}, false, nil
	}
	d, err := numericDateFromValue(v)
	if err != nil {
		return NumericDate{}, true, fmt.Errorf("claim %s: %w", name, err)
	}
	return d, true, nil
}

// ExpiresAt returns the exp claim.
func (c *Claims) ExpiresAt() (NumericDate, bool, error) { return c.dateClaim(ClaimExpiresAt) }

// NotBefore returns the nbf claim.
func (c *Claims) NotBefore() (NumericDate, bool, error) { return c.dateClaim(ClaimNotBefore) }

// IssuedAt returns the iat claim.
func (c *Claims) IssuedAt() (NumericDate, bool, error) { return c.dateClaim(ClaimIssuedAt) }

func (c *Claims) SetIssuer(iss string) *Claims { return c.Set(ClaimIssuer, iss) }
func (c *Claims) SetSubject(sub string) *Claims { return c.Set(ClaimSubject, sub) }
func (c *Claims) SetID(jti string) *Claims { return c.Set(ClaimID, jti) }
func (c *Claims) SetAudience(aud ...string) *Claims {
	if len(aud) == 1 {
		return c.Set(ClaimAudience, aud[0])
	}
	return c.Set(ClaimAudience, append([]string(nil), aud...))
}

// SetExpiresAt stores t as whole seconds since the epoch.
func (c *Claims) SetExpiresAt(t time.Time) *Claims { return c.Set(ClaimExpiresAt, t.Unix()) }

// SetNotBefore stores t as whole seconds since the epoch.
func (c *Claims) SetNotBefore(t time.Time) *Claims { return c.Set(ClaimNotBefore, t.Unix()) }

// SetIssuedAt stores t as whole seconds since the epoch.
func (c *Claims) SetIssuedAt(t time.Time) *Claims { return c.Set(ClaimIssuedAt, t.Unix()) }

// MarshalJSON implements json.Marshaler.
func (c *Claims) MarshalJSON() ([]byte, error) {
	if c == nil || c.values == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(c.values)
}

// UnmarshalJSON implements json.Unmarshaler.
func (c *Claims) UnmarshalJSON(b []byte) error {
	parsed, err := ParseClaims(b)
	if err != nil {
		return err
	}
	c.values = parsed.values
	return nil
}

// ClaimsValidator checks the temporal and replay claims of a payload.
type ClaimsValidator struct {
	// Leeway tolerates clock skew on exp and nbf.
	Leeway time.Duration

	// ReplayID, when set, marks a token whose jti equals it as already used.
	ReplayID string
}

// Validate returns the first violation in the order exp, nbf, jti, or nil.
// Absent claims pass. Malformed values fail closed with the violation of
// the claim they occupy.
func (v ClaimsValidator) Validate(c *Claims, now time.Time) error {
	if c == nil {
		return nil
	}

	exp, ok, err := c.ExpiresAt()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrExpired, err)
	}
	if ok && now.After(exp.Add(v.Leeway)) {
		return ErrExpired
	}

	nbf, ok, err := c.NotBefore()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNotValidYet, err)
	}
	if ok && now.Add(v.Leeway).Before(nbf.Time) {
		return ErrNotValidYet
	}

	if v.ReplayID != "" {
		if raw, present := c.Get(ClaimID); present {
			jti, isString := raw.(string)
			if !isString {
				return fmt.Errorf("%w: claim jti is not a string", ErrAlreadyUsed)
			}
			if jti == v.ReplayID {
				return ErrAlreadyUsed
			}
		}
	}

	return nil
}

// ValidateClaims validates c at now against an optional replay identifier.
func ValidateClaims(c *Claims, now time.Time, replayID string) error {
	return ClaimsValidator{ReplayID: replayID}.Validate(c, now)
}
