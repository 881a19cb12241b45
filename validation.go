package jose

import (
	"fmt"
	"strings"
)

const (
	maxStringLength = 256
	maxArraySize    = 100
	maxCustomClaims = 50
)

var registeredClaims = map[string]struct{}{
	ClaimIssuer:    {},
	ClaimSubject:   {},
	ClaimAudience:  {},
	ClaimID:        {},
	ClaimExpiresAt: {},
	ClaimNotBefore: {},
	ClaimIssuedAt:  {},
}

// validateIssuedClaims checks claims handed to a Processor before they are
// stamped and signed. It applies only to issuance; verification accepts any
// well-formed payload.
func validateIssuedClaims(c *Claims) error {
	if c == nil {
		return &ValidationError{Field: ClaimSubject, Message: "claims are required", Err: ErrInvalidClaims}
	}

	sub, ok := c.Subject()
	if !ok || sub == "" {
		return &ValidationError{Field: ClaimSubject, Message: "subject is required", Err: ErrInvalidClaims}
	}

	for _, name := range []string{ClaimIssuer, ClaimSubject, ClaimID} {
		v, present := c.Get(name)
		if !present {
			continue
		}
		s, isString := v.(string)
		if !isString {
			return &ValidationError{Field: name, Message: "must be a string", Err: ErrInvalidClaims}
		}
		if err := validateString(name, s); err != nil {
			return err
		}
	}

	if _, present := c.Get(ClaimAudience); present {
		aud, ok := c.Audience()
		if !ok {
			return &ValidationError{Field: ClaimAudience, Message: "must be a string or an array of strings", Err: ErrInvalidClaims}
		}
		if err := validateStringArray(ClaimAudience, aud); err != nil {
			return err
		}
	}

	custom := 0
	for name, value := range c.values {
		if _, registered := registeredClaims[name]; registered {
			continue
		}

		custom++
		if custom > maxCustomClaims {
			return &ValidationError{
				Field:   "claims",
				Message: fmt.Sprintf("too many custom claims: maximum %d allowed", maxCustomClaims),
				Err:     ErrInvalidClaims,
			}
		}

		if err := validateString("claim name", name); err != nil {
			return err
		}
		if err := validateValue(name, value); err != nil {
			return err
		}
	}

	return nil
}

func validateValue(name string, value any) error {
	switch v := value.(type) {
	case string:
		return validateString(name, v)
	case []string:
		return validateStringArray(name, v)
	case []any:
		if len(v) > maxArraySize {
			return &ValidationError{
				Field:   name,
				Message: fmt.Sprintf("too many items: maximum %d allowed", maxArraySize),
				Err:     ErrInvalidClaims,
			}
		}
		for _, item := range v {
			if _, nested := item.(map[string]any); nested {
				return &ValidationError{Field: name, Message: "nested objects not allowed", Err: ErrInvalidClaims}
			}
			if s, ok := item.(string); ok {
				if err := validateString(name, s); err != nil {
					return err
				}
			}
		}
	case map[string]any:
		return &ValidationError{Field: name, Message: "nested objects not allowed", Err: ErrInvalidClaims}
	}
	return nil
}

func validateStringArray(name string, items []string) error {
	if len(items) > maxArraySize {
		return &ValidationError{
			Field:   name,
			Message: fmt.Sprintf("too many items: maximum %d allowed", maxArraySize),
			Err:     ErrInvalidClaims,
		}
	}
	for _, item := range items {
		if err := validateString(name, item); err != nil {
			return err
		}
	}
	return nil
}

func validateString(name, value string) error {
	if len(value) > maxStringLength {
		return &ValidationError{
			Field:   name,
			Message: fmt.Sprintf("too long: maximum %d characters", maxStringLength),
			Err:     ErrInvalidClaims,
		}
	}

	for i := 0; i < len(value); i++ {
		char := value[i]
		if char < 32 && char != '\t' && char != '\n' && char != '\r' {
			return &ValidationError{Field: name, Message: "contains invalid control character", Err: ErrInvalidClaims}
		}
	}

	if containsDangerousPattern(value) {
		return &ValidationError{Field: name, Message: "contains suspicious pattern", Err: ErrInvalidClaims}
	}

	return nil
}

var dangerousPatterns = [...]string{
	"<script", "javascript:", "data:", "eval(", "../", "file://", "vbscript:",
}

func containsDangerousPattern(value string) bool {
	if len(value) < 4 {
		return false
	}

	lower := strings.ToLower(value)
	for _, pattern := range dangerousPatterns {
		if strings.Contains(lower, pattern) {
			return true
		}
	}
	return false
}
