package core

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrEmptyToken    = errors.New("empty token")
	ErrTokenTooLarge = fmt.Errorf("token too large: maximum %d characters allowed", MaxTokenLength)
	ErrSegmentCount  = errors.New("unexpected segment count")
	ErrMissingAlg    = errors.New("header does not declare an algorithm")
)

// Split splits a compact token into exactly n segments.
func Split(token string, n int) ([]string, error) {
	tokenLen := len(token)
	if tokenLen == 0 {
		return nil, ErrEmptyToken
	}

	if tokenLen > MaxTokenLength {
		return nil, ErrTokenTooLarge
	}

	parts, ok := splitExact(token, '.', n)
	if !ok {
		return nil, fmt.Errorf("%w: expected %d, got %d", ErrSegmentCount, n, strings.Count(token, ".")+1)
	}

	return parts, nil
}

func splitExact(s string, sep byte, n int) ([]string, bool) {
	parts := make([]string, 0, n)
	start := 0

	for i := 0; i < len(s); i++ {
		if s[i] != sep {
			continue
		}
		if len(parts) == n-1 {
			return nil, false
		}
		parts = append(parts, s[start:i])
		start = i + 1
	}

	if len(parts) != n-1 {
		return nil, false
	}

	return append(parts, s[start:]), true
}

// Join assembles segments into a compact token.
func Join(segments ...string) string {
	size := len(segments) - 1
	for _, s := range segments {
		size += len(s)
	}

	var b strings.Builder
	b.Grow(size)
	for i, s := range segments {
		if i > 0 {
			b.WriteByte('.')
		}
		b.WriteString(s)
	}

	return b.String()
}

// ParseHeader decodes a header segment and requires a non-empty alg.
func ParseHeader(segment string) (Header, error) {
	var h Header
	if err := DecodeJSON(segment, &h); err != nil {
		return Header{}, fmt.Errorf("failed to decode header: %w", err)
	}

	if h.Alg == "" {
		return Header{}, ErrMissingAlg
	}

	return h, nil
}

var insecureAlgorithms = map[string]struct{}{
	"":      {},
	"NONE":  {},
	"NULL":  {},
	"PLAIN": {},
	"HS1":   {},
	"RS1":   {},
	"ES1":   {},
	"HS224": {},
	"RS224": {},
	"ES224": {},
}

// IsInsecureAlgorithm reports algorithm names that are refused regardless of case.
func IsInsecureAlgorithm(alg string) bool {
	upper := strings.ToUpper(strings.TrimSpace(alg))
	_, exists := insecureAlgorithms[upper]
	return exists
}
