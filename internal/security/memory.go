package security

import (
	"bytes"
	"crypto/subtle"
	"runtime"
	"strings"
	"sync"
)

// MinSecretLength is the secret length below which a symmetric secret is reported weak.
const MinSecretLength = 32

// SecureBytes holds key material that is zeroed when no longer needed.
type SecureBytes struct {
	data []byte
	mu   sync.Mutex
}

// NewSecureBytesFromSlice copies data into a new SecureBytes.
// The caller remains responsible for zeroing its own copy.
func NewSecureBytesFromSlice(data []byte) *SecureBytes {
	secure := &SecureBytes{
		data: make([]byte, len(data)),
	}
	copy(secure.data, data)

	runtime.SetFinalizer(secure, (*SecureBytes).destroy)
	return secure
}

// Bytes returns the underlying byte slice (use with caution)
func (s *SecureBytes) Bytes() []byte {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data
}

// Len returns the number of held bytes, zero after Destroy.
func (s *SecureBytes) Len() int {
	if s == nil {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.data)
}

// Copy returns an independent SecureBytes with the same content.
func (s *SecureBytes) Copy() *SecureBytes {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.data == nil {
		return &SecureBytes{}
	}
	return NewSecureBytesFromSlice(s.data)
}

// Destroy zeroes the memory. It is safe to call more than once.
func (s *SecureBytes) Destroy() {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.destroy()
	runtime.SetFinalizer(s, nil)
}

func (s *SecureBytes) destroy() {
	if s.data != nil {
		ZeroBytes(s.data)
		s.data = nil
	}
}

// ZeroBytes overwrites a byte slice with zeros.
func ZeroBytes(data []byte) {
	if len(data) == 0 {
		return
	}

	clear(data)
	runtime.KeepAlive(data)
}

// SecureCompare performs constant-time comparison of two byte slices
func SecureCompare(a, b []byte) bool {
	return subtle.ConstantTimeCompare(a, b) == 1
}

var weakPatterns = []string{
	"12345678", "87654321", "abcdefgh", "qwerty", "asdfgh", "zxcvbn",
	"letmein", "welcome", "default", "example", "changeme",
	"password", "secret", "admin", "token",
}

// IsWeakKey reports symmetric secrets that are short, repetitive or built
// from well-known words. It is advisory: the token engine accepts any
// non-empty secret, configuration validation warns on weak ones.
func IsWeakKey(key []byte) bool {
	if len(key) < MinSecretLength {
		return true
	}

	unique := make(map[byte]struct{}, len(key))
	for _, b := range key {
		unique[b] = struct{}{}
	}
	if float64(len(unique))/float64(len(key)) < 0.3 {
		return true
	}

	for patternLen := 1; patternLen <= 4; patternLen++ {
		if isRepeated(key, patternLen) {
			return true
		}
	}

	lower := strings.ToLower(string(key))
	for _, pattern := range weakPatterns {
		if strings.Contains(lower, pattern) {
			return true
		}
	}

	return false
}

// isRepeated reports whether key is its first patternLen bytes repeated.
func isRepeated(key []byte, patternLen int) bool {
	if len(key) < patternLen*3 {
		return false
	}
	pattern := key[:patternLen]
	for i := patternLen; i < len(key); i += patternLen {
		end := min(i+patternLen, len(key))
		if !bytes.Equal(key[i:end], pattern[:end-i]) {
			return false
		}
	}
	return true
}
