package core

import (
	"bytes"
	"crypto/rand"
	"strings"
	"testing"
)

func TestSegmentRoundTrip(t *testing.T) {
	for size := 0; size <= 1000; size++ {
		data := make([]byte, size)
		if _, err := rand.Read(data); err != nil {
			t.Fatalf("rand.Read failed: %v", err)
		}

		encoded := EncodeSegment(data)
		if strings.ContainsAny(encoded, "=+/") {
			t.Fatalf("size %d: encoded form %q contains non-url characters", size, encoded)
		}

		decoded, err := DecodeSegment(encoded)
		if err != nil {
			t.Fatalf("size %d: DecodeSegment failed: %v", size, err)
		}
		if !bytes.Equal(decoded, data) {
			t.Fatalf("size %d: round trip mismatch", size)
		}
	}
}

func TestEncodeSegmentStripsPadding(t *testing.T) {
	tests := []struct {
		in   []byte
		want string
	}{
		{[]byte{}, ""},
		{[]byte("f"), "Zg"},
		{[]byte("fo"), "Zm8"},
		{[]byte("foo"), "Zm9v"},
		{[]byte{0xfb, 0xff}, "-_8"},
	}

	for _, tt := range tests {
		if got := EncodeSegment(tt.in); got != tt.want {
			t.Errorf("EncodeSegment(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestDecodeSegmentRejects(t *testing.T) {
	tests := []struct {
		name    string
		segment string
	}{
		{"padded input", "Zg=="},
		{"standard alphabet plus", "+_8"},
		{"standard alphabet slash", "-/8"},
		{"remainder one", "Zm9vY"},
		{"whitespace", "Zm9v\n"},
		{"non-zero trailing bits", "Zh"},
		{"non-ascii", "Zm9vé"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := DecodeSegment(tt.segment); err == nil {
				t.Errorf("DecodeSegment(%q) expected error", tt.segment)
			}
		})
	}
}

func TestDecodeSegmentEmpty(t *testing.T) {
	out, err := DecodeSegment("")
	if err != nil {
		t.Fatalf("DecodeSegment(\"\") failed: %v", err)
	}
	if len(out) != 0 {
		t.Errorf("expected empty result, got %v", out)
	}
}

func TestDecodeJSON(t *testing.T) {
	var dest map[string]any
	if err := DecodeJSON(EncodeSegment([]byte(`{"sub":"u1"}`)), &dest); err != nil {
		t.Fatalf("DecodeJSON failed: %v", err)
	}
	if dest["sub"] != "u1" {
		t.Errorf("expected sub u1, got %v", dest["sub"])
	}

	if err := DecodeJSON(EncodeSegment([]byte(`{not json`)), &dest); err == nil {
		t.Error("expected error for invalid JSON")
	}
}
