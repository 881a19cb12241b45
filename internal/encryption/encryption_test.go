package encryption

import (
	"bytes"
	"crypto/rand"
	"crypto/rsa"
	"errors"
	"sync"
	"testing"
)

var (
	testRSAOnce sync.Once
	testRSAKeys [2]*rsa.PrivateKey
)

func rsaKeys(t testing.TB) (*rsa.PrivateKey, *rsa.PrivateKey) {
	t.Helper()
	testRSAOnce.Do(func() {
		for i := range testRSAKeys {
			k, err := rsa.GenerateKey(rand.Reader, 2048)
			if err != nil {
				panic(err)
			}
			testRSAKeys[i] = k
		}
	})
	return testRSAKeys[0], testRSAKeys[1]
}

func TestGCMSealOpen(t *testing.T) {
	for _, size := range []int{16, 32} {
		key, _ := RandomBytes(size)
		iv, _ := RandomBytes(IVSize)
		aad := []byte("eyJhbGciOiJSU0EtT0FFUCJ9")

		g, err := NewGCM(key)
		if err != nil {
			t.Fatalf("NewGCM(%d) failed: %v", size, err)
		}

		for _, plaintext := range [][]byte{{}, []byte("hello"), bytes.Repeat([]byte{0xff}, 1000)} {
			ct, tag, err := g.Seal(iv, plaintext, aad)
			if err != nil {
				t.Fatalf("Seal failed: %v", err)
			}
			if len(tag) != TagSize || len(ct) != len(plaintext) {
				t.Fatalf("unexpected sizes: ciphertext %d, tag %d", len(ct), len(tag))
			}

			got, err := g.Open(iv, ct, tag, aad)
			if err != nil {
				t.Fatalf("Open failed: %v", err)
			}
			if !bytes.Equal(got, plaintext) {
				t.Errorf("Open returned %q, want %q", got, plaintext)
			}

			if _, err := g.Open(iv, ct, tag, []byte("other-aad")); !errors.Is(err, ErrDecryptionFailed) {
				t.Errorf("expected ErrDecryptionFailed for altered aad, got %v", err)
			}
			badTag := append([]byte(nil), tag...)
			badTag[0] ^= 1
			if _, err := g.Open(iv, ct, badTag, aad); !errors.Is(err, ErrDecryptionFailed) {
				t.Errorf("expected ErrDecryptionFailed for altered tag, got %v", err)
			}
		}
	}
}

func TestGCMRejectsBadSizes(t *testing.T) {
	if _, err := NewGCM(make([]byte, 15)); err == nil {
		t.Error("expected error for 15 byte key")
	}

	key, _ := RandomBytes(32)
	g, _ := NewGCM(key)
	if _, _, err := g.Seal(make([]byte, 8), []byte("x"), nil); err == nil {
		t.Error("expected error for short IV on Seal")
	}
	if _, err := g.Open(make([]byte, 8), []byte("x"), make([]byte, TagSize), nil); !errors.Is(err, ErrDecryptionFailed) {
		t.Errorf("expected ErrDecryptionFailed for short IV, got %v", err)
	}
	if _, err := g.Open(make([]byte, IVSize), []byte("x"), make([]byte, 4), nil); !errors.Is(err, ErrDecryptionFailed) {
		t.Errorf("expected ErrDecryptionFailed for short tag, got %v", err)
	}
}

func TestWrapUnwrap(t *testing.T) {
	priv, other := rsaKeys(t)
	cek, _ := RandomBytes(32)

	wrapped, err := WrapKey(&priv.PublicKey, cek)
	if err != nil {
		t.Fatalf("WrapKey failed: %v", err)
	}

	got, err := UnwrapKey(priv, wrapped)
	if err != nil {
		t.Fatalf("UnwrapKey failed: %v", err)
	}
	if !bytes.Equal(got, cek) {
		t.Error("unwrapped key differs from original")
	}

	if _, err := UnwrapKey(other, wrapped); !errors.Is(err, ErrDecryptionFailed) {
		t.Errorf("expected ErrDecryptionFailed for unrelated key, got %v", err)
	}
	if _, err := UnwrapKey(nil, wrapped); !errors.Is(err, ErrDecryptionFailed) {
		t.Errorf("expected ErrDecryptionFailed for nil key, got %v", err)
	}
	if _, err := WrapKey(nil, cek); err == nil {
		t.Error("expected error for nil public key")
	}
}
