package jose

import (
	"crypto/rand"
	"crypto/rsa"
	"sync"
	"testing"
)

const testSecretKey = "Kx9#mP2$vL8@nQ5!wR7&tY3^uI6*oE4%aS1+dF0-gH9~jK2#bN5$cM8@xZ7&vB4!"

var (
	testRSAOnce sync.Once
	testRSAKeys [2]*rsa.PrivateKey
)

// testKeys returns two unrelated 2048-bit RSA keys, generated once per run.
func testKeys(t testing.TB) (*rsa.PrivateKey, *rsa.PrivateKey) {
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

func mustSign(t testing.TB, payload any, alg Algorithm, key Key) SignedToken {
	t.Helper()
	tok, err := Sign(payload, alg, key)
	if err != nil {
		t.Fatalf("Sign(%v) failed: %v", alg, err)
	}
	return tok
}
