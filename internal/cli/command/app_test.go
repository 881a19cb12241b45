package command

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cybergodev/jose"
)

const testSecret = "Kx9#mP2$vL8@nQ5!wR7&tY3^uI6*oE4%aS1+dF0-gH9~jK2#bN5$cM8@xZ7&vB4!"

// run executes josectl with args and stdin, returning stdout and stderr.
func run(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	app := App()
	var stdout, stderr bytes.Buffer
	app.Reader = strings.NewReader(stdin)
	app.Writer = &stdout
	app.ErrWriter = &stderr

	err := app.Run(append([]string{"josectl"}, args...))
	return stdout.String(), stderr.String(), err
}

func hmacEnv(t *testing.T) {
	t.Setenv("JOSE_SECRET", testSecret)
	t.Setenv("JOSE_ISSUER", "josectl-test")
	t.Setenv("JOSE_REPLAY__ENABLE_AUTO_CLEANUP", "false")
}

func TestAppCommands(t *testing.T) {
	app := App()
	if app.Name != "josectl" {
		t.Errorf("Name = %q", app.Name)
	}

	names := make(map[string]bool)
	for _, cmd := range app.Commands {
		names[cmd.Name] = true
	}
	for _, want := range []string{"keygen", "sign", "verify", "encrypt", "decrypt"} {
		if !names[want] {
			t.Errorf("missing command: %s", want)
		}
	}

	flags := make(map[string]bool)
	for _, f := range app.Flags {
		flags[f.Names()[0]] = true
	}
	if !flags["config"] || !flags["log-level"] || !flags["log-format"] || !flags["issuer"] {
		t.Errorf("global flags = %v", flags)
	}
}

func TestKeygenHMAC(t *testing.T) {
	out, _, err := run(t, "", "keygen", "--type", "hmac")
	if err != nil {
		t.Fatalf("keygen failed: %v", err)
	}

	secret, err := jose.DecodeSegment(strings.TrimSpace(out))
	if err != nil {
		t.Fatalf("secret is not base64url: %v", err)
	}
	if len(secret) != hmacSecretBytes {
		t.Errorf("secret length = %d, want %d", len(secret), hmacSecretBytes)
	}
}

func TestKeygenRSA(t *testing.T) {
	prefix := filepath.Join(t.TempDir(), "signer")
	out, _, err := run(t, "", "keygen", "--out", prefix)
	if err != nil {
		t.Fatalf("keygen failed: %v", err)
	}
	if !strings.Contains(out, "signer.pem") {
		t.Errorf("output = %q", out)
	}

	privPEM, err := os.ReadFile(prefix + ".pem")
	if err != nil {
		t.Fatalf("read private key: %v", err)
	}
	priv, err := jose.ParseRSAPrivateKeyPEM(privPEM)
	if err != nil || !priv.HasPrivate() {
		t.Fatalf("parse private key: %v", err)
	}

	pubPEM, err := os.ReadFile(prefix + ".pub.pem")
	if err != nil {
		t.Fatalf("read public key: %v", err)
	}
	if _, err := jose.ParseRSAPublicKeyPEM(pubPEM); err != nil {
		t.Fatalf("parse public key: %v", err)
	}

	info, err := os.Stat(prefix + ".pem")
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Errorf("private key mode = %v, want 0600", info.Mode().Perm())
	}
}

func TestKeygenErrors(t *testing.T) {
	if _, _, err := run(t, "", "keygen", "--bits", "1024"); err == nil {
		t.Error("1024-bit RSA should be rejected")
	}
	if _, _, err := run(t, "", "keygen", "--type", "ec"); err == nil {
		t.Error("unknown key type should be rejected")
	}
}

func TestSignAndVerify(t *testing.T) {
	hmacEnv(t)

	out, _, err := run(t, `{"role":"admin"}`, "sign", "--sub", "alice")
	if err != nil {
		t.Fatalf("sign failed: %v", err)
	}
	token := strings.TrimSpace(out)
	if strings.Count(token, ".") != 2 {
		t.Fatalf("token = %q", token)
	}

	out, _, err = run(t, token+"\n", "verify")
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if !strings.HasPrefix(out, "Valid\n") {
		t.Errorf("verify output = %q", out)
	}
	for _, want := range []string{`"sub": "alice"`, `"role": "admin"`, `"iss": "josectl-test"`} {
		if !strings.Contains(out, want) {
			t.Errorf("verify output missing %s:\n%s", want, out)
		}
	}

	out, _, err = run(t, "", "verify", "--quiet", token)
	if err != nil || out != "Valid\n" {
		t.Errorf("quiet verify = %q, %v", out, err)
	}

	tampered := token[:len(token)-4] + "AAAA"
	if tampered == token {
		tampered = token[:len(token)-4] + "BBBB"
	}
	out, _, err = run(t, "", "verify", tampered)
	if err == nil {
		t.Fatal("tampered token should fail verification")
	}
	if !strings.HasPrefix(out, "Invalid") && !strings.HasPrefix(out, "StructurallyInvalid") {
		t.Errorf("tampered verify output = %q", out)
	}
}

func TestSignErrors(t *testing.T) {
	if _, _, err := run(t, "", "sign", `{"sub":"alice"}`); !errors.Is(err, jose.ErrInvalidConfig) {
		t.Errorf("sign without a secret: %v, want ErrInvalidConfig", err)
	}

	hmacEnv(t)

	if _, _, err := run(t, "", "sign"); err == nil {
		t.Error("sign without input should fail")
	}
	if _, _, err := run(t, "", "sign", "{not json"); !errors.Is(err, jose.ErrSerialization) {
		t.Errorf("malformed claims: %v", err)
	}
	if _, _, err := run(t, "", "sign", `{"role":"admin"}`); !errors.Is(err, jose.ErrInvalidClaims) {
		t.Errorf("claims without sub: %v", err)
	}
}

func TestEncryptDecryptWithConfigFile(t *testing.T) {
	dir := t.TempDir()
	prefix := filepath.Join(dir, "recipient")
	if _, _, err := run(t, "", "keygen", "--out", prefix); err != nil {
		t.Fatalf("keygen failed: %v", err)
	}

	config := filepath.Join(dir, "jose.yaml")
	content := "algorithm: RS256\n" +
		"private_key_file: " + prefix + ".pem\n" +
		"encryption:\n" +
		"  enc: A128GCM\n" +
		"  private_key_file: " + prefix + ".pem\n" +
		"replay:\n" +
		"  enable_auto_cleanup: false\n"
	if err := os.WriteFile(config, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	out, _, err := run(t, "attack at dawn", "--config", config, "encrypt")
	if err != nil {
		t.Fatalf("encrypt failed: %v", err)
	}
	token := strings.TrimSpace(out)
	if strings.Count(token, ".") != 4 {
		t.Fatalf("token = %q", token)
	}

	out, _, err = run(t, "", "--config", config, "decrypt", token)
	if err != nil {
		t.Fatalf("decrypt failed: %v", err)
	}
	if out != "attack at dawn\n" {
		t.Errorf("decrypt output = %q", out)
	}

	out, _, err = run(t, "", "--config", config, "sign", `{"sub":"svc"}`)
	if err != nil {
		t.Fatalf("RS256 sign failed: %v", err)
	}
	if _, _, err := run(t, "", "--config", config, "verify", strings.TrimSpace(out)); err != nil {
		t.Errorf("RS256 verify failed: %v", err)
	}
}

func TestLogLevelOverride(t *testing.T) {
	dir := t.TempDir()
	prefix := filepath.Join(dir, "recipient")
	if _, _, err := run(t, "", "keygen", "--out", prefix); err != nil {
		t.Fatalf("keygen failed: %v", err)
	}
	hmacEnv(t)
	t.Setenv("JOSE_ENCRYPTION__PRIVATE_KEY_FILE", prefix+".pem")

	_, stderr, err := run(t, "", "--log-level", "debug", "decrypt", "a.b.c.d.e")
	if !errors.Is(err, jose.ErrStructural) && !errors.Is(err, jose.ErrDecryptionFailed) {
		t.Errorf("decrypt garbage: %v", err)
	}
	if !strings.Contains(stderr, "token decryption failed") {
		t.Errorf("debug log missing from stderr: %q", stderr)
	}

	_, stderr, _ = run(t, "", "decrypt", "a.b.c.d.e")
	if strings.Contains(stderr, "token decryption failed") {
		t.Errorf("info level should hide debug logs: %q", stderr)
	}
}

func TestFlagsOverrideEnvironment(t *testing.T) {
	dir := t.TempDir()
	prefix := filepath.Join(dir, "recipient")
	if _, _, err := run(t, "", "keygen", "--out", prefix); err != nil {
		t.Fatalf("keygen failed: %v", err)
	}
	hmacEnv(t)
	t.Setenv("JOSE_ENCRYPTION__PRIVATE_KEY_FILE", prefix+".pem")
	t.Setenv("JOSE_LOG__LEVEL", "debug")

	_, stderr, _ := run(t, "", "decrypt", "a.b.c.d.e")
	if !strings.Contains(stderr, "token decryption failed") {
		t.Errorf("JOSE_LOG__LEVEL=debug should enable debug logs: %q", stderr)
	}

	_, stderr, _ = run(t, "", "--log-level", "error", "decrypt", "a.b.c.d.e")
	if strings.Contains(stderr, "token decryption failed") {
		t.Errorf("--log-level should win over the environment: %q", stderr)
	}

	_, stderr, _ = run(t, "", "--log-format", "text", "decrypt", "a.b.c.d.e")
	if !strings.Contains(stderr, "msg=\"token decryption failed\"") {
		t.Errorf("--log-format text should switch the handler: %q", stderr)
	}

	out, _, err := run(t, "", "--issuer", "other-issuer", "sign", `{"sub":"alice"}`)
	if err != nil {
		t.Fatalf("sign failed: %v", err)
	}
	token := strings.TrimSpace(out)

	if _, _, err := run(t, "", "--issuer", "other-issuer", "verify", "--quiet", token); err != nil {
		t.Errorf("verify with the same issuer override: %v", err)
	}
	out, _, err = run(t, "", "verify", token)
	if err == nil || !strings.HasPrefix(out, "Invalid") {
		t.Errorf("verify under the env issuer = %q, %v, want Invalid", out, err)
	}
}
