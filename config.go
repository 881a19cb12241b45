package jose

import (
	"fmt"
	"os"
	"time"

	"github.com/cybergodev/jose/internal/confloader"
	"github.com/cybergodev/jose/internal/logger"
	"github.com/cybergodev/jose/internal/replay"
)

// LogConfig configures structured logging.
type LogConfig = logger.Config

// Config represents Processor configuration. It can be built in code from
// DefaultConfig or loaded from YAML and JOSE_ environment variables with
// LoadConfig.
type Config struct {
	// Issuer is stamped into the iss claim of every issued token.
	Issuer string `koanf:"issuer"`

	// TTL is the lifetime of issued tokens.
	TTL time.Duration `koanf:"ttl"`

	// Algorithm is the JOSE name of the signing algorithm, e.g. "HS256".
	Algorithm string `koanf:"algorithm"`

	// Secret is the HMAC secret for HS algorithms.
	Secret string `koanf:"secret"`

	// PrivateKeyFile and PublicKeyFile are PEM files for RS algorithms.
	// A public key alone yields a verify-only Processor.
	PrivateKeyFile string `koanf:"private_key_file"`
	PublicKeyFile  string `koanf:"public_key_file"`

	// Leeway tolerates clock skew on exp and nbf.
	Leeway time.Duration `koanf:"leeway"`

	Encryption EncryptionConfig `koanf:"encryption"`
	RateLimit  RateLimitConfig  `koanf:"rate_limit"`
	Replay     ReplayConfig     `koanf:"replay"`
	Log        LogConfig        `koanf:"log"`
}

// EncryptionConfig configures encrypted tokens.
type EncryptionConfig struct {
	// Enc is the content encryption mode, "A128GCM" or "A256GCM".
	Enc string `koanf:"enc"`

	// RecipientKeyFile is the PEM public key tokens are encrypted to.
	RecipientKeyFile string `koanf:"recipient_key_file"`

	// PrivateKeyFile is the PEM private key used to decrypt. It also
	// serves as the recipient when RecipientKeyFile is empty.
	PrivateKeyFile string `koanf:"private_key_file"`
}

// RateLimitConfig configures per-subject issuance limits.
type RateLimitConfig struct {
	Enabled bool          `koanf:"enabled"`
	Rate    int           `koanf:"rate"`
	Window  time.Duration `koanf:"window"`
}

// DefaultConfig returns a secure default configuration. A secret or key
// file still has to be supplied.
func DefaultConfig() Config {
	return Config{
		Issuer:    "jose",
		TTL:       15 * time.Minute,
		Algorithm: HS256.String(),
		Encryption: EncryptionConfig{
			Enc: A256GCM.String(),
		},
		RateLimit: RateLimitConfig{
			Enabled: false,
			Rate:    100,
			Window:  time.Minute,
		},
		Replay: DefaultReplayConfig(),
		Log:    logger.DefaultConfig(),
	}
}

// LoadConfig reads path (optional) and JOSE_ environment variables over
// DefaultConfig and validates the result.
func LoadConfig(path string) (Config, error) {
	return LoadConfigWithOverrides(path, nil)
}

// LoadConfigWithOverrides is LoadConfig with a final layer of values keyed
// by dotted koanf path, e.g. {"log.level": "debug"}. Nil values are
// skipped, so unset command-line flags can be passed through as nil.
func LoadConfigWithOverrides(path string, overrides map[string]any) (Config, error) {
	cfg := DefaultConfig()

	loader := confloader.NewLoader(
		confloader.WithConfigFile(path),
		confloader.WithOverrides(overrides),
	)
	if err := loader.Load(&cfg); err != nil {
		return Config{}, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate validates the configuration and returns a *ValidationError
// wrapping ErrInvalidConfig for the first problem found.
func (c *Config) Validate() error {
	if c == nil {
		return ErrInvalidConfig
	}
	if err := c.validateSettings(); err != nil {
		return err
	}

	alg, _ := c.SigningAlgorithm()
	desc, _ := Describe(alg)
	switch desc.Kind {
	case KindSymmetricSignature:
		if c.Secret == "" {
			return invalidField("secret", fmt.Sprintf("required for %s", alg))
		}
	case KindAsymmetricSignature:
		if c.PrivateKeyFile == "" && c.PublicKeyFile == "" {
			return invalidField("private_key_file", fmt.Sprintf("a private or public key file is required for %s", alg))
		}
	}

	return nil
}

// validateSettings checks everything except key material, which New
// receives directly.
func (c *Config) validateSettings() error {
	if c.Issuer == "" {
		return invalidField("issuer", "must not be empty")
	}
	if len(c.Issuer) > maxStringLength {
		return invalidField("issuer", fmt.Sprintf("too long: maximum %d characters", maxStringLength))
	}

	if c.TTL <= 0 {
		return invalidField("ttl", "must be positive")
	}
	if c.Leeway < 0 {
		return invalidField("leeway", "must not be negative")
	}

	if _, err := c.SigningAlgorithm(); err != nil {
		return &ValidationError{Field: "algorithm", Message: err.Error(), Err: ErrInvalidConfig}
	}

	if _, err := c.ContentEncryption(); err != nil {
		return &ValidationError{Field: "encryption.enc", Message: err.Error(), Err: ErrInvalidConfig}
	}

	if c.RateLimit.Enabled {
		if c.RateLimit.Rate <= 0 {
			return invalidField("rate_limit.rate", "must be positive")
		}
		if c.RateLimit.Window <= 0 {
			return invalidField("rate_limit.window", "must be positive")
		}
	}

	switch c.Replay.Backend {
	case replay.BackendMemory, "":
		if c.Replay.MaxSize <= 0 {
			return invalidField("replay.max_size", "must be positive")
		}
	case replay.BackendRedis:
		if c.Replay.RedisAddr == "" {
			return invalidField("replay.redis_addr", "required for the redis backend")
		}
	default:
		return invalidField("replay.backend", fmt.Sprintf("unknown backend %q", c.Replay.Backend))
	}

	return nil
}

// SigningAlgorithm resolves Algorithm to a signing algorithm.
func (c *Config) SigningAlgorithm() (Algorithm, error) {
	alg, err := LookupAlgorithm(c.Algorithm)
	if err != nil {
		return 0, err
	}
	if !alg.IsSigning() {
		return 0, fmt.Errorf("%w: %s cannot sign", ErrUnsupportedAlgorithm, c.Algorithm)
	}
	return alg, nil
}

// ContentEncryption resolves Encryption.Enc.
func (c *Config) ContentEncryption() (ContentEncryption, error) {
	return LookupContentEncryption(c.Encryption.Enc)
}

// LoadSigningKey builds the signing key named by the configuration.
func (c *Config) LoadSigningKey() (Key, error) {
	alg, err := c.SigningAlgorithm()
	if err != nil {
		return Key{}, err
	}

	desc, _ := Describe(alg)
	if desc.Kind == KindSymmetricSignature {
		if c.Secret == "" {
			return Key{}, ErrMissingSecret
		}
		return SecretKey([]byte(c.Secret)), nil
	}

	if c.PrivateKeyFile != "" {
		return readPrivateKey(c.PrivateKeyFile)
	}
	if c.PublicKeyFile != "" {
		return readPublicKey(c.PublicKeyFile)
	}
	return Key{}, ErrMissingPrivateKey
}

// LoadEncryptionKey builds the recipient key for encrypted tokens. It
// returns a zero Key when encryption is not configured.
func (c *Config) LoadEncryptionKey() (Key, error) {
	switch {
	case c.Encryption.PrivateKeyFile != "":
		return readPrivateKey(c.Encryption.PrivateKeyFile)
	case c.Encryption.RecipientKeyFile != "":
		return readPublicKey(c.Encryption.RecipientKeyFile)
	default:
		return Key{}, nil
	}
}

func readPrivateKey(path string) (Key, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Key{}, fmt.Errorf("%w: %v", ErrMissingKeyMaterial, err)
	}
	return ParseRSAPrivateKeyPEM(data)
}

func readPublicKey(path string) (Key, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Key{}, fmt.Errorf("%w: %v", ErrMissingKeyMaterial, err)
	}
	return ParseRSAPublicKeyPEM(data)
}

func invalidField(field, message string) error {
	return &ValidationError{Field: field, Message: message, Err: ErrInvalidConfig}
}
