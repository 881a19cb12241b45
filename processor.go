package jose

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/cybergodev/jose/internal/logger"
	"github.com/cybergodev/jose/internal/replay"
	"github.com/cybergodev/jose/internal/security"
)

// replayDialTimeout bounds the connection check of a Redis replay store.
const replayDialTimeout = 5 * time.Second

// Processor issues, validates, revokes and encrypts tokens for one
// configured issuer. It owns copies of its keys and zeroes them on Close.
// It is safe for concurrent use.
type Processor struct {
	key    Key
	alg    Algorithm
	issuer string
	ttl    time.Duration
	leeway time.Duration

	encKey Key
	enc    ContentEncryption

	guard     *ReplayGuard
	ownsGuard bool
	limiter   *RateLimiter
	metrics   *Metrics
	log       logger.Logger
	now       func() time.Time

	mu     sync.RWMutex
	closed bool
}

// Option customizes a Processor.
type Option func(*processorOptions)

type processorOptions struct {
	log        logger.Logger
	registerer prometheus.Registerer
	guard      *ReplayGuard
	encKey     *Key
	now        func() time.Time
}

// WithLogger sets the processor logger.
func WithLogger(l Logger) Option {
	return func(o *processorOptions) {
		o.log = l
	}
}

// WithRegisterer registers the processor metrics with reg.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(o *processorOptions) {
		o.registerer = reg
	}
}

// WithRevocationStore uses guard for revocation instead of opening the
// configured replay backend. The caller keeps ownership of guard.
func WithRevocationStore(guard *ReplayGuard) Option {
	return func(o *processorOptions) {
		o.guard = guard
	}
}

// WithEncryptionKey sets the recipient key for EncryptToken and
// DecryptToken. A public key alone only allows encryption.
func WithEncryptionKey(key Key) Option {
	return func(o *processorOptions) {
		o.encKey = &key
	}
}

// WithTimeFunc overrides the time source used for issuing and validating.
func WithTimeFunc(now func() time.Time) Option {
	return func(o *processorOptions) {
		o.now = now
	}
}

// New creates a Processor that signs and verifies with key. Key material in
// cfg is ignored.
func New(key Key, cfg Config, opts ...Option) (*Processor, error) {
	if err := cfg.validateSettings(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	o := &processorOptions{}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	if o.log == nil {
		o.log = logger.Default()
	}

	return newProcessor(key, cfg, o)
}

// NewFromConfig creates a Processor whose keys are read from the files or
// secret named in cfg.
func NewFromConfig(cfg Config, opts ...Option) (*Processor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	o := &processorOptions{}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	if o.log == nil {
		o.log = logger.New(cfg.Log)
	}

	key, err := cfg.LoadSigningKey()
	if err != nil {
		return nil, fmt.Errorf("load signing key: %w", err)
	}
	defer key.Destroy()

	if o.encKey == nil {
		encKey, err := cfg.LoadEncryptionKey()
		if err != nil {
			return nil, fmt.Errorf("load encryption key: %w", err)
		}
		o.encKey = &encKey
	}

	return newProcessor(key, cfg, o)
}

func newProcessor(key Key, cfg Config, o *processorOptions) (*Processor, error) {
	alg, _ := cfg.SigningAlgorithm()
	enc, _ := cfg.ContentEncryption()
	desc, _ := Describe(alg)

	if _, err := key.verificationKey(desc); err != nil {
		return nil, fmt.Errorf("%w: key does not fit %s: %w", ErrInvalidConfig, alg, err)
	}

	log := o.log.With("component", "processor", "issuer", cfg.Issuer, "alg", alg.String())

	if key.IsSymmetric() && security.IsWeakKey(key.secret.Bytes()) {
		log.Warn("weak symmetric secret", "min_length", security.MinSecretLength)
	}

	p := &Processor{
		key:     key.clone(),
		alg:     alg,
		issuer:  cfg.Issuer,
		ttl:     cfg.TTL,
		leeway:  cfg.Leeway,
		enc:     enc,
		metrics: NewMetrics(o.registerer),
		log:     log,
		now:     time.Now,
	}
	if o.now != nil {
		p.now = o.now
	}
	if o.encKey != nil {
		p.encKey = o.encKey.clone()
	}

	if o.guard != nil {
		p.guard = o.guard
	} else {
		ctx, cancel := context.WithTimeout(context.Background(), replayDialTimeout)
		defer cancel()

		guard, err := replay.Open(ctx, cfg.Replay, log)
		if err != nil {
			p.key.Destroy()
			p.encKey.Destroy()
			return nil, fmt.Errorf("open replay store: %w", err)
		}
		p.guard = guard
		p.ownsGuard = true
	}

	if cfg.RateLimit.Enabled {
		p.limiter = NewRateLimiter(cfg.RateLimit.Rate, cfg.RateLimit.Window)
	}

	log.Info("processor started", "ttl", p.ttl, "replay_backend", cfg.Replay.Backend, "rate_limit", cfg.RateLimit.Enabled)

	runtime.SetFinalizer(p, (*Processor).finalize)
	return p, nil
}

// Algorithm returns the signing algorithm.
func (p *Processor) Algorithm() Algorithm {
	return p.alg
}

// CreateToken signs claims after stamping iss, iat, exp and jti where they
// are absent. The caller's claims are not modified.
func (p *Processor) CreateToken(claims *Claims) (string, error) {
	return p.CreateTokenWithContext(context.Background(), claims)
}

// CreateTokenWithContext is CreateToken with cancellation.
func (p *Processor) CreateTokenWithContext(ctx context.Context, claims *Claims) (string, error) {
	log := p.log.WithContext(ctx)
	start := time.Now()
	defer p.metrics.since("create", start)

	if err := validateIssuedClaims(claims); err != nil {
		return "", fmt.Errorf("claims validation failed: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return "", err
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return "", ErrProcessorClosed
	}

	sub, _ := claims.Subject()
	if p.limiter != nil && !p.limiter.Allow(sub) {
		log.Warn("token issuance rate limited", "sub", sub)
		return "", ErrRateLimitExceeded
	}

	c := claims.Clone()
	now := p.now()

	if _, ok := c.Get(ClaimIssuer); !ok {
		c.SetIssuer(p.issuer)
	}
	if _, ok := c.Get(ClaimIssuedAt); !ok {
		c.SetIssuedAt(now)
	}
	if _, ok := c.Get(ClaimExpiresAt); !ok {
		c.SetExpiresAt(now.Add(p.ttl))
	}
	if _, ok := c.Get(ClaimID); !ok {
		c.SetID(uuid.NewString())
	}

	tok, err := Sign(c, p.alg, p.key)
	if err != nil {
		log.Error("token signing failed", "error", err)
		return "", err
	}

	p.metrics.issued(kindSigned, p.alg.String())
	return tok.String(), nil
}

// ValidateToken verifies token against the processor key, issuer and
// revocation store. Claims are returned only for ResultValid.
//
// A token whose iss differs from the configured issuer is ResultInvalid,
// and a revoked token is ResultAlreadyUsed.
func (p *Processor) ValidateToken(token string) (*Claims, VerifyResult) {
	return p.ValidateTokenWithContext(context.Background(), token)
}

// ValidateTokenWithContext is ValidateToken with a context for the
// revocation lookup.
func (p *Processor) ValidateTokenWithContext(ctx context.Context, token string) (*Claims, VerifyResult) {
	start := time.Now()
	defer p.metrics.since("validate", start)

	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return nil, ResultError
	}

	log := p.log.WithContext(ctx)
	claims, result := p.validateLocked(ctx, log, token)
	p.metrics.verified(kindSigned, result)
	if result != ResultValid {
		log.Debug("token rejected", "result", result.String())
	}
	return claims, result
}

func (p *Processor) validateLocked(ctx context.Context, log logger.Logger, token string) (*Claims, VerifyResult) {
	payload, result, _ := verifyToken(token, p.key, newVerifyOptions([]VerifyOption{
		WithContext(ctx),
		WithClock(p.now),
		WithLeeway(p.leeway),
		WithAllowedAlgorithms(p.alg),
	}))
	if result != ResultValid {
		return nil, result
	}

	claims, err := ParseClaims(payload)
	if err != nil {
		return nil, ResultError
	}

	if iss, _ := claims.Issuer(); iss != p.issuer {
		log.Debug("issuer mismatch", "token_issuer", iss)
		return nil, ResultInvalid
	}

	if jti, ok := claims.ID(); ok && jti != "" {
		revoked, err := p.guard.IsRevoked(ctx, jti)
		if err != nil {
			log.Error("revocation check failed", "error", err)
			return nil, ResultError
		}
		if revoked {
			return nil, ResultAlreadyUsed
		}
	}

	return claims, ResultValid
}

// RevokeToken revokes a token issued by this processor until its expiry.
// Revoking an expired token is a no-op.
func (p *Processor) RevokeToken(token string) error {
	return p.RevokeTokenWithContext(context.Background(), token)
}

// RevokeTokenWithContext is RevokeToken with cancellation.
func (p *Processor) RevokeTokenWithContext(ctx context.Context, token string) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return ErrProcessorClosed
	}

	payload, result, err := verifyToken(token, p.key, newVerifyOptions([]VerifyOption{
		WithContext(ctx),
		WithClock(p.now),
		WithLeeway(p.leeway),
		WithAllowedAlgorithms(p.alg),
	}))
	switch result {
	case ResultValid:
	case ResultExpired:
		return nil
	default:
		return err
	}

	claims, err := ParseClaims(payload)
	if err != nil {
		return err
	}

	jti, ok := claims.ID()
	if !ok || jti == "" {
		return ErrTokenMissingID
	}

	expiresAt := p.now().Add(p.ttl)
	if exp, ok, _ := claims.ExpiresAt(); ok {
		expiresAt = exp.Time
	}

	if err := p.guard.Revoke(ctx, jti, expiresAt); err != nil {
		p.log.WithContext(ctx).Error("token revocation failed", "jti", jti, "error", err)
		return err
	}
	return nil
}

// RevokeTokenByID revokes jti until expiresAt.
func (p *Processor) RevokeTokenByID(jti string, expiresAt time.Time) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return ErrProcessorClosed
	}

	return p.guard.Revoke(context.Background(), jti, expiresAt)
}

// IsTokenRevoked reports whether the jti of token has been revoked. The
// signature is not checked.
func (p *Processor) IsTokenRevoked(token string) (bool, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return false, ErrProcessorClosed
	}

	t, err := ParseSigned(token)
	if err != nil {
		return false, err
	}

	claims, err := t.UnverifiedClaims()
	if err != nil {
		return false, err
	}

	jti, ok := claims.ID()
	if !ok || jti == "" {
		return false, ErrTokenMissingID
	}

	return p.guard.IsRevoked(context.Background(), jti)
}

// EncryptToken encrypts payload to the configured recipient key.
func (p *Processor) EncryptToken(payload any) (string, error) {
	start := time.Now()
	defer p.metrics.since("encrypt", start)

	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return "", ErrProcessorClosed
	}

	tok, err := Encrypt(payload, p.encKey, p.enc)
	if err != nil {
		return "", err
	}

	p.metrics.issued(kindEncrypted, RSAOAEP.String())
	return tok.String(), nil
}

// DecryptToken decrypts token with the configured recipient private key.
func (p *Processor) DecryptToken(token string) ([]byte, error) {
	start := time.Now()
	defer p.metrics.since("decrypt", start)

	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return nil, ErrProcessorClosed
	}

	plaintext, err := Decrypt(token, p.encKey)
	p.metrics.verified(kindEncrypted, ResultOf(err))
	if err != nil {
		p.log.Debug("token decryption failed", "error", err)
		return nil, err
	}
	return plaintext, nil
}

// Close zeroes the processor keys and stops background work. Calling Close
// twice returns ErrProcessorClosed.
func (p *Processor) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrProcessorClosed
	}
	p.closed = true
	runtime.SetFinalizer(p, nil)

	var errs []error
	if p.ownsGuard {
		if err := p.guard.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close replay store: %w", err))
		}
	}

	if p.limiter != nil {
		p.limiter.Close()
	}

	p.key.Destroy()
	p.encKey.Destroy()

	p.log.Info("processor closed")
	return errors.Join(errs...)
}

// IsClosed reports whether Close has been called.
func (p *Processor) IsClosed() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.closed
}

func (p *Processor) finalize() {
	if !p.IsClosed() {
		_ = p.Close()
	}
}
