package jose

import (
	"context"
	"time"
)

// VerifyOption customizes a verification call.
type VerifyOption func(*verifyOptions)

type verifyOptions struct {
	ctx      context.Context
	now      func() time.Time
	leeway   time.Duration
	replayID string
	allowed  []Algorithm
	store    ReplayStore
}

func newVerifyOptions(opts []VerifyOption) *verifyOptions {
	o := &verifyOptions{
		ctx: context.Background(),
		now: time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	return o
}

func (o *verifyOptions) validator() ClaimsValidator {
	return ClaimsValidator{Leeway: o.leeway, ReplayID: o.replayID}
}

func (o *verifyOptions) permits(alg Algorithm) bool {
	if len(o.allowed) == 0 {
		return true
	}
	for _, a := range o.allowed {
		if a == alg {
			return true
		}
	}
	return false
}

// WithClock overrides the time source used for exp and nbf checks.
func WithClock(now func() time.Time) VerifyOption {
	return func(o *verifyOptions) {
		if now != nil {
			o.now = now
		}
	}
}

// WithLeeway tolerates clock skew when comparing exp and nbf.
func WithLeeway(d time.Duration) VerifyOption {
	return func(o *verifyOptions) {
		if d > 0 {
			o.leeway = d
		}
	}
}

// WithReplayID rejects a token whose jti equals id with ResultAlreadyUsed.
func WithReplayID(id string) VerifyOption {
	return func(o *verifyOptions) {
		o.replayID = id
	}
}

// WithAllowedAlgorithms restricts the header algorithms the caller accepts.
// A token declaring any other algorithm yields ResultError.
func WithAllowedAlgorithms(algs ...Algorithm) VerifyOption {
	return func(o *verifyOptions) {
		o.allowed = append([]Algorithm(nil), algs...)
	}
}

// WithReplayStore records the jti of every otherwise valid token in store,
// so a second presentation yields ResultAlreadyUsed.
func WithReplayStore(store ReplayStore) VerifyOption {
	return func(o *verifyOptions) {
		o.store = store
	}
}

// WithContext sets the context passed to the replay store.
func WithContext(ctx context.Context) VerifyOption {
	return func(o *verifyOptions) {
		if ctx != nil {
			o.ctx = ctx
		}
	}
}
