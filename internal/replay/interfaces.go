// Package replay tracks token identifiers that must not be accepted again:
// one-time tokens that were already presented and tokens that were revoked.
package replay

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrClosed is returned by a closed store or guard.
	ErrClosed = errors.New("replay store is closed")

	// ErrEmptyID is returned when an identifier is empty.
	ErrEmptyID = errors.New("token ID cannot be empty")

	// ErrStoreFull is returned when a bounded store has no expired entry
	// to make room for a new identifier.
	ErrStoreFull = errors.New("replay store is full")
)

// Store defines the interface for replay storage implementations.
type Store interface {
	// Record stores id until expiresAt. It reports true when id was already
	// present and unexpired; the check and the insert are atomic.
	Record(ctx context.Context, id string, expiresAt time.Time) (bool, error)

	// Contains reports whether id is present and unexpired.
	Contains(ctx context.Context, id string) (bool, error)

	// Remove deletes id.
	Remove(ctx context.Context, id string) error

	// Cleanup removes expired entries and returns how many were removed.
	Cleanup(ctx context.Context) (int, error)

	// Size returns the current number of entries.
	Size(ctx context.Context) (int, error)

	// Close closes the store and releases resources.
	Close() error
}

// Config represents replay store configuration.
type Config struct {
	// Backend selects the store: "memory" or "redis".
	Backend string `koanf:"backend"`

	// CleanupInterval defines how often expired entries are removed.
	CleanupInterval time.Duration `koanf:"cleanup_interval"`

	// MaxSize bounds the in-memory store.
	MaxSize int `koanf:"max_size"`

	// EnableAutoCleanup runs Cleanup every CleanupInterval.
	EnableAutoCleanup bool `koanf:"enable_auto_cleanup"`

	// RedisAddr is the address of the Redis server for the redis backend.
	RedisAddr string `koanf:"redis_addr"`

	// RedisPassword authenticates to Redis.
	RedisPassword string `koanf:"redis_password"`

	// RedisDB selects the Redis database.
	RedisDB int `koanf:"redis_db"`

	// KeyPrefix namespaces Redis keys.
	KeyPrefix string `koanf:"key_prefix"`
}

const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// DefaultConfig returns the default replay configuration.
func DefaultConfig() Config {
	return Config{
		Backend:           BackendMemory,
		CleanupInterval:   5 * time.Minute,
		MaxSize:           100000,
		EnableAutoCleanup: true,
		KeyPrefix:         "jose:jti:",
	}
}
