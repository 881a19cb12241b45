package jose

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/cybergodev/jose/internal/logger"
	"github.com/cybergodev/jose/internal/replay"
)

// ReplayStore remembers token identifiers. Record reports whether jti was
// already recorded and unexpired; implementations must make the check and
// the insert atomic.
type ReplayStore interface {
	Record(ctx context.Context, jti string, expiresAt time.Time) (bool, error)
}

// ErrReplayStoreFull is returned, wrapped, when a bounded in-memory store
// cannot record an identifier without forgetting a live one.
var ErrReplayStoreFull = replay.ErrStoreFull

// ReplayConfig configures the replay store used for one-time tokens and
// revocation.
type ReplayConfig = replay.Config

// ReplayGuard is a replay store with lifecycle management. It satisfies
// ReplayStore and also supports revocation lookups.
type ReplayGuard = replay.Guard

// DefaultReplayConfig returns an in-memory configuration with auto cleanup.
func DefaultReplayConfig() ReplayConfig {
	return replay.DefaultConfig()
}

// NewMemoryReplayStore returns an in-memory store holding at most maxSize
// identifiers. Call Close to stop its cleanup goroutine.
func NewMemoryReplayStore(maxSize int) *ReplayGuard {
	cfg := replay.DefaultConfig()
	cfg.MaxSize = maxSize
	return replay.NewGuard(replay.NewMemoryStore(maxSize), cfg, logger.Default())
}

// NewRedisReplayStore returns a store backed by client. Keys are written as
// prefix+jti with a TTL matching the token expiry.
func NewRedisReplayStore(client redis.UniversalClient, prefix string) *ReplayGuard {
	cfg := replay.DefaultConfig()
	cfg.EnableAutoCleanup = false
	cfg.KeyPrefix = prefix
	return replay.NewGuard(replay.NewRedisStore(client, prefix), cfg, logger.Default())
}
