package replay

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cybergodev/jose/internal/logger"
)

// Guard wraps a Store with lifecycle management and periodic cleanup.
type Guard struct {
	store  Store
	config Config
	log    logger.Logger
	mu     sync.RWMutex

	cleanupTicker *time.Ticker
	stopCleanup   chan struct{}
	cleanupWg     sync.WaitGroup

	closed bool
}

// NewGuard creates a guard over store. A nil log discards output.
func NewGuard(store Store, config Config, log logger.Logger) *Guard {
	if log == nil {
		log = logger.Nop()
	}

	g := &Guard{
		store:       store,
		config:      config,
		log:         log.With("component", "replay"),
		stopCleanup: make(chan struct{}),
	}

	if config.EnableAutoCleanup && config.CleanupInterval > 0 {
		g.startAutoCleanup()
	}

	return g
}

// Open builds the store selected by cfg.Backend and wraps it in a guard.
func Open(ctx context.Context, cfg Config, log logger.Logger) (*Guard, error) {
	var (
		store Store
		err   error
	)

	switch cfg.Backend {
	case "", BackendMemory:
		store = NewMemoryStore(cfg.MaxSize)
	case BackendRedis:
		store, err = DialRedisStore(ctx, cfg)
		if err != nil {
			return nil, err
		}
		// Redis expires keys on its own.
		cfg.EnableAutoCleanup = false
	default:
		return nil, fmt.Errorf("unknown replay backend %q", cfg.Backend)
	}

	return NewGuard(store, cfg, log), nil
}

// Record marks id as seen until expiresAt and reports whether it had
// already been seen.
func (g *Guard) Record(ctx context.Context, id string, expiresAt time.Time) (bool, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if g.closed {
		return false, ErrClosed
	}

	replayed, err := g.store.Record(ctx, id, expiresAt)
	if err != nil {
		return false, err
	}
	if replayed {
		g.log.Warn("replayed token rejected", "token_id", id)
	}
	return replayed, nil
}

// Revoke adds id until expiresAt. Revoking twice is not an error.
func (g *Guard) Revoke(ctx context.Context, id string, expiresAt time.Time) error {
	if id == "" {
		return ErrEmptyID
	}

	g.mu.RLock()
	defer g.mu.RUnlock()

	if g.closed {
		return ErrClosed
	}

	if _, err := g.store.Record(ctx, id, expiresAt); err != nil {
		return err
	}
	g.log.Info("token revoked", "token_id", id, "until", expiresAt.UTC())
	return nil
}

// IsRevoked reports whether id is present.
func (g *Guard) IsRevoked(ctx context.Context, id string) (bool, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if g.closed {
		return false, ErrClosed
	}

	if id == "" {
		return false, nil
	}

	return g.store.Contains(ctx, id)
}

// Size returns the number of tracked identifiers.
func (g *Guard) Size(ctx context.Context) (int, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if g.closed {
		return 0, ErrClosed
	}
	return g.store.Size(ctx)
}

// Close stops cleanup and closes the store.
func (g *Guard) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.closed {
		return nil
	}

	g.closed = true

	if g.cleanupTicker != nil {
		g.cleanupTicker.Stop()
		close(g.stopCleanup)
		g.cleanupWg.Wait()
	}

	return g.store.Close()
}

func (g *Guard) startAutoCleanup() {
	g.cleanupTicker = time.NewTicker(g.config.CleanupInterval)
	g.cleanupWg.Add(1)

	go func() {
		defer g.cleanupWg.Done()

		for {
			select {
			case <-g.cleanupTicker.C:
				g.performCleanup()
			case <-g.stopCleanup:
				return
			}
		}
	}()
}

func (g *Guard) performCleanup() {
	n, err := g.store.Cleanup(context.Background())
	if err != nil {
		g.log.Warn("replay cleanup failed", "error", err)
		return
	}
	if n > 0 {
		g.log.Debug("replay cleanup", "removed", n)
	}
}
