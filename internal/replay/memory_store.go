package replay

import (
	"context"
	"sync"
	"time"
)

// memoryStore implements Store in process memory.
type memoryStore struct {
	// entries maps token ID to expiration time for O(1) lookup
	entries map[string]time.Time

	mu      sync.RWMutex
	maxSize int
	now     func() time.Time
	closed  bool
}

// NewMemoryStore creates a bounded in-memory store. When full, expired
// entries are dropped to make room; live entries are never evicted, so
// Record fails with ErrStoreFull until one expires.
func NewMemoryStore(maxSize int) Store {
	return newMemoryStore(maxSize, time.Now)
}

func newMemoryStore(maxSize int, now func() time.Time) *memoryStore {
	if maxSize <= 0 {
		maxSize = DefaultConfig().MaxSize
	}
	return &memoryStore{
		entries: make(map[string]time.Time, min(maxSize, 1024)),
		maxSize: maxSize,
		now:     now,
	}
}

func (m *memoryStore) Record(_ context.Context, id string, expiresAt time.Time) (bool, error) {
	if id == "" {
		return false, ErrEmptyID
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return false, ErrClosed
	}

	now := m.now()
	if existing, ok := m.entries[id]; ok && !now.After(existing) {
		return true, nil
	}

	if len(m.entries) >= m.maxSize {
		m.cleanupExpiredUnsafe(now)

		if len(m.entries) >= m.maxSize {
			return false, ErrStoreFull
		}
	}

	m.entries[id] = expiresAt
	return false, nil
}

func (m *memoryStore) Contains(_ context.Context, id string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return false, ErrClosed
	}

	expiresAt, exists := m.entries[id]
	if !exists {
		return false, nil
	}

	// Expired entries are left for Cleanup to avoid a write lock here.
	return !m.now().After(expiresAt), nil
}

func (m *memoryStore) Remove(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}

	delete(m.entries, id)
	return nil
}

func (m *memoryStore) Cleanup(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return 0, ErrClosed
	}

	return m.cleanupExpiredUnsafe(m.now()), nil
}

func (m *memoryStore) Size(_ context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return 0, ErrClosed
	}

	return len(m.entries), nil
}

func (m *memoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil
	}

	m.closed = true
	m.entries = nil
	return nil
}

// cleanupExpiredUnsafe removes expired entries (must be called with write lock held)
func (m *memoryStore) cleanupExpiredUnsafe(now time.Time) int {
	cleaned := 0
	for id, expiresAt := range m.entries {
		if now.After(expiresAt) {
			delete(m.entries, id)
			cleaned++
		}
	}
	return cleaned
}
