package replay

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// redisStore implements Store on Redis. Entries expire through key TTLs.
type redisStore struct {
	client     redis.UniversalClient
	prefix     string
	ownsClient bool
}

// NewRedisStore wraps an existing client. The caller keeps ownership of it.
func NewRedisStore(client redis.UniversalClient, prefix string) Store {
	return &redisStore{client: client, prefix: prefix}
}

// DialRedisStore connects to the Redis server named in cfg and pings it.
func DialRedisStore(ctx context.Context, cfg Config) (Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("replay redis unavailable: %w", err)
	}

	return &redisStore{client: client, prefix: cfg.KeyPrefix, ownsClient: true}, nil
}

func (r *redisStore) key(id string) string {
	return r.prefix + id
}

func (r *redisStore) Record(ctx context.Context, id string, expiresAt time.Time) (bool, error) {
	if id == "" {
		return false, ErrEmptyID
	}

	ttl := time.Until(expiresAt)
	if ttl < time.Second {
		ttl = time.Second
	}

	created, err := r.client.SetNX(ctx, r.key(id), expiresAt.Unix(), ttl).Result()
	if err != nil {
		return false, fmt.Errorf("replay record: %w", err)
	}

	return !created, nil
}

func (r *redisStore) Contains(ctx context.Context, id string) (bool, error) {
	n, err := r.client.Exists(ctx, r.key(id)).Result()
	if err != nil {
		return false, fmt.Errorf("replay lookup: %w", err)
	}
	return n > 0, nil
}

func (r *redisStore) Remove(ctx context.Context, id string) error {
	if err := r.client.Del(ctx, r.key(id)).Err(); err != nil {
		return fmt.Errorf("replay remove: %w", err)
	}
	return nil
}

// Cleanup is a no-op: Redis expires keys itself.
func (r *redisStore) Cleanup(context.Context) (int, error) {
	return 0, nil
}

func (r *redisStore) Size(ctx context.Context) (int, error) {
	var (
		cursor uint64
		total  int
	)

	for {
		keys, next, err := r.client.Scan(ctx, cursor, r.prefix+"*", 256).Result()
		if err != nil {
			return 0, fmt.Errorf("replay size: %w", err)
		}
		total += len(keys)
		cursor = next
		if cursor == 0 {
			return total, nil
		}
	}
}

func (r *redisStore) Close() error {
	if r.ownsClient {
		return r.client.Close()
	}
	return nil
}
