package tokenstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore shares a token cache between processes through Redis. Useful for
// bot fleets where several workers act as the same account and tokens rotate
// per session. Keys are namespaced by prefix and expire after TTL so a
// crashed worker cannot pin a stale token forever.
type RedisStore struct {
	redis  redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// DefaultTokenTTL bounds how long a cached token may be reused. MediaWiki
// tokens live as long as the session, so the TTL only caps staleness.
const DefaultTokenTTL = 8 * time.Hour

// NewRedisStore returns a Store backed by the given Redis client. An empty
// prefix defaults to "mwtoken"; a non-positive ttl defaults to
// DefaultTokenTTL.
func NewRedisStore(client redis.UniversalClient, prefix string, ttl time.Duration) *RedisStore {
	if prefix == "" {
		prefix = "mwtoken"
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &RedisStore{
		redis:  client,
		prefix: prefix,
		ttl:    ttl,
	}
}

func (s *RedisStore) key(kind Kind) string {
	return fmt.Sprintf("%s:%s", s.prefix, kind)
}

// Get returns the cached token for kind, if any.
func (s *RedisStore) Get(ctx context.Context, kind Kind) (string, bool, error) {
	value, err := s.redis.Get(ctx, s.key(kind)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	return value, true, nil
}

// Set caches value for kind with the configured TTL.
func (s *RedisStore) Set(ctx context.Context, kind Kind, value string) error {
	if err := s.redis.Set(ctx, s.key(kind), value, s.ttl).Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	return nil
}

// Invalidate removes the entry for kind. Removing an absent entry is a no-op.
func (s *RedisStore) Invalidate(ctx context.Context, kind Kind) error {
	if err := s.redis.Del(ctx, s.key(kind)).Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	return nil
}

// Clear drops every cached token under the store's prefix.
func (s *RedisStore) Clear(ctx context.Context) error {
	kinds := []Kind{
		KindCSRF, KindLogin, KindPatrol, KindRollback, KindWatch,
		KindCreateAccount, KindUserRights,
	}
	keys := make([]string, 0, len(kinds))
	for _, kind := range kinds {
		keys = append(keys, s.key(kind))
	}
	if err := s.redis.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	return nil
}

var _ Store = (*RedisStore)(nil)
