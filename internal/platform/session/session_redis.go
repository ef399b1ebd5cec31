// Package session holds the Redis-backed cache of validated access tokens.
package session

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"auth_backend/internal/feature/auth/domain/entity"
	"auth_backend/internal/feature/auth/usecase"

	"github.com/redis/go-redis/v9"
)

// ErrCacheDisabled is reported when no Redis client was configured.
var ErrCacheDisabled = errors.New("session cache disabled")

// Compile-time check to ensure RedisCache implements SessionCache.
var _ usecase.SessionCache = (*RedisCache)(nil)

// RedisCache stores session snapshots keyed by access token, plus a per-user
// index set used by logout-all.
type RedisCache struct {
	client *redis.Client
	prefix string
	now    func() time.Time
}

// NewRedisCache creates a new RedisCache. A nil client yields a cache whose
// lookups always report CacheUnavailable.
func NewRedisCache(client *redis.Client, prefix string) *RedisCache {
	if prefix == "" {
		prefix = "session"
	}
	return &RedisCache{client: client, prefix: prefix, now: time.Now}
}

// tokenKey returns the Redis key for a token. Tokens are hashed so raw bearer
// credentials never appear in Redis.
func (r *RedisCache) tokenKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return fmt.Sprintf("%s:%s", r.prefix, hex.EncodeToString(sum[:]))
}

// userSessionsKey returns the Redis key for a user's session set.
func (r *RedisCache) userSessionsKey(userID uint) string {
	return fmt.Sprintf("%s:user:%d", r.prefix, userID)
}

// Lookup fetches the snapshot for token.
func (r *RedisCache) Lookup(ctx context.Context, token string) usecase.CacheLookup {
	if r.client == nil {
		return usecase.CacheLookup{Outcome: usecase.CacheUnavailable, Err: ErrCacheDisabled}
	}

	key := r.tokenKey(token)
	data, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return usecase.CacheLookup{Outcome: usecase.CacheMiss}
	}
	if err != nil {
		return usecase.CacheLookup{Outcome: usecase.CacheUnavailable, Err: err}
	}

	var s entity.Session
	if err := json.Unmarshal(data, &s); err != nil {
		// 破損したエントリは削除してミス扱い
		slog.Warn("corrupted session entry, deleting", "key", key, "error", err)
		if delErr := r.client.Del(ctx, key).Err(); delErr != nil {
			slog.Warn("failed to delete corrupted session entry", "key", key, "error", delErr)
		}
		return usecase.CacheLookup{Outcome: usecase.CacheMiss}
	}
	return usecase.CacheLookup{Outcome: usecase.CacheHit, Session: &s}
}

// Put stores s under token until s.ExpiresAt and indexes it under the user.
func (r *RedisCache) Put(ctx context.Context, token string, s *entity.Session) error {
	if r.client == nil {
		return ErrCacheDisabled
	}

	ttl := s.ExpiresAt.Sub(r.now())
	if ttl <= 0 {
		return fmt.Errorf("session already expired")
	}
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	key := r.tokenKey(token)
	userKey := r.userSessionsKey(s.UserID)
	pipe := r.client.TxPipeline()
	pipe.Set(ctx, key, data, ttl)
	pipe.SAdd(ctx, userKey, key)
	pipe.Expire(ctx, userKey, ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}
	return nil
}

// Delete removes the snapshot for token. Deleting a missing entry is not an error.
func (r *RedisCache) Delete(ctx context.Context, token string) error {
	if r.client == nil {
		return ErrCacheDisabled
	}
	return r.client.Del(ctx, r.tokenKey(token)).Err()
}

// DeleteByUserID removes every snapshot indexed under userID and the index
// itself. It returns the number of snapshots that still existed.
func (r *RedisCache) DeleteByUserID(ctx context.Context, userID uint) (int64, error) {
	if r.client == nil {
		return 0, ErrCacheDisabled
	}

	userKey := r.userSessionsKey(userID)
	keys, err := r.client.SMembers(ctx, userKey).Result()
	if err != nil {
		return 0, err
	}

	var deleted int64
	if len(keys) > 0 {
		deleted, err = r.client.Del(ctx, keys...).Result()
		if err != nil {
			return 0, err
		}
	}
	if err := r.client.Del(ctx, userKey).Err(); err != nil {
		return deleted, err
	}
	return deleted, nil
}
