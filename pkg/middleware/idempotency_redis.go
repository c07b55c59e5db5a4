package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

const (
	DefaultRedisKeyPrefix = "idempotency:"
	inFlightMarker        = "in-flight"
	redisOpTimeout        = 2 * time.Second
)

// redisCommands is the subset of redis.Cmdable the store needs.
type redisCommands interface {
	SetNX(ctx context.Context, key string, value any, expiration time.Duration) *redis.BoolCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// RedisIdempotencyStore shares idempotency keys between replicas. Entries
// expire through Redis TTLs, so Stop has nothing to release.
type RedisIdempotencyStore struct {
	rdb    redisCommands
	prefix string
	ttl    time.Duration
}

func NewRedisIdempotencyStore(rdb redisCommands, prefix string, ttl time.Duration) *RedisIdempotencyStore {
	if prefix == "" {
		prefix = DefaultRedisKeyPrefix
	}
	return &RedisIdempotencyStore{rdb: rdb, prefix: prefix, ttl: ttl}
}

func (s *RedisIdempotencyStore) Claim(key string) (*CachedResponse, error) {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	k := s.prefix + key
	// A second pass covers an entry that expired between SETNX and GET.
	for i := 0; i < 2; i++ {
		claimed, err := s.rdb.SetNX(ctx, k, inFlightMarker, s.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("claim idempotency key: %w", err)
		}
		if claimed {
			return nil, nil
		}

		value, err := s.rdb.Get(ctx, k).Bytes()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("read idempotency key: %w", err)
		}
		if string(value) == inFlightMarker {
			return nil, ErrRequestInFlight
		}

		var cached CachedResponse
		if err := json.Unmarshal(value, &cached); err != nil {
			return nil, fmt.Errorf("decode cached response: %w", err)
		}
		return &cached, nil
	}
	return nil, ErrRequestInFlight
}

func (s *RedisIdempotencyStore) Complete(key string, response *CachedResponse) {
	payload, err := json.Marshal(response)
	if err != nil {
		s.Release(key)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()
	_ = s.rdb.Set(ctx, s.prefix+key, payload, s.ttl).Err()
}

func (s *RedisIdempotencyStore) Release(key string) {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()
	_ = s.rdb.Del(ctx, s.prefix+key).Err()
}

func (s *RedisIdempotencyStore) Stop() {}
