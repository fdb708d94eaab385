package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// NewRedisClient connects to Redis and verifies the connection
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return rdb, nil
}

// RedisAttemptLimiter counts failed logins in a fixed window per key
type RedisAttemptLimiter struct {
	rdb    *redis.Client
	max    int64
	window time.Duration
}

// NewRedisAttemptLimiter allows max failures per window
func NewRedisAttemptLimiter(rdb *redis.Client, max int, window time.Duration) *RedisAttemptLimiter {
	return &RedisAttemptLimiter{rdb: rdb, max: int64(max), window: window}
}

func attemptKey(key string) string {
	return "login:attempts:" + strings.ToLower(strings.TrimSpace(key))
}

// Allowed reports whether the failure count is under the limit
func (l *RedisAttemptLimiter) Allowed(ctx context.Context, key string) (bool, error) {
	count, err := l.rdb.Get(ctx, attemptKey(key)).Int64()
	if err == redis.Nil {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("get login attempts: %w", err)
	}
	return count < l.max, nil
}

// RecordFailure increments the counter, starting the window on first failure
func (l *RedisAttemptLimiter) RecordFailure(ctx context.Context, key string) error {
	k := attemptKey(key)
	count, err := l.rdb.Incr(ctx, k).Result()
	if err != nil {
		return fmt.Errorf("increment login attempts: %w", err)
	}
	if count == 1 {
		if err := l.rdb.Expire(ctx, k, l.window).Err(); err != nil {
			return fmt.Errorf("expire login attempts: %w", err)
		}
	}
	return nil
}

// Reset clears the counter after a successful login
func (l *RedisAttemptLimiter) Reset(ctx context.Context, key string) error {
	return l.rdb.Del(ctx, attemptKey(key)).Err()
}

// RedisDenyList stores revoked token digests until their expiry
type RedisDenyList struct {
	rdb *redis.Client
}

// NewRedisDenyList creates a deny-list backed by rdb
func NewRedisDenyList(rdb *redis.Client) *RedisDenyList {
	return &RedisDenyList{rdb: rdb}
}

func denyKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return "token:revoked:" + hex.EncodeToString(sum[:])
}

// Revoke marks token revoked. Already expired tokens are ignored.
func (d *RedisDenyList) Revoke(ctx context.Context, token string, until time.Time) error {
	ttl := time.Until(until)
	if ttl <= 0 {
		return nil
	}
	if err := d.rdb.Set(ctx, denyKey(token), 1, ttl).Err(); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

// IsRevoked reports whether token was revoked
func (d *RedisDenyList) IsRevoked(ctx context.Context, token string) (bool, error) {
	n, err := d.rdb.Exists(ctx, denyKey(token)).Result()
	if err != nil {
		return false, fmt.Errorf("check token revocation: %w", err)
	}
	return n > 0, nil
}
