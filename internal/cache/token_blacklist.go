// Package cache holds the redis backed session state.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"user-management-svc/internal/config"
)

const blacklistPrefix = "auth:revoked:"

// TokenBlacklist remembers revoked session tokens until they expire
type TokenBlacklist interface {
	Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// NewRedisClient connects to redis and pings it
func NewRedisClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if _, err := rdb.Ping(ctx).Result(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return rdb, nil
}

type redisBlacklist struct {
	rdb *redis.Client
}

// NewRedisBlacklist creates a blacklist stored in redis
func NewRedisBlacklist(rdb *redis.Client) TokenBlacklist {
	return &redisBlacklist{rdb: rdb}
}

// Revoke stores the token id until its expiry; already expired tokens are ignored
func (b *redisBlacklist) Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}
	return b.rdb.Set(ctx, blacklistKey(tokenID), "1", ttl).Err()
}

func (b *redisBlacklist) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	_, err := b.rdb.Get(ctx, blacklistKey(tokenID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func blacklistKey(tokenID string) string {
	return blacklistPrefix + tokenID
}

// noopBlacklist is used when redis is not configured; logout then only clears the cookie
type noopBlacklist struct{}

// NewNoopBlacklist creates a blacklist that never revokes
func NewNoopBlacklist() TokenBlacklist {
	return noopBlacklist{}
}

func (noopBlacklist) Revoke(context.Context, string, time.Time) error { return nil }

func (noopBlacklist) IsRevoked(context.Context, string) (bool, error) { return false, nil }
