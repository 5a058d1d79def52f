package cache

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
)

func TestNoopBlacklist(t *testing.T) {
	b := NewNoopBlacklist()
	ctx := context.Background()

	assert.NoError(t, b.Revoke(ctx, "abc", time.Now().Add(time.Hour)))
	revoked, err := b.IsRevoked(ctx, "abc")
	assert.NoError(t, err)
	assert.False(t, revoked)
}

func TestRedisBlacklistSkipsExpiredTokens(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1, DialTimeout: 50 * time.Millisecond})
	defer rdb.Close()

	b := NewRedisBlacklist(rdb)
	assert.NoError(t, b.Revoke(context.Background(), "abc", time.Now().Add(-time.Minute)))
}

func TestRedisBlacklistReportsUnavailableServer(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1, DialTimeout: 50 * time.Millisecond})
	defer rdb.Close()

	b := NewRedisBlacklist(rdb)
	ctx := context.Background()

	assert.Error(t, b.Revoke(ctx, "abc", time.Now().Add(time.Hour)))
	_, err := b.IsRevoked(ctx, "abc")
	assert.Error(t, err)
}

func TestBlacklistKey(t *testing.T) {
	assert.Equal(t, "auth:revoked:abc", blacklistKey("abc"))
}
