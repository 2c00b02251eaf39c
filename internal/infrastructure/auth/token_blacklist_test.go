package auth

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryTokenBlacklist_AddToBlacklist(t *testing.T) {
	blacklist := NewInMemoryTokenBlacklist()
	ctx := context.Background()

	require.NoError(t, blacklist.AddToBlacklist(ctx, "jti-1", time.Hour))

	listed, err := blacklist.IsBlacklisted(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, listed)

	listed, err = blacklist.IsBlacklisted(ctx, "jti-2")
	require.NoError(t, err)
	assert.False(t, listed)
}

func TestInMemoryTokenBlacklist_ExpiredEntryIsDropped(t *testing.T) {
	blacklist := NewInMemoryTokenBlacklist()
	now := time.Now()
	blacklist.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, blacklist.AddToBlacklist(ctx, "jti", time.Minute))

	now = now.Add(2 * time.Minute)
	listed, err := blacklist.IsBlacklisted(ctx, "jti")
	require.NoError(t, err)
	assert.False(t, listed)
	assert.Empty(t, blacklist.jtiBlacklist)
}

func TestInMemoryTokenBlacklist_NonPositiveTTLIsIgnored(t *testing.T) {
	blacklist := NewInMemoryTokenBlacklist()
	ctx := context.Background()

	require.NoError(t, blacklist.AddToBlacklist(ctx, "jti", 0))

	listed, err := blacklist.IsBlacklisted(ctx, "jti")
	require.NoError(t, err)
	assert.False(t, listed)
}

func TestInMemoryTokenBlacklist_UserTokenInvalidation(t *testing.T) {
	blacklist := NewInMemoryTokenBlacklist()
	ctx := context.Background()
	userID := "user-1"

	invalidated, err := blacklist.IsUserTokenInvalidated(ctx, userID, time.Now())
	require.NoError(t, err)
	assert.False(t, invalidated)

	require.NoError(t, blacklist.AddUserTokensToBlacklist(ctx, userID, time.Hour))

	invalidated, err = blacklist.IsUserTokenInvalidated(ctx, userID, time.Now().Add(-time.Minute))
	require.NoError(t, err)
	assert.True(t, invalidated, "token issued before invalidation must be rejected")

	invalidated, err = blacklist.IsUserTokenInvalidated(ctx, userID, time.Now().Add(time.Minute))
	require.NoError(t, err)
	assert.False(t, invalidated, "token issued after invalidation stays valid")

	invalidated, err = blacklist.IsUserTokenInvalidated(ctx, "user-2", time.Now().Add(-time.Minute))
	require.NoError(t, err)
	assert.False(t, invalidated)
}

func newTestRedisBlacklist(t *testing.T) (*miniredis.Miniredis, *RedisTokenBlacklist) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, NewRedisTokenBlacklist(client)
}

func TestRedisTokenBlacklist_AddToBlacklist(t *testing.T) {
	mr, blacklist := newTestRedisBlacklist(t)
	ctx := context.Background()

	require.NoError(t, blacklist.AddToBlacklist(ctx, "jti-1", time.Hour))
	assert.True(t, mr.Exists(blacklistKeyPrefix+"jti:jti-1"))

	listed, err := blacklist.IsBlacklisted(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, listed)

	mr.FastForward(2 * time.Hour)

	listed, err = blacklist.IsBlacklisted(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, listed)
}

func TestRedisTokenBlacklist_UserTokenInvalidation(t *testing.T) {
	_, blacklist := newTestRedisBlacklist(t)
	ctx := context.Background()

	invalidated, err := blacklist.IsUserTokenInvalidated(ctx, "user-1", time.Now())
	require.NoError(t, err)
	assert.False(t, invalidated)

	require.NoError(t, blacklist.AddUserTokensToBlacklist(ctx, "user-1", time.Hour))

	invalidated, err = blacklist.IsUserTokenInvalidated(ctx, "user-1", time.Now().Add(-time.Minute))
	require.NoError(t, err)
	assert.True(t, invalidated)

	invalidated, err = blacklist.IsUserTokenInvalidated(ctx, "user-1", time.Now().Add(time.Minute))
	require.NoError(t, err)
	assert.False(t, invalidated)
}

func TestRedisTokenBlacklist_ConnectionError(t *testing.T) {
	mr, blacklist := newTestRedisBlacklist(t)
	mr.Close()

	_, err := blacklist.IsBlacklisted(context.Background(), "jti")
	assert.Error(t, err)
}
