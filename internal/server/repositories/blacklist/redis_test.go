package blacklist

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/dmitrijs2005/otpauth/internal/common"
	"github.com/dmitrijs2005/otpauth/internal/server/models"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = rdb.Close()
		mr.Close()
	})

	return NewRedisStore(rdb), mr
}

func TestRedisStore_AddAndContains(t *testing.T) {
	store, mr := newRedisStore(t)
	ctx := context.Background()
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	tok := &models.BlacklistedToken{JTI: "j1", UserID: "u1", ExpiresAt: now.Add(time.Hour)}
	require.NoError(t, store.Add(ctx, tok))

	found, err := store.Contains(ctx, "j1")
	require.NoError(t, err)
	assert.True(t, found)

	assert.Equal(t, time.Hour, mr.TTL("blacklist:jti:j1"))
	got, err := mr.Get("blacklist:jti:j1")
	require.NoError(t, err)
	assert.Equal(t, "u1", got)

	found, err = store.Contains(ctx, "j2")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRedisStore_AddTwice(t *testing.T) {
	store, _ := newRedisStore(t)
	ctx := context.Background()

	tok := &models.BlacklistedToken{JTI: "j1", UserID: "u1", ExpiresAt: time.Now().Add(time.Hour)}
	require.NoError(t, store.Add(ctx, tok))
	assert.ErrorIs(t, store.Add(ctx, tok), common.ErrorAlreadyExists)
}

func TestRedisStore_EntryExpiresWithToken(t *testing.T) {
	store, mr := newRedisStore(t)
	ctx := context.Background()

	tok := &models.BlacklistedToken{JTI: "j1", UserID: "u1", ExpiresAt: time.Now().Add(-time.Minute)}
	require.NoError(t, store.Add(ctx, tok))
	assert.Equal(t, minRedisTTL, mr.TTL("blacklist:jti:j1"))

	mr.FastForward(2 * time.Second)

	found, err := store.Contains(ctx, "j1")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRedisStore_Unavailable(t *testing.T) {
	store, mr := newRedisStore(t)
	mr.Close()

	_, err := store.Contains(context.Background(), "j1")
	assert.Error(t, err)
	assert.Error(t, store.Add(context.Background(), &models.BlacklistedToken{JTI: "j1", ExpiresAt: time.Now().Add(time.Hour)}))
}
