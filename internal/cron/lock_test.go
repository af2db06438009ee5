package cron

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/cardledger/pkg/config"
	pkgredis "github.com/angelmondragon/cardledger/pkg/redis"
)

func TestRedisLockIsExclusive(t *testing.T) {
	ctx := context.Background()
	server := miniredis.RunT(t)
	client, err := pkgredis.New(ctx, config.RedisConfig{Address: server.Addr()}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	key := client.LockKey("reconcile")
	first, err := NewRedisLock(client, key, time.Minute)
	require.NoError(t, err)
	second, err := NewRedisLock(client, key, time.Minute)
	require.NoError(t, err)

	ok, err := first.Acquire(ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = second.Acquire(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	// A lock that never acquired must not free someone else's key.
	require.NoError(t, second.Release(ctx))
	assert.True(t, server.Exists(key))

	require.NoError(t, first.Release(ctx))
	assert.False(t, server.Exists(key))

	ok, err = second.Acquire(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRedisLockExpiresAfterTTL(t *testing.T) {
	ctx := context.Background()
	server := miniredis.RunT(t)
	client, err := pkgredis.New(ctx, config.RedisConfig{Address: server.Addr()}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	lock, err := NewRedisLock(client, "cardledger:lock:test", time.Second)
	require.NoError(t, err)
	ok, err := lock.Acquire(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	server.FastForward(2 * time.Second)
	other, err := NewRedisLock(client, "cardledger:lock:test", time.Second)
	require.NoError(t, err)
	ok, err = other.Acquire(ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	// The expired owner releasing late leaves the new owner in place.
	require.NoError(t, lock.Release(ctx))
	assert.True(t, server.Exists("cardledger:lock:test"))
}

func TestLocalLock(t *testing.T) {
	ctx := context.Background()
	lock := NewLocalLock()
	ok, _ := lock.Acquire(ctx)
	assert.True(t, ok)
	ok, _ = lock.Acquire(ctx)
	assert.False(t, ok)
	require.NoError(t, lock.Release(ctx))
	ok, _ = lock.Acquire(ctx)
	assert.True(t, ok)
}

func TestNewRedisLockValidates(t *testing.T) {
	_, err := NewRedisLock(nil, "k", time.Second)
	assert.Error(t, err)
}
