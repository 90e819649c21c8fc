package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xandylearning/mentor-ai/backend/internal/config"
)

func exerciseCache(t *testing.T, c Cache, expire func(time.Duration)) {
	t.Helper()
	ctx := context.Background()

	_, found, err := c.Get(ctx, "mentor_style:m1")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, c.Set(ctx, "mentor_style:m1", []byte(`{"tone":"casual"}`), time.Minute))
	val, found, err := c.Get(ctx, "mentor_style:m1")
	require.NoError(t, err)
	assert.True(t, found)
	assert.JSONEq(t, `{"tone":"casual"}`, string(val))

	require.NoError(t, c.Set(ctx, "mentor_style:m1", []byte(`{"tone":"direct"}`), time.Minute))
	val, _, err = c.Get(ctx, "mentor_style:m1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"tone":"direct"}`, string(val), "last writer wins")

	expire(2 * time.Minute)
	_, found, err = c.Get(ctx, "mentor_style:m1")
	require.NoError(t, err)
	assert.False(t, found, "entry should expire")

	require.NoError(t, c.Set(ctx, "mentor_style:m2", []byte(`{}`), time.Minute))
	require.NoError(t, c.Delete(ctx, "mentor_style:m2"))
	_, found, err = c.Get(ctx, "mentor_style:m2")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestMemoryCache(t *testing.T) {
	c := NewMemoryCache()
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	exerciseCache(t, c, func(d time.Duration) { now = now.Add(d) })
}

func TestRedisCache(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	c := NewRedisCacheWithClient(client)
	t.Cleanup(func() { _ = c.Close() })

	exerciseCache(t, c, mr.FastForward)
}

func TestNewRedisCachePings(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()

	c, err := NewRedisCache(context.Background(), config.RedisConfig{Addr: addr})
	require.NoError(t, err)
	require.NoError(t, c.Close())

	mr.Close()
	_, err = NewRedisCache(context.Background(), config.RedisConfig{Addr: addr})
	assert.Error(t, err)
}
