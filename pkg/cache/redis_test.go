package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestCache(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	c, err := NewRedisCache(context.Background(), NewRedisCacheConfig{Address: mr.Addr()}, zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c, mr
}

func TestRedisCache_SetGetDelete(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCache(t)

	_, err := c.Get(ctx, "fx:INR")
	assert.ErrorIs(t, err, ErrMiss)

	require.NoError(t, c.Set(ctx, "fx:INR", `{"USD":0.012}`, time.Hour))
	v, err := c.Get(ctx, "fx:INR")
	require.NoError(t, err)
	assert.Equal(t, `{"USD":0.012}`, v)

	require.NoError(t, c.Delete(ctx, "fx:INR"))
	_, err = c.Get(ctx, "fx:INR")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestRedisCache_Expiration(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestCache(t)

	require.NoError(t, c.Set(ctx, "geo:1.2.3.4", "IN", time.Minute))
	mr.FastForward(2 * time.Minute)

	_, err := c.Get(ctx, "geo:1.2.3.4")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestNewRedisCache_Unreachable(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	addr := mr.Addr()
	mr.Close()

	_, err = NewRedisCache(context.Background(), NewRedisCacheConfig{Address: addr}, zaptest.NewLogger(t))
	assert.Error(t, err)
}

func TestNoop(t *testing.T) {
	ctx := context.Background()
	var c Cache = Noop{}
	require.NoError(t, c.Set(ctx, "k", "v", time.Second))
	_, err := c.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrMiss)
}
