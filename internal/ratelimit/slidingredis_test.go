package ratelimit

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func TestLimiterSlidingWindow(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	limiter := Limiter{Client: client, Prefix: "rl:"}
	ctx := context.Background()
	window := 2 * time.Second
	const max = 2

	for i := 0; i < max; i++ {
		allowed, remaining, _, err := limiter.Allow(ctx, "t1:quote", window, max)
		require.NoError(t, err)
		require.True(t, allowed, "request %d should pass", i)
		require.Equal(t, max-(i+1), remaining)
	}

	allowed, remaining, _, err := limiter.Allow(ctx, "t1:quote", window, max)
	require.NoError(t, err)
	require.False(t, allowed)
	require.Zero(t, remaining)

	// Old entries age out once the window has passed.
	mr.FastForward(window)

	allowed, _, _, err = limiter.Allow(ctx, "t1:quote", window, max)
	require.NoError(t, err)
	require.True(t, allowed)
}

func TestLimiterDisabledWithoutClient(t *testing.T) {
	limiter := Limiter{}
	allowed, remaining, _, err := limiter.Allow(context.Background(), "any", time.Second, 5)
	require.NoError(t, err)
	require.True(t, allowed)
	require.Equal(t, 5, remaining)
}
