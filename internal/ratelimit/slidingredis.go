package ratelimit

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Limiter counts events per key in a sliding window, one Redis sorted set per
// key with nanosecond scores. Quote spam from a single widget session is the
// main thing this throttles.
type Limiter struct {
	Client *redis.Client
	Prefix string
}

// Allow records one event for key and reports whether the caller is still
// inside the limit, along with the remaining budget and when the window
// resets. A nil client or non-positive limit disables limiting.
func (l Limiter) Allow(ctx context.Context, key string, window time.Duration, max int) (allowed bool, remaining int, reset time.Time, err error) {
	if l.Client == nil || max <= 0 || window <= 0 {
		return true, max, time.Now().Add(window), nil
	}

	now := time.Now()
	reset = now.Add(window)
	setKey := l.Prefix + key

	pipe := l.Client.TxPipeline()
	pipe.ZRemRangeByScore(ctx, setKey, "-inf", strconv.FormatInt(now.Add(-window).UnixNano(), 10))
	pipe.ZAdd(ctx, setKey, redis.Z{
		Score:  float64(now.UnixNano()),
		Member: key + ":" + uuid.NewString(),
	})
	count := pipe.ZCard(ctx, setKey)
	pipe.Expire(ctx, setKey, window)
	if _, err = pipe.Exec(ctx); err != nil {
		return false, 0, reset, err
	}

	used := int(count.Val())
	remaining = max - used
	if remaining < 0 {
		remaining = 0
	}
	return used <= max, remaining, reset, nil
}
