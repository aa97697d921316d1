package monitor

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultKeyPrefix = "auditwatch:failures:"

// RedisWindowStore keeps failure windows in sorted sets scored by
// event time in milliseconds, so several instances share one view.
type RedisWindowStore struct {
	client *redis.Client
	window time.Duration
	prefix string
}

func NewRedisWindowStore(client *redis.Client, window time.Duration) *RedisWindowStore {
	return &RedisWindowStore{
		client: client,
		window: window,
		prefix: defaultKeyPrefix,
	}
}

func (s *RedisWindowStore) RecordFailure(ctx context.Context, key, member string, at time.Time) (int, error) {
	k := s.prefix + key
	now := at.UnixMilli()
	lower := at.Add(-s.window).UnixMilli()

	var count *redis.IntCmd
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZAdd(ctx, k, redis.Z{Score: float64(now), Member: member})
		pipe.ZRemRangeByScore(ctx, k, "-inf", strconv.FormatInt(lower, 10))
		count = pipe.ZCount(ctx, k, "("+strconv.FormatInt(lower, 10), strconv.FormatInt(now, 10))
		pipe.PExpire(ctx, k, 2*s.window)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("redis failure window: %w", err)
	}
	return int(count.Val()), nil
}
