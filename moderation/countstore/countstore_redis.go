package countstore

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	redisCountPrefix    = "modcount/"
	redisDistinctPrefix = "moddistinct/"
)

// RedisCountStore shares counters across moderation workers. Hour and day
// buckets carry TTLs so stale keys age out on their own; distinct counts use
// HyperLogLogs.
type RedisCountStore struct {
	client *redis.Client
}

func NewRedisCountStore(redisURL string) (*RedisCountStore, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(opt)
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		return nil, err
	}
	return &RedisCountStore{client: rdb}, nil
}

var _ CountStore = (*RedisCountStore)(nil)

func (s *RedisCountStore) GetCount(ctx context.Context, name, val, period string) (int, error) {
	c, err := s.client.Get(ctx, redisCountPrefix+bucketKey(name, val, period)).Int()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	} else if err != nil {
		return 0, err
	}
	return c, nil
}

func (s *RedisCountStore) Increment(ctx context.Context, name, val string) error {
	// all three period buckets in one round-trip
	pipe := s.client.Pipeline()

	key := redisCountPrefix + bucketKey(name, val, PeriodHour)
	pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, 2*time.Hour)

	key = redisCountPrefix + bucketKey(name, val, PeriodDay)
	pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, 48*time.Hour)

	pipe.Incr(ctx, redisCountPrefix+bucketKey(name, val, PeriodTotal))

	_, err := pipe.Exec(ctx)
	return err
}

func (s *RedisCountStore) GetCountDistinct(ctx context.Context, name, bucket, period string) (int, error) {
	c, err := s.client.PFCount(ctx, redisDistinctPrefix+bucketKey(name, bucket, period)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	} else if err != nil {
		return 0, err
	}
	return int(c), nil
}

func (s *RedisCountStore) IncrementDistinct(ctx context.Context, name, bucket, val string) error {
	pipe := s.client.Pipeline()

	key := redisDistinctPrefix + bucketKey(name, bucket, PeriodHour)
	pipe.PFAdd(ctx, key, val)
	pipe.Expire(ctx, key, 2*time.Hour)

	key = redisDistinctPrefix + bucketKey(name, bucket, PeriodDay)
	pipe.PFAdd(ctx, key, val)
	pipe.Expire(ctx, key, 48*time.Hour)

	pipe.PFAdd(ctx, redisDistinctPrefix+bucketKey(name, bucket, PeriodTotal), val)

	_, err := pipe.Exec(ctx)
	return err
}
