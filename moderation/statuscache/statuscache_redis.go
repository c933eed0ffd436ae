package statuscache

import (
	"context"
	"errors"
	"time"

	"github.com/go-redis/cache/v9"
	"github.com/redis/go-redis/v9"
)

// RedisCache shares status refs across workers, with a small local TinyLFU
// layer in front of redis.
type RedisCache struct {
	data *cache.Cache
	ttl  time.Duration
}

func NewRedisCache(redisURL string, ttl time.Duration) (*RedisCache, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(opt)
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		return nil, err
	}
	data := cache.New(&cache.Options{
		Redis:      rdb,
		LocalCache: cache.NewTinyLFU(1000, ttl),
	})
	return &RedisCache{data: data, ttl: ttl}, nil
}

var _ Cache = (*RedisCache)(nil)

func redisRefKey(groupID string) string {
	return "statusref/" + groupID
}

func (c *RedisCache) GetRef(ctx context.Context, groupID string) (StatusRef, error) {
	var ref StatusRef
	err := c.data.Get(ctx, redisRefKey(groupID), &ref)
	if errors.Is(err, cache.ErrCacheMiss) {
		return StatusRef{}, nil
	}
	if err != nil {
		return StatusRef{}, err
	}
	return ref, nil
}

func (c *RedisCache) SetRef(ctx context.Context, groupID string, ref StatusRef) error {
	return c.data.Set(&cache.Item{
		Ctx:   ctx,
		Key:   redisRefKey(groupID),
		Value: ref,
		TTL:   c.ttl,
	})
}

func (c *RedisCache) PurgeRef(ctx context.Context, groupID string) error {
	err := c.data.Delete(ctx, redisRefKey(groupID))
	if errors.Is(err, cache.ErrCacheMiss) {
		return nil
	}
	return err
}
