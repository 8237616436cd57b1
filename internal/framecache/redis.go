package framecache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const redisKeyPrefix = "replayd:frame:"

// Redis is a Cache shared by every replayd instance. Entries expire through
// the Redis TTL; capacity is bounded by the server's eviction policy.
type Redis struct {
	client redis.Cmdable
	ttl    time.Duration
}

func NewRedis(client redis.Cmdable, ttl time.Duration) *Redis {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Redis{client: client, ttl: ttl}
}

func (r *Redis) Get(ctx context.Context, key string) ([]byte, bool) {
	data, err := r.client.Get(ctx, redisKeyPrefix+key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Warn().Err(err).Str("key", key).Msg("framecache: redis get failed")
		}
		return nil, false
	}
	return data, true
}

func (r *Redis) Put(ctx context.Context, key string, data []byte) {
	if err := r.client.Set(ctx, redisKeyPrefix+key, data, r.ttl).Err(); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("framecache: redis set failed")
	}
}
