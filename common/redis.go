package common

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/Laisky/errors/v2"
	"github.com/go-redis/redis/v8"

	"github.com/fuchsia74/gemini-pool/common/config"
	"github.com/fuchsia74/gemini-pool/common/logger"
)

var RDB redis.Cmdable

var redisEnabled atomic.Bool

func IsRedisEnabled() bool {
	return redisEnabled.Load()
}

// InitRedisClient connects to Redis when REDIS_CONN_STRING is configured.
// Redis only backs the model-list cache, so a missing connection string just
// degrades to the in-process cache.
func InitRedisClient() (err error) {
	if config.RedisConnString == "" {
		redisEnabled.Store(false)
		logger.Logger.Info("REDIS_CONN_STRING not set, Redis is not enabled")
		return nil
	}
	opt, err := redis.ParseURL(config.RedisConnString)
	if err != nil {
		return errors.Wrap(err, "parse Redis connection string")
	}
	RDB = redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err = RDB.Ping(ctx).Result(); err != nil {
		return errors.Wrap(err, "Redis ping test")
	}
	redisEnabled.Store(true)
	logger.Logger.Info("Redis is enabled")
	return nil
}

func RedisSet(key string, value string, expiration time.Duration) error {
	if RDB == nil {
		return errors.New("redis not initialized")
	}
	if err := RDB.Set(context.Background(), key, value, expiration).Err(); err != nil {
		return errors.Wrapf(err, "failed to set redis key: %s", key)
	}
	return nil
}

func RedisGet(key string) (string, error) {
	if RDB == nil {
		return "", errors.New("redis not initialized")
	}
	value, err := RDB.Get(context.Background(), key).Result()
	if err != nil {
		return "", errors.Wrapf(err, "failed to get redis key: %s", key)
	}
	return value, nil
}
