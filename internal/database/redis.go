package database

import (
	"context"
	"sync"
	"time"

	"schoolhub/pkg/cache"
	"schoolhub/pkg/config"
	"schoolhub/pkg/logger"
)

var (
	cacheInstance cache.Cache
	redisInstance *cache.RedisCache
	cacheOnce     sync.Once
)

// GetCache returns the process-wide cache. With Redis disabled, or when it
// cannot be reached at startup, a no-op cache is used.
func GetCache() cache.Cache {
	cacheOnce.Do(func() {
		cfg := config.GetConfig()
		if !cfg.Redis.Enabled {
			cacheInstance = cache.Nop{}
			return
		}

		rc := cache.NewRedisCache(&cache.Config{
			Host:     cfg.Redis.Host,
			Port:     cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Prefix:   cfg.Redis.Prefix,
		})
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := rc.Ping(ctx); err != nil {
			logger.GetLogger().WithError(err).Warn("Redis unreachable, tenant cache disabled")
			_ = rc.Close()
			cacheInstance = cache.Nop{}
			return
		}
		redisInstance = rc
		cacheInstance = rc
	})
	return cacheInstance
}

// CloseCache closes the Redis client, if one was opened.
func CloseCache() error {
	if redisInstance != nil {
		return redisInstance.Close()
	}
	return nil
}
