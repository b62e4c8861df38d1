package database

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"vendor-inventory-import/conf"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

var (
	RedisClient *redis.Client
	ctx         = context.Background()
)

// InitRedis initialize Redis client
func InitRedis() error {
	if !conf.Cfg.Redis.Enabled {
		conf.Log.Info("Redis cache is disabled")
		return nil
	}

	RedisClient = redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", conf.Cfg.Redis.Host, conf.Cfg.Redis.Port),
		Password: conf.Cfg.Redis.Password,
		DB:       conf.Cfg.Redis.DB,
	})

	// Test connection
	if err := RedisClient.Ping(ctx).Err(); err != nil {
		conf.LogError("database", "InitRedis", "ping", nil, err)
		conf.Log.Warn("Redis cache will be disabled")
		RedisClient = nil
		return err
	}

	conf.Log.WithFields(logrus.Fields{
		"addr": fmt.Sprintf("%s:%d", conf.Cfg.Redis.Host, conf.Cfg.Redis.Port),
		"db":   conf.Cfg.Redis.DB,
		"ttl":  conf.Cfg.Redis.CacheTTL,
	}).Info("Redis connected successfully")
	return nil
}

// CloseRedis close Redis connection
func CloseRedis() error {
	if RedisClient != nil {
		return RedisClient.Close()
	}
	return nil
}

// IsRedisEnabled check if Redis is enabled and connected
func IsRedisEnabled() bool {
	return RedisClient != nil && conf.Cfg != nil && conf.Cfg.Redis.Enabled
}

// SetCache set cache with the configured TTL
func SetCache(key string, value interface{}) error {
	if !IsRedisEnabled() {
		return nil // Cache disabled, skip silently
	}
	return SetCacheTTL(key, value, time.Duration(conf.Cfg.Redis.CacheTTL)*time.Second)
}

// SetCacheTTL set cache with an explicit TTL
func SetCacheTTL(key string, value interface{}, ttl time.Duration) error {
	if !IsRedisEnabled() {
		return nil
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal cache data: %w", err)
	}

	if err := RedisClient.Set(ctx, key, data, ttl).Err(); err != nil {
		conf.Log.WithField("key", key).WithError(err).Warn("Failed to set cache")
		return err
	}

	return nil
}

// GetCache get cache by key
func GetCache(key string, dest interface{}) error {
	if !IsRedisEnabled() {
		return redis.Nil // Cache disabled, return nil (cache miss)
	}

	data, err := RedisClient.Get(ctx, key).Result()
	if err != nil {
		return err // redis.Nil if key not found
	}

	if err := json.Unmarshal([]byte(data), dest); err != nil {
		return fmt.Errorf("failed to unmarshal cache data: %w", err)
	}

	return nil
}

// DeleteCache delete cache by key
func DeleteCache(key string) error {
	if !IsRedisEnabled() {
		return nil // Cache disabled, skip silently
	}

	if err := RedisClient.Del(ctx, key).Err(); err != nil {
		conf.Log.WithField("key", key).WithError(err).Warn("Failed to delete cache")
		return err
	}

	return nil
}

// DeleteCachePattern delete cache by pattern
func DeleteCachePattern(pattern string) error {
	if !IsRedisEnabled() {
		return nil // Cache disabled, skip silently
	}

	iter := RedisClient.Scan(ctx, 0, pattern, 0).Iterator()
	for iter.Next(ctx) {
		if err := RedisClient.Del(ctx, iter.Val()).Err(); err != nil {
			conf.Log.WithField("key", iter.Val()).WithError(err).Warn("Failed to delete cache")
		}
	}
	return iter.Err()
}
