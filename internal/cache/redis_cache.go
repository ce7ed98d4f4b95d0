package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/lhwang/riverchat/internal/config"
)

var ErrCacheMiss = errors.New("cache miss")

// RedisChannelCache implements ChannelCache on Redis.
type RedisChannelCache struct {
	client *redis.Client
	prefix string
}

// NewRedisChannelCache connects to Redis and returns a channel cache.
func NewRedisChannelCache(cfg config.RedisConfig, prefix string) (*RedisChannelCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisChannelCache{
		client: client,
		prefix: prefix,
	}, nil
}

func (c *RedisChannelCache) BuildKeyByID(channelID string) string {
	return fmt.Sprintf("%s:id:%s", c.prefix, channelID)
}

func (c *RedisChannelCache) BuildKeyByName(name string) string {
	return fmt.Sprintf("%s:name:%s", c.prefix, name)
}

func (c *RedisChannelCache) Get(ctx context.Context, key string) (*ChannelCacheResult, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("failed to get from redis: %w", err)
	}

	var result ChannelCacheResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cache data: %w", err)
	}

	return &result, nil
}

func (c *RedisChannelCache) Set(ctx context.Context, key string, result *ChannelCacheResult, ttl time.Duration) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal cache data: %w", err)
	}

	if err := c.client.Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set in redis: %w", err)
	}

	return nil
}

func (c *RedisChannelCache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to delete from redis: %w", err)
	}

	return nil
}

func (c *RedisChannelCache) Close() error {
	return c.client.Close()
}
