package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// KeyPrefix 是统计缓存键的公共前缀。
const KeyPrefix = "mindgraph:stats:"

// StatsCache 缓存统计查询的 JSON 结果。
type StatsCache interface {
	// Get 读取 key 并反序列化到 dest，未命中时返回 false。
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}) error
	// Invalidate 删除所有统计缓存，在学生数据变化后调用。
	Invalidate(ctx context.Context) error
}

// RedisCache 是基于 Redis 的 StatsCache。
type RedisCache struct {
	client redis.Cmdable
	ttl    time.Duration
}

// NewRedisCache 创建一个 Redis 统计缓存，ttl 为每个键的过期时间。
func NewRedisCache(client redis.Cmdable, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

func (c *RedisCache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	data, err := c.client.Get(ctx, KeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("读取缓存 %s 失败: %w", key, err)
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("解析缓存 %s 失败: %w", key, err)
	}
	return true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("序列化缓存 %s 失败: %w", key, err)
	}
	if err := c.client.Set(ctx, KeyPrefix+key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("写入缓存 %s 失败: %w", key, err)
	}
	return nil
}

func (c *RedisCache) Invalidate(ctx context.Context) error {
	var cursor uint64
	for {
		keys, next, err := c.client.Scan(ctx, cursor, KeyPrefix+"*", 100).Result()
		if err != nil {
			return fmt.Errorf("扫描统计缓存失败: %w", err)
		}
		if len(keys) > 0 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("删除统计缓存失败: %w", err)
			}
		}
		if next == 0 {
			return nil
		}
		cursor = next
	}
}

// Noop 是未配置 Redis 时使用的空缓存，永远不命中。
type Noop struct{}

func (Noop) Get(context.Context, string, interface{}) (bool, error) { return false, nil }

func (Noop) Set(context.Context, string, interface{}) error { return nil }

func (Noop) Invalidate(context.Context) error { return nil }
