// Package cache 提供基于 Redis 的 get/set/incr 缓存
// 未配置地址时缓存处于禁用状态，所有读操作视为未命中
package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/wacana/backend/internal/infrastructure/config"
	"github.com/wacana/backend/internal/infrastructure/log"
)

// ErrDisabled 缓存未启用
var ErrDisabled = errors.New("cache disabled")

// Cache Redis 缓存
type Cache struct {
	rdb    *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewCache 创建缓存
// 连接失败不阻止启动，调用方按未命中处理
func NewCache(cfg *config.RedisConfig) *Cache {
	c := &Cache{
		logger: log.NewModuleLogger("cache", "redis"),
	}
	if cfg == nil || cfg.Addr == "" {
		c.logger.Info("Redis cache disabled")
		return c
	}

	c.ttl = cfg.TTL
	c.rdb = redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := c.rdb.Ping(ctx).Err(); err != nil {
		c.logger.Warn("Redis ping failed, cache operations will fail open",
			"addr", cfg.Addr,
			"error", err,
		)
	}
	return c
}

// NewCacheWithClient 使用现有客户端创建缓存（测试用）
func NewCacheWithClient(rdb *redis.Client, ttl time.Duration) *Cache {
	return &Cache{
		rdb:    rdb,
		ttl:    ttl,
		logger: log.NewModuleLogger("cache", "redis"),
	}
}

// Enabled 是否启用
func (c *Cache) Enabled() bool {
	return c != nil && c.rdb != nil
}

// TTL 默认过期时间
func (c *Cache) TTL() time.Duration {
	if c == nil {
		return 0
	}
	return c.ttl
}

// Get 读取；未命中返回 ok=false
func (c *Cache) Get(ctx context.Context, key string) (string, bool, error) {
	if !c.Enabled() {
		return "", false, nil
	}
	val, err := c.rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis get %s: %w", key, err)
	}
	return val, true, nil
}

// Set 写入；ttl<=0 时使用默认过期时间
func (c *Cache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if !c.Enabled() {
		return ErrDisabled
	}
	if ttl <= 0 {
		ttl = c.ttl
	}
	if err := c.rdb.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Incr 自增计数，首次创建时设置过期时间
func (c *Cache) Incr(ctx context.Context, key string, window time.Duration) (int64, error) {
	if !c.Enabled() {
		return 0, ErrDisabled
	}

	n, err := c.rdb.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("redis incr %s: %w", key, err)
	}
	if n == 1 {
		if err := c.rdb.Expire(ctx, key, window).Err(); err != nil {
			return n, fmt.Errorf("redis expire %s: %w", key, err)
		}
	}
	return n, nil
}

// Ping 健康检查
func (c *Cache) Ping(ctx context.Context) error {
	if !c.Enabled() {
		return ErrDisabled
	}
	return c.rdb.Ping(ctx).Err()
}

// Close 关闭连接
func (c *Cache) Close() error {
	if !c.Enabled() {
		return nil
	}
	return c.rdb.Close()
}
