package cache

import (
	"context"
	"fmt"

	"github.com/aiflow/backend-go/internal/config"
	"github.com/redis/go-redis/v9"
)

// NewRedisClient 根据缓存配置连接Redis
func NewRedisClient(ctx context.Context, cfg config.CacheConfig) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		DB:       cfg.DB,
		Password: cfg.Password,
	})

	// 测试连接
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return rdb, nil
}
