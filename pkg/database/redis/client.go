package redis

import (
	"context"
	"fmt"

	"github.com/lk2023060901/cardforge/pkg/config"
	goredis "github.com/redis/go-redis/v9"
)

// Client Redis 客户端，单机与集群共用 UniversalClient
type Client struct {
	rdb goredis.UniversalClient
	cfg *Config
}

// NewClient 创建 Redis 客户端并检查连通性
func NewClient(ctx context.Context, cfg *Config) (*Client, error) {
	if cfg == nil {
		return nil, ErrNilConfig
	}
	merged, err := config.MergeConfig(DefaultConfig(), cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to merge config: %w", err)
	}
	if err := merged.Validate(); err != nil {
		return nil, err
	}

	rdb := goredis.NewUniversalClient(&goredis.UniversalOptions{
		Addrs:           merged.Addrs,
		Password:        merged.Password,
		DB:              merged.DB,
		MaxIdleConns:    merged.Pool.MaxIdleConns,
		MaxActiveConns:  merged.Pool.MaxActiveConns,
		ConnMaxIdleTime: merged.Pool.ConnMaxIdleTime,
		DialTimeout:     merged.Pool.DialTimeout,
		ReadTimeout:     merged.Pool.ReadTimeout,
		WriteTimeout:    merged.Pool.WriteTimeout,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return &Client{rdb: rdb, cfg: merged}, nil
}

// Key 为业务键加上配置的前缀
func (c *Client) Key(key string) string {
	return c.cfg.KeyPrefix + key
}

// Ping 检查连接
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// Close 关闭客户端
func (c *Client) Close() error {
	return c.rdb.Close()
}
