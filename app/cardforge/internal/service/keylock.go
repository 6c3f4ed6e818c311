package service

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/cockroachdb/errors"
	"github.com/lk2023060901/cardforge/pkg/database/redis"
	"github.com/lk2023060901/cardforge/pkg/logger"
)

// KeyLocker 按用户串行化存档的读改写
type KeyLocker interface {
	Lock(ctx context.Context, userID int64) (unlock func(), err error)
}

const defaultStripes = 256

// StripedLocker 进程内分段互斥锁，不同用户可能共享同一段
type StripedLocker struct {
	stripes []sync.Mutex
}

// NewStripedLocker 创建分段锁，n <= 0 时使用默认段数
func NewStripedLocker(n int) *StripedLocker {
	if n <= 0 {
		n = defaultStripes
	}
	return &StripedLocker{stripes: make([]sync.Mutex, n)}
}

// Lock 实现 KeyLocker
func (l *StripedLocker) Lock(_ context.Context, userID int64) (func(), error) {
	h := xxhash.Sum64String(strconv.FormatInt(userID, 10))
	mu := &l.stripes[h%uint64(len(l.stripes))]
	mu.Lock()
	return mu.Unlock, nil
}

// RedisLockConfig 分布式锁参数
type RedisLockConfig struct {
	TTL           time.Duration `mapstructure:"ttl"`
	RetryInterval time.Duration `mapstructure:"retry_interval"`
	MaxRetries    int           `mapstructure:"max_retries"`
}

// RedisLocker 基于 Redis SET NX 的跨进程用户锁
type RedisLocker struct {
	client *redis.Client
	cfg    RedisLockConfig
	logger logger.Logger
}

// NewRedisLocker 创建分布式用户锁
func NewRedisLocker(client *redis.Client, cfg RedisLockConfig, l logger.Logger) *RedisLocker {
	if cfg.TTL <= 0 {
		cfg.TTL = 10 * time.Second
	}
	if cfg.RetryInterval <= 0 {
		cfg.RetryInterval = 50 * time.Millisecond
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 100
	}
	return &RedisLocker{client: client, cfg: cfg, logger: l.Named("service.lock")}
}

// Lock 实现 KeyLocker
func (l *RedisLocker) Lock(ctx context.Context, userID int64) (func(), error) {
	lock := redis.NewLock(l.client, fmt.Sprintf("lock:player:%d", userID), l.cfg.TTL)
	if err := lock.LockWithRetry(ctx, l.cfg.RetryInterval, l.cfg.MaxRetries); err != nil {
		return nil, errors.Wrapf(err, "lock player %d", userID)
	}
	return func() {
		if err := lock.Unlock(context.Background()); err != nil {
			l.logger.Warn("failed to release player lock", "user_id", userID, "error", err)
		}
	}, nil
}
