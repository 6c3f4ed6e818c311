package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
)

const defaultLockTTL = 10 * time.Second

// 只有持有者才能释放或续期
var (
	unlockScript = goredis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
else
	return 0
end`)

	refreshScript = goredis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("pexpire", KEYS[1], ARGV[2])
else
	return 0
end`)
)

// Lock 单节点分布式锁（SET NX PX）
type Lock struct {
	client *Client
	key    string
	value  string
	ttl    time.Duration
}

// NewLock 创建分布式锁，key 会自动加上配置的前缀
func NewLock(client *Client, key string, ttl time.Duration) *Lock {
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	return &Lock{
		client: client,
		key:    client.Key(key),
		value:  uuid.New().String(),
		ttl:    ttl,
	}
}

// TryLock 尝试获取锁，立即返回
func (l *Lock) TryLock(ctx context.Context) (bool, error) {
	ok, err := l.client.rdb.SetNX(ctx, l.key, l.value, l.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to try lock: %w", err)
	}
	return ok, nil
}

// LockWithRetry 获取锁，失败后按 retryInterval 重试，直到成功、ctx 结束或超过 maxRetries
func (l *Lock) LockWithRetry(ctx context.Context, retryInterval time.Duration, maxRetries int) error {
	for i := 0; i <= maxRetries; i++ {
		ok, err := l.TryLock(ctx)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(retryInterval):
		}
	}
	return ErrLockFailed
}

// Unlock 释放锁
func (l *Lock) Unlock(ctx context.Context) error {
	n, err := unlockScript.Run(ctx, l.client.rdb, []string{l.key}, l.value).Int64()
	if err != nil {
		return fmt.Errorf("failed to unlock: %w", err)
	}
	if n == 0 {
		return ErrLockNotHeld
	}
	return nil
}

// Refresh 延长锁的持有时间
func (l *Lock) Refresh(ctx context.Context) error {
	n, err := refreshScript.Run(ctx, l.client.rdb, []string{l.key}, l.value, l.ttl.Milliseconds()).Int64()
	if err != nil {
		return fmt.Errorf("failed to refresh lock: %w", err)
	}
	if n == 0 {
		return ErrLockNotHeld
	}
	return nil
}
