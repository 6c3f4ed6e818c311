package redis

import "errors"

var (
	ErrNilConfig     = errors.New("redis: config is nil")
	ErrInvalidConfig = errors.New("redis: invalid config")

	// ErrLockFailed 获取锁失败（锁已被其他持有者占用）
	ErrLockFailed = errors.New("redis: failed to acquire lock")
	// ErrLockNotHeld 锁已过期或不是当前持有者
	ErrLockNotHeld = errors.New("redis: lock not held")
)
