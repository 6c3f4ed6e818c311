// Package lru 提供带 TTL 的并发安全 LRU 缓存
package lru

import (
	"container/list"
	"sync"
	"time"
)

// Config LRU 配置
type Config struct {
	MaxSize         int
	DefaultTTL      time.Duration
	CleanupInterval time.Duration // 为 0 时不启动后台清理
}

// LRU 基于内存的 LRU 缓存
type LRU[K comparable, V any] struct {
	cfg       Config
	order     *list.List
	items     map[K]*list.Element
	mu        sync.Mutex
	stopCh    chan struct{}
	closeOnce sync.Once
	onEvict   func(key K, value V)
}

type entry[K comparable, V any] struct {
	key       K
	value     V
	expiresAt time.Time
}

// Option LRU 配置选项
type Option[K comparable, V any] func(*LRU[K, V])

// WithOnEvict 设置淘汰回调，回调在持有锁时执行，不能再访问缓存
func WithOnEvict[K comparable, V any](fn func(key K, value V)) Option[K, V] {
	return func(c *LRU[K, V]) {
		c.onEvict = fn
	}
}

// New 创建 LRU 缓存
func New[K comparable, V any](cfg Config, opts ...Option[K, V]) *LRU[K, V] {
	if cfg.MaxSize <= 0 {
		cfg.MaxSize = 1024
	}
	if cfg.DefaultTTL <= 0 {
		cfg.DefaultTTL = time.Hour
	}
	c := &LRU[K, V]{
		cfg:    cfg,
		order:  list.New(),
		items:  make(map[K]*list.Element),
		stopCh: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	if cfg.CleanupInterval > 0 {
		go c.cleanupLoop()
	}
	return c
}

func (c *LRU[K, V]) cleanupLoop() {
	ticker := time.NewTicker(c.cfg.CleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			c.removeExpired()
		case <-c.stopCh:
			return
		}
	}
}

func (c *LRU[K, V]) removeExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	for e := c.order.Back(); e != nil; {
		prev := e.Prev()
		if now.After(e.Value.(*entry[K, V]).expiresAt) {
			c.removeElement(e)
		}
		e = prev
	}
}

// Get 获取值，过期条目视为不存在
func (c *LRU[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[key]; ok {
		ent := elem.Value.(*entry[K, V])
		if time.Now().Before(ent.expiresAt) {
			c.order.MoveToFront(elem)
			return ent.value, true
		}
		c.removeElement(elem)
	}
	var zero V
	return zero, false
}

// Set 使用默认 TTL 写入
func (c *LRU[K, V]) Set(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.insert(key, value, c.cfg.DefaultTTL)
}

// GetOrCreate 原子地获取或创建
func (c *LRU[K, V]) GetOrCreate(key K, create func() V) V {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[key]; ok {
		ent := elem.Value.(*entry[K, V])
		if time.Now().Before(ent.expiresAt) {
			c.order.MoveToFront(elem)
			return ent.value
		}
		c.removeElement(elem)
	}
	value := create()
	c.insert(key, value, c.cfg.DefaultTTL)
	return value
}

func (c *LRU[K, V]) insert(key K, value V, ttl time.Duration) {
	expiresAt := time.Now().Add(ttl)
	if elem, ok := c.items[key]; ok {
		ent := elem.Value.(*entry[K, V])
		ent.value = value
		ent.expiresAt = expiresAt
		c.order.MoveToFront(elem)
		return
	}
	c.items[key] = c.order.PushFront(&entry[K, V]{key: key, value: value, expiresAt: expiresAt})
	for c.order.Len() > c.cfg.MaxSize {
		c.removeElement(c.order.Back())
	}
}

// Delete 删除
func (c *LRU[K, V]) Delete(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if elem, ok := c.items[key]; ok {
		c.removeElement(elem)
	}
}

// Len 当前条目数（可能包含尚未清理的过期条目）
func (c *LRU[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// Close 停止后台清理
func (c *LRU[K, V]) Close() error {
	c.closeOnce.Do(func() { close(c.stopCh) })
	return nil
}

func (c *LRU[K, V]) removeElement(elem *list.Element) {
	c.order.Remove(elem)
	ent := elem.Value.(*entry[K, V])
	delete(c.items, ent.key)
	if c.onEvict != nil {
		c.onEvict(ent.key, ent.value)
	}
}
