package middleware

import (
	"context"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lk2023060901/cardforge/pkg/cache/lru"
	"github.com/lk2023060901/cardforge/pkg/logger"
	"github.com/lk2023060901/cardforge/pkg/web/errors"
	"golang.org/x/time/rate"
)

// RateLimitConfig 限流配置
type RateLimitConfig struct {
	// RequestsPerSecond 每个键每秒请求数
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	// Burst 突发容量
	Burst int `mapstructure:"burst"`
	// WaitTimeout 大于 0 时进入等待模式，否则直接拒绝
	WaitTimeout time.Duration `mapstructure:"wait_timeout"`

	// MaxLimiters 最大限流器数量
	MaxLimiters int `mapstructure:"max_limiters"`
	// LimiterTTL 限流器空闲过期时间
	LimiterTTL time.Duration `mapstructure:"limiter_ttl"`
	// CleanupInterval 清理间隔
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`

	// KeyFunc 限流键生成函数，默认按客户端 IP；返回空串时使用全局限流器
	KeyFunc func(*gin.Context) string `mapstructure:"-"`
}

// DefaultRateLimitConfig 默认每个键 1 次/秒，突发 5 次
func DefaultRateLimitConfig() *RateLimitConfig {
	return &RateLimitConfig{
		RequestsPerSecond: 1,
		Burst:             5,
		MaxLimiters:       10000,
		LimiterTTL:        10 * time.Minute,
		CleanupInterval:   time.Minute,
	}
}

// RateLimiter 按键限流器
type RateLimiter struct {
	cfg      *RateLimitConfig
	global   *rate.Limiter
	limiters *lru.LRU[string, *rate.Limiter]
	logger   logger.Logger
}

// NewRateLimiter 创建限流器
func NewRateLimiter(l logger.Logger, cfg *RateLimitConfig) *RateLimiter {
	if cfg == nil {
		cfg = DefaultRateLimitConfig()
	}
	l = l.Named("ratelimit")

	return &RateLimiter{
		cfg:    cfg,
		global: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
		logger: l,
		limiters: lru.New[string, *rate.Limiter](
			lru.Config{
				MaxSize:         cfg.MaxLimiters,
				DefaultTTL:      cfg.LimiterTTL,
				CleanupInterval: cfg.CleanupInterval,
			},
			lru.WithOnEvict(func(key string, _ *rate.Limiter) {
				l.Debug("rate limiter evicted", "key", key)
			}),
		),
	}
}

// Allow 检查是否允许请求
func (rl *RateLimiter) Allow(key string) bool {
	return rl.limiter(key).Allow()
}

// Wait 等待直到允许请求
func (rl *RateLimiter) Wait(ctx context.Context, key string) error {
	return rl.limiter(key).Wait(ctx)
}

func (rl *RateLimiter) limiter(key string) *rate.Limiter {
	if key == "" {
		return rl.global
	}
	return rl.limiters.GetOrCreate(key, func() *rate.Limiter {
		return rate.NewLimiter(rate.Limit(rl.cfg.RequestsPerSecond), rl.cfg.Burst)
	})
}

// Close 关闭限流器
func (rl *RateLimiter) Close() error {
	return rl.limiters.Close()
}

// RateLimit 限流中间件
func RateLimit(limiter *RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := limitKey(c, limiter.cfg)

		if limiter.cfg.WaitTimeout > 0 {
			ctx, cancel := context.WithTimeout(c.Request.Context(), limiter.cfg.WaitTimeout)
			err := limiter.Wait(ctx, key)
			cancel()
			if err != nil {
				limiter.logger.Warn("rate limit wait timeout", "key", key, "path", c.Request.URL.Path, "error", err)
				abortWithRateLimitError(c)
				return
			}
		} else if !limiter.Allow(key) {
			limiter.logger.Warn("rate limit exceeded", "key", key, "path", c.Request.URL.Path)
			abortWithRateLimitError(c)
			return
		}

		c.Next()
	}
}

func limitKey(c *gin.Context, cfg *RateLimitConfig) string {
	if cfg.KeyFunc != nil {
		return cfg.KeyFunc(c)
	}
	return "ip:" + c.ClientIP()
}

func abortWithRateLimitError(c *gin.Context) {
	c.Header("Retry-After", strconv.Itoa(1))
	abortWithCode(c, errors.CodeRateLimited, "too many requests")
}
