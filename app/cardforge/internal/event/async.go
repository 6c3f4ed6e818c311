package event

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/lk2023060901/cardforge/pkg/logger"
	"github.com/panjf2000/ants/v2"
)

// AsyncConfig 异步分发配置
type AsyncConfig struct {
	PoolSize int `mapstructure:"pool_size"`
	// Nonblocking 为 true 时池满立即失败而不是等待
	Nonblocking     bool          `mapstructure:"nonblocking"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// AsyncDispatcher 在 goroutine 池中执行订阅者，发布方不等待其完成
type AsyncDispatcher struct {
	pool    *ants.Pool
	timeout time.Duration
	logger  logger.Logger
}

// NewAsyncDispatcher 创建异步分发器
func NewAsyncDispatcher(cfg AsyncConfig, l logger.Logger) (*AsyncDispatcher, error) {
	if cfg.PoolSize <= 0 {
		cfg.PoolSize = 64
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 5 * time.Second
	}
	log := l.Named("event.async")
	pool, err := ants.NewPool(cfg.PoolSize,
		ants.WithNonblocking(cfg.Nonblocking),
		ants.WithPanicHandler(func(r any) {
			log.Error("async listener panicked", "panic", r)
		}),
	)
	if err != nil {
		return nil, errors.Wrap(err, "create event pool")
	}
	return &AsyncDispatcher{pool: pool, timeout: cfg.ShutdownTimeout, logger: log}, nil
}

// Wrap 返回异步版本的订阅者；订阅者自身的错误只记录日志
func (d *AsyncDispatcher) Wrap(name string, fn Listener) Listener {
	return func(ctx context.Context, e Event) error {
		// 请求结束后 ctx 会被取消，异步任务不继承取消信号
		detached := context.WithoutCancel(ctx)
		err := d.pool.Submit(func() {
			if err := fn(detached, e); err != nil {
				d.logger.Warn("async listener failed", "listener", name, "event", e.Name, "error", err)
			}
		})
		if err != nil {
			return errors.Wrapf(err, "dispatch %s to %s", e.Name, name)
		}
		return nil
	}
}

// Running 正在执行的任务数
func (d *AsyncDispatcher) Running() int {
	return d.pool.Running()
}

// Close 等待已提交的任务完成后释放池
func (d *AsyncDispatcher) Close() error {
	return d.pool.ReleaseTimeout(d.timeout)
}
