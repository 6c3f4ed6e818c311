package sentry

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/lk2023060901/cardforge/pkg/logger"
)

// Reporter 错误上报接口，业务模块只依赖此接口
type Reporter interface {
	CaptureError(ctx context.Context, err error, tags map[string]string)
	CapturePanic(recovered any)
	Flush(timeout time.Duration) bool
}

var (
	_ Reporter = (*Client)(nil)
	_ Reporter = NopReporter{}
)

// NopReporter 不做任何上报
type NopReporter struct{}

func (NopReporter) CaptureError(context.Context, error, map[string]string) {}
func (NopReporter) CapturePanic(any)                                       {}
func (NopReporter) Flush(time.Duration) bool                               { return true }

// Stats 统计信息
type Stats struct {
	EventsTotal    uint64
	EventsCaptured uint64
}

// Client Sentry 客户端，使用独立 Hub 避免污染全局状态
type Client struct {
	hub    *sentry.Hub
	config *Config
	closed atomic.Bool

	eventsTotal    atomic.Uint64
	eventsCaptured atomic.Uint64
}

// New 创建 Sentry 客户端
func New(cfg *Config) (*Client, error) {
	return newClient(cfg, nil)
}

// NewReporter 根据配置返回 Reporter，未配置 DSN 时返回 NopReporter
func NewReporter(cfg *Config) (Reporter, error) {
	if !cfg.Enabled() {
		return NopReporter{}, nil
	}
	return New(cfg)
}

func newClient(cfg *Config, transport sentry.Transport) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	opts := cfg.toClientOptions()
	if transport != nil {
		opts.Transport = transport
	}
	client, err := sentry.NewClient(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create sentry client: %w", err)
	}

	hub := sentry.NewHub(client, sentry.NewScope())
	hub.ConfigureScope(func(scope *sentry.Scope) {
		for k, v := range cfg.Tags {
			scope.SetTag(k, v)
		}
	})

	return &Client{hub: hub, config: cfg}, nil
}

// CaptureError 上报错误，tags 只作用于本次事件
func (c *Client) CaptureError(ctx context.Context, err error, tags map[string]string) {
	if err == nil || c.closed.Load() {
		return
	}
	c.eventsTotal.Add(1)

	var id *sentry.EventID
	c.hub.WithScope(func(scope *sentry.Scope) {
		for k, v := range tags {
			scope.SetTag(k, v)
		}
		if ctx != nil {
			if rid, ok := logger.RequestIDFrom(ctx); ok {
				scope.SetTag("request_id", rid)
			}
		}
		id = c.hub.CaptureException(err)
	})
	if id != nil && *id != "" {
		c.eventsCaptured.Add(1)
	}
}

// CapturePanic 上报 recover 得到的值，不会重新抛出
func (c *Client) CapturePanic(recovered any) {
	if recovered == nil || c.closed.Load() {
		return
	}
	c.eventsTotal.Add(1)
	if id := c.hub.Recover(recovered); id != nil && *id != "" {
		c.eventsCaptured.Add(1)
	}
}

// Flush 等待事件发送完成
func (c *Client) Flush(timeout time.Duration) bool {
	return c.hub.Flush(timeout)
}

// Stats 获取统计信息
func (c *Client) Stats() Stats {
	return Stats{
		EventsTotal:    c.eventsTotal.Load(),
		EventsCaptured: c.eventsCaptured.Load(),
	}
}

// Close 刷新并关闭客户端，重复调用无副作用
func (c *Client) Close() error {
	if c.closed.Swap(true) {
		return nil
	}
	c.hub.Flush(c.config.ShutdownTimeout)
	return nil
}
