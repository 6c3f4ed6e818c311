// Package event 进程内事件总线及其订阅者
package event

import (
	"context"
	"sync"
	"time"

	"github.com/lk2023060901/cardforge/app/cardforge/internal/metrics"
	"github.com/lk2023060901/cardforge/pkg/logger"
)

// Event 领域事件
type Event struct {
	Name       string         `json:"name"`
	Payload    map[string]any `json:"payload"`
	OccurredAt time.Time      `json:"occurred_at"`
}

// Listener 事件订阅者
type Listener func(ctx context.Context, e Event) error

// Bus 事件总线，按订阅顺序同步调用订阅者
type Bus struct {
	mu        sync.RWMutex
	listeners map[string][]Listener

	logger  logger.Logger
	metrics *metrics.CardMetrics
	now     func() time.Time
}

// NewBus 创建事件总线
func NewBus(l logger.Logger, m *metrics.CardMetrics) *Bus {
	return &Bus{
		listeners: make(map[string][]Listener),
		logger:    l.Named("event.bus"),
		metrics:   m,
		now:       time.Now,
	}
}

// Subscribe 订阅事件
func (b *Bus) Subscribe(name string, fn Listener) {
	b.mu.Lock()
	b.listeners[name] = append(b.listeners[name], fn)
	b.mu.Unlock()
}

// Publish 依次调用订阅者，遇到第一个错误即返回
func (b *Bus) Publish(ctx context.Context, name string, payload map[string]any) error {
	listeners := b.Listeners(name)
	e := Event{Name: name, Payload: payload, OccurredAt: b.now().UTC()}

	var err error
	for _, fn := range listeners {
		if err = fn(ctx, e); err != nil {
			break
		}
	}
	b.metrics.RecordEvent(name, err)
	if err != nil {
		b.logger.WarnContext(ctx, "event listener failed", "event", name, "error", err)
	}
	return err
}

// Clear 移除全部订阅
func (b *Bus) Clear() {
	b.mu.Lock()
	b.listeners = make(map[string][]Listener)
	b.mu.Unlock()
}

// Listeners 返回订阅者快照
func (b *Bus) Listeners(name string) []Listener {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]Listener(nil), b.listeners[name]...)
}
