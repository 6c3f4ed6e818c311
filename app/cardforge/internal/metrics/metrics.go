// Package metrics 定义 cardforge 服务的 Prometheus 指标
package metrics

import (
	"github.com/lk2023060901/cardforge/pkg/prometheus"
	prom "github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap/zapcore"
)

// 掉落结果标签
const (
	ResultOK        = "ok"
	ResultCooldown  = "cooldown"
	ResultBanned    = "banned"
	ResultExhausted = "exhausted"
	ResultError     = "error"
)

// CardMetrics cardforge 服务指标，所有方法允许 nil 接收者
type CardMetrics struct {
	// 掉落指标
	DropsTotal   *prom.CounterVec   // 掉落请求总数（按卡包、结果）
	CardsDrawn   *prom.CounterVec   // 抽出的卡牌（按稀有度、是否重复）
	DropDuration *prom.HistogramVec // 掉落处理延迟

	// 管理操作
	AdminActions *prom.CounterVec

	// 事件总线
	EventsPublished *prom.CounterVec // 按事件名、结果

	// 存储
	StoreOps      *prom.CounterVec
	StoreDuration *prom.HistogramVec

	// HTTP
	HTTPRequests *prom.CounterVec
	HTTPDuration *prom.HistogramVec

	// 日志条数（按级别）
	LogEntries *prom.CounterVec
}

// New 在客户端的 Registry 上创建并注册全部指标
func New(c *prometheus.Client) (*CardMetrics, error) {
	m := &CardMetrics{}
	var err error
	counter := func(name, help string, labels ...string) *prom.CounterVec {
		if err != nil {
			return nil
		}
		var v *prom.CounterVec
		v, err = c.NewCounter(name, help, labels)
		return v
	}
	histogram := func(name, help string, buckets []float64, labels ...string) *prom.HistogramVec {
		if err != nil {
			return nil
		}
		var v *prom.HistogramVec
		v, err = c.NewHistogram(name, help, labels, buckets)
		return v
	}

	dbBuckets := []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1}

	m.DropsTotal = counter("drops_total", "Drop requests by pack and result.", "pack", "result")
	m.CardsDrawn = counter("cards_drawn_total", "Cards drawn by rarity and duplicate flag.", "rarity", "duplicate")
	m.DropDuration = histogram("drop_duration_seconds", "Drop handling latency in seconds.", dbBuckets)
	m.AdminActions = counter("admin_actions_total", "Administrative actions performed.", "action")
	m.EventsPublished = counter("events_published_total", "Events published on the bus.", "event", "result")
	m.StoreOps = counter("store_operations_total", "Storage operations by backend, operation and result.", "backend", "operation", "result")
	m.StoreDuration = histogram("store_operation_duration_seconds", "Storage operation latency in seconds.", dbBuckets, "backend", "operation")
	m.HTTPRequests = counter("http_requests_total", "HTTP requests by route, method and status.", "route", "method", "status")
	m.HTTPDuration = histogram("http_request_duration_seconds", "HTTP request latency in seconds.", nil, "route", "method")
	m.LogEntries = counter("log_entries_total", "Log entries by level.", "level")

	if err != nil {
		return nil, err
	}
	return m, nil
}

// RecordDrop 记录一次掉落请求
func (m *CardMetrics) RecordDrop(pack, result string, seconds float64) {
	if m == nil {
		return
	}
	m.DropsTotal.WithLabelValues(pack, result).Inc()
	m.DropDuration.WithLabelValues().Observe(seconds)
}

// RecordCard 记录抽出的单张卡牌
func (m *CardMetrics) RecordCard(rarity string, duplicate bool) {
	if m == nil {
		return
	}
	m.CardsDrawn.WithLabelValues(rarity, boolLabel(duplicate)).Inc()
}

// RecordAdmin 记录管理操作
func (m *CardMetrics) RecordAdmin(action string) {
	if m == nil {
		return
	}
	m.AdminActions.WithLabelValues(action).Inc()
}

// RecordEvent 记录事件发布
func (m *CardMetrics) RecordEvent(event string, err error) {
	if m == nil {
		return
	}
	m.EventsPublished.WithLabelValues(event, resultLabel(err)).Inc()
}

// RecordStoreOp 记录存储操作
func (m *CardMetrics) RecordStoreOp(backend, op string, err error, seconds float64) {
	if m == nil {
		return
	}
	m.StoreOps.WithLabelValues(backend, op, resultLabel(err)).Inc()
	m.StoreDuration.WithLabelValues(backend, op).Observe(seconds)
}

// ObserveHTTP 实现 middleware.RequestObserver
func (m *CardMetrics) ObserveHTTP(route, method, status string, seconds float64) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(route, method, status).Inc()
	m.HTTPDuration.WithLabelValues(route, method).Observe(seconds)
}

// ObserveLog 供 logger.LevelCounterHook 使用
func (m *CardMetrics) ObserveLog(level zapcore.Level) {
	if m == nil {
		return
	}
	m.LogEntries.WithLabelValues(level.String()).Inc()
}

func resultLabel(err error) string {
	if err != nil {
		return "failed"
	}
	return "success"
}

func boolLabel(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
