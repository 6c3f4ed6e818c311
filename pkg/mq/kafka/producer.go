package kafka

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/lk2023060901/cardforge/pkg/config"
	"github.com/lk2023060901/cardforge/pkg/logger"
	"github.com/segmentio/kafka-go"
)

// Message 待发布的消息
type Message struct {
	Topic   string
	Key     []byte
	Value   []byte
	Headers map[string]string
}

// ProducerStats 生产者统计
type ProducerStats struct {
	MessagesProduced  int64
	MessagesSucceeded int64
	MessagesFailed    int64
	LastMessageTime   time.Time
}

// messageWriter kafka.Writer 的最小子集，便于测试替换
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer Kafka 生产者
type Producer struct {
	cfg    *Config
	writer messageWriter
	logger logger.Logger

	produced  atomic.Int64
	succeeded atomic.Int64
	failed    atomic.Int64
	lastSent  atomic.Int64

	closed atomic.Bool
}

// NewProducer 创建生产者
func NewProducer(cfg *Config, l logger.Logger) (*Producer, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: config is nil", ErrInvalidConfig)
	}
	merged, err := config.MergeConfig(DefaultConfig(), cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to merge config: %w", err)
	}
	if err := merged.Validate(); err != nil {
		return nil, err
	}

	w := &kafka.Writer{
		Addr:                   kafka.TCP(merged.Brokers...),
		Balancer:               &kafka.Hash{},
		BatchSize:              merged.BatchSize,
		BatchTimeout:           merged.BatchTimeout,
		MaxAttempts:            merged.MaxRetries + 1,
		WriteTimeout:           merged.WriteTimeout,
		RequiredAcks:           kafka.RequiredAcks(merged.RequiredAcks),
		Async:                  merged.Async,
		Compression:            parseCompression(merged.Compression),
		AllowAutoTopicCreation: true,
	}
	return newProducerWithWriter(merged, w, l), nil
}

func newProducerWithWriter(cfg *Config, w messageWriter, l logger.Logger) *Producer {
	if l == nil {
		l = logger.NewNoop()
	}
	return &Producer{cfg: cfg, writer: w, logger: l.Named("kafka.producer")}
}

// Publish 发布单条消息，相同 Key 的消息进入同一分区
func (p *Producer) Publish(ctx context.Context, msg *Message) error {
	if p.closed.Load() {
		return ErrProducerClosed
	}
	p.produced.Add(1)

	km := kafka.Message{
		Topic: msg.Topic,
		Key:   msg.Key,
		Value: msg.Value,
	}
	if km.Topic == "" {
		km.Topic = p.cfg.Topic
	}
	if len(msg.Headers) > 0 {
		km.Headers = make([]kafka.Header, 0, len(msg.Headers))
		for k, v := range msg.Headers {
			km.Headers = append(km.Headers, kafka.Header{Key: k, Value: []byte(v)})
		}
	}

	if err := p.writer.WriteMessages(ctx, km); err != nil {
		p.failed.Add(1)
		p.logger.Warn("publish failed", "topic", km.Topic, "error", err)
		return fmt.Errorf("kafka publish to %s: %w", km.Topic, err)
	}
	p.succeeded.Add(1)
	p.lastSent.Store(time.Now().UnixNano())
	return nil
}

// Stats 返回统计信息
func (p *Producer) Stats() ProducerStats {
	s := ProducerStats{
		MessagesProduced:  p.produced.Load(),
		MessagesSucceeded: p.succeeded.Load(),
		MessagesFailed:    p.failed.Load(),
	}
	if ns := p.lastSent.Load(); ns > 0 {
		s.LastMessageTime = time.Unix(0, ns)
	}
	return s
}

// Close 关闭生产者，异步模式下会刷出缓冲的消息
func (p *Producer) Close() error {
	if p.closed.Swap(true) {
		return nil
	}
	p.logger.Debug("producer closing", "topic", p.cfg.Topic)
	return p.writer.Close()
}

func parseCompression(s string) kafka.Compression {
	switch s {
	case "gzip":
		return kafka.Gzip
	case "snappy":
		return kafka.Snappy
	case "lz4":
		return kafka.Lz4
	case "zstd":
		return kafka.Zstd
	default:
		return 0
	}
}
