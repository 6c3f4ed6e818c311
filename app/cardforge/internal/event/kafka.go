package event

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/lk2023060901/cardforge/pkg/mq/kafka"
)

// MessagePublisher 由 kafka.Producer 实现
type MessagePublisher interface {
	Publish(ctx context.Context, msg *kafka.Message) error
}

// KafkaSink 把事件以 JSON 转发到 Kafka，消息键为 user_id
type KafkaSink struct {
	producer MessagePublisher
	topic    string
}

// NewKafkaSink 创建 Kafka 转发器，topic 为空时使用生产者的默认 topic
func NewKafkaSink(p MessagePublisher, topic string) *KafkaSink {
	return &KafkaSink{producer: p, topic: topic}
}

// Listener 返回可订阅到总线的订阅者
func (s *KafkaSink) Listener() Listener {
	return s.handle
}

func (s *KafkaSink) handle(ctx context.Context, e Event) error {
	value, err := json.Marshal(e)
	if err != nil {
		return errors.Wrapf(err, "encode event %s", e.Name)
	}
	msg := &kafka.Message{
		Topic:   s.topic,
		Value:   value,
		Headers: map[string]string{"event": e.Name},
	}
	if uid, ok := e.Payload["user_id"]; ok && uid != nil {
		msg.Key = []byte(fmt.Sprint(uid))
	}
	return s.producer.Publish(ctx, msg)
}
