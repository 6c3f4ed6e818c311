package kafka

import (
	"fmt"
	"time"
)

// Config Kafka 生产者配置
type Config struct {
	Brokers []string `mapstructure:"brokers"`
	// Topic 默认 topic，Message.Topic 为空时使用
	Topic string `mapstructure:"topic"`

	Async        bool          `mapstructure:"async"`
	BatchSize    int           `mapstructure:"batch_size"`
	BatchTimeout time.Duration `mapstructure:"batch_timeout"`
	MaxRetries   int           `mapstructure:"max_retries"`
	// RequiredAcks 0: 不等待确认, 1: 等待 Leader, -1: 等待所有副本
	RequiredAcks int `mapstructure:"required_acks"`
	// Compression none, gzip, snappy, lz4, zstd
	Compression  string        `mapstructure:"compression"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// DefaultConfig 默认配置
func DefaultConfig() *Config {
	return &Config{
		Topic:        "cardforge.events",
		BatchSize:    100,
		BatchTimeout: 50 * time.Millisecond,
		MaxRetries:   3,
		RequiredAcks: 1,
		Compression:  "snappy",
		WriteTimeout: 10 * time.Second,
	}
}

// Validate 验证配置
func (c *Config) Validate() error {
	if len(c.Brokers) == 0 {
		return fmt.Errorf("%w: brokers is empty", ErrInvalidConfig)
	}
	if c.Topic == "" {
		return fmt.Errorf("%w: topic is empty", ErrInvalidConfig)
	}
	if c.RequiredAcks < -1 || c.RequiredAcks > 1 {
		return fmt.Errorf("%w: required_acks must be -1, 0 or 1", ErrInvalidConfig)
	}
	return nil
}
