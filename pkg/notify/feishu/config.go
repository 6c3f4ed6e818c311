package feishu

import (
	"fmt"
	"strings"
	"time"

	"github.com/lk2023060901/cardforge/pkg/notify"
)

// Config 飞书自定义机器人配置，WebhookURL 为空表示不启用
type Config struct {
	WebhookURL string `mapstructure:"webhook_url" json:"webhook_url"`
	// Secret 机器人开启签名校验时填写
	Secret  string        `mapstructure:"secret" json:"secret"`
	Timeout time.Duration `mapstructure:"timeout" json:"timeout"`
}

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{Timeout: 5 * time.Second}
}

// Enabled 是否配置了 Webhook
func (c *Config) Enabled() bool {
	return c != nil && c.WebhookURL != ""
}

// Validate 验证配置
func (c *Config) Validate() error {
	if c.WebhookURL == "" {
		return fmt.Errorf("%w: webhook_url is required", notify.ErrInvalidConfig)
	}
	if !strings.HasPrefix(c.WebhookURL, "http://") && !strings.HasPrefix(c.WebhookURL, "https://") {
		return fmt.Errorf("%w: webhook_url must start with http:// or https://", notify.ErrInvalidConfig)
	}
	if c.Timeout <= 0 {
		c.Timeout = 5 * time.Second
	}
	return nil
}
