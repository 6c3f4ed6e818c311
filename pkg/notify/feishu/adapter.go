// Package feishu 飞书自定义机器人通知
package feishu

import (
	"context"
	"fmt"

	"github.com/lk2023060901/cardforge/pkg/notify"
)

var _ notify.Notifier = (*Adapter)(nil)

// Adapter 飞书通知器
type Adapter struct {
	client *Client
}

// NewAdapter 创建飞书通知器
func NewAdapter(cfg *Config) (*Adapter, error) {
	client, err := NewClient(cfg)
	if err != nil {
		return nil, err
	}
	return &Adapter{client: client}, nil
}

// Send 实现 notify.Notifier
func (a *Adapter) Send(ctx context.Context, n *notify.Notice) error {
	return a.client.Send(ctx, toPost(n))
}

// Name 实现 notify.Notifier
func (a *Adapter) Name() string { return "feishu" }

func toPost(n *notify.Notice) *PostMessage {
	title := n.Title
	if n.Source != "" {
		title = n.Source + ": " + title
	}
	msg := NewPostMessage(levelEmoji(n.Level) + " " + title)
	if n.Channel != "" {
		msg.AddLine(Text("channel: " + n.Channel))
	}
	for _, k := range n.FieldKeys() {
		msg.AddLine(Text(fmt.Sprintf("• %s: %s", k, n.Fields[k])))
	}
	if !n.OccurredAt.IsZero() {
		msg.AddLine(Text("time: " + n.OccurredAt.UTC().Format("2006-01-02 15:04:05")))
	}
	if n.Level == notify.LevelCritical {
		msg.AddLine(AtAll())
	}
	return msg
}

func levelEmoji(level notify.Level) string {
	switch level {
	case notify.LevelCritical:
		return "🔴"
	case notify.LevelWarning:
		return "🟡"
	default:
		return "🟢"
	}
}
