package event

import (
	"context"
	"fmt"
	"time"

	"github.com/lk2023060901/cardforge/app/cardforge/internal/service"
	"github.com/lk2023060901/cardforge/pkg/notify"
)

// NotifySink 把 admin.audit 事件推送到运营群
type NotifySink struct {
	notifier notify.Notifier
	source   string
}

// NewNotifySink 创建审计通知转发器
func NewNotifySink(n notify.Notifier, source string) *NotifySink {
	return &NotifySink{notifier: n, source: source}
}

// Listener 返回订阅者，只处理 admin.audit 事件
func (s *NotifySink) Listener() Listener {
	return s.handle
}

func (s *NotifySink) handle(ctx context.Context, e Event) error {
	if e.Name != service.EventAudit {
		return nil
	}
	action := fmt.Sprint(e.Payload["action"])
	n := &notify.Notice{
		Level:      notify.LevelInfo,
		Source:     s.source,
		Title:      action,
		Fields:     map[string]string{"audit_id": fmt.Sprint(e.Payload["id"])},
		Channel:    fmt.Sprint(e.Payload["channel"]),
		OccurredAt: e.OccurredAt,
	}
	if action == service.ActionBan {
		n.Level = notify.LevelWarning
	}
	if payload, ok := e.Payload["payload"].(map[string]any); ok {
		for k, v := range payload {
			if v == nil {
				continue
			}
			n.Fields[k] = fmt.Sprint(v)
		}
	}
	if raw, ok := e.Payload["created_at"].(string); ok {
		if created, err := time.Parse(time.RFC3339, raw); err == nil {
			n.OccurredAt = created
		}
	}
	return s.notifier.Send(ctx, n)
}
