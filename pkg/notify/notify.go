// Package notify 把运营通知推送到聊天群（审计频道等）
package notify

import (
	"context"
	"errors"
	"maps"
	"slices"
	"time"
)

// Level 通知级别
type Level string

const (
	LevelInfo     Level = "info"
	LevelWarning  Level = "warning"
	LevelCritical Level = "critical"
)

// Notice 平台无关的通知内容
type Notice struct {
	Level  Level
	Source string
	Title  string
	Fields map[string]string
	// Channel 目标频道标识，由适配器决定如何使用
	Channel    string
	OccurredAt time.Time
}

// FieldKeys 字段名（排序后），保证消息内容稳定
func (n *Notice) FieldKeys() []string {
	return slices.Sorted(maps.Keys(n.Fields))
}

// Notifier 通知器
type Notifier interface {
	Send(ctx context.Context, n *Notice) error
	Name() string
}

// Multi 依次发送到多个通知器，返回所有失败
type Multi []Notifier

// Send 实现 Notifier
func (m Multi) Send(ctx context.Context, n *Notice) error {
	if len(m) == 0 {
		return ErrNoNotifiers
	}
	var errs []error
	for _, notifier := range m {
		if err := notifier.Send(ctx, n); err != nil {
			errs = append(errs, errors.Join(ErrSendFailed, err))
		}
	}
	return errors.Join(errs...)
}

// Name 实现 Notifier
func (m Multi) Name() string { return "multi" }
