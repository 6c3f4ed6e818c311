package service

import "context"

// 领域事件名称
const (
	EventDropCompleted   = "player.drop.completed"
	EventUserBanned      = "admin.user.banned"
	EventUserUnbanned    = "admin.user.unbanned"
	EventCurrencyGranted = "admin.currency.granted"
	EventCardGranted     = "admin.card.granted"
	EventXPAdjusted      = "admin.xp.adjusted"
	EventAudit           = "admin.audit"
)

// Publisher 事件发布接口，由 event.Bus 实现
type Publisher interface {
	Publish(ctx context.Context, name string, payload map[string]any) error
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, string, map[string]any) error { return nil }

func publisherOrNop(p Publisher) Publisher {
	if p == nil {
		return nopPublisher{}
	}
	return p
}

func lockerOrDefault(l KeyLocker) KeyLocker {
	if l == nil {
		return NewStripedLocker(0)
	}
	return l
}
