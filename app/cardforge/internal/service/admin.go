package service

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/lk2023060901/cardforge/app/cardforge/internal/catalog"
	"github.com/lk2023060901/cardforge/app/cardforge/internal/dao"
	"github.com/lk2023060901/cardforge/app/cardforge/internal/metrics"
	"github.com/lk2023060901/cardforge/app/cardforge/internal/model"
	"github.com/lk2023060901/cardforge/pkg/idgen"
	"github.com/lk2023060901/cardforge/pkg/logger"
)

// 审计动作
const (
	ActionBan           = "ban"
	ActionUnban         = "unban"
	ActionGrantCurrency = "grant_currency"
	ActionGrantCard     = "grant_card"
	ActionAdjustXP      = "adjust_xp"
	ActionSetCooldown   = "set_cooldown"
)

// AdminDeps 管理服务依赖
type AdminDeps struct {
	Players    dao.PlayerStore
	Audit      dao.AuditStore
	Catalog    *catalog.Catalog
	Currencies *catalog.CurrencyRegistry
	Events     Publisher
	Locker     KeyLocker
	AuditIDs   idgen.StringGenerator
	Metrics    *metrics.CardMetrics
}

// AdminService 管理操作，每次操作写一条审计记录
type AdminService struct {
	deps   AdminDeps
	cfg    AdminConfig
	logger logger.Logger
	now    func() time.Time
}

// NewAdminService 创建管理服务
func NewAdminService(deps AdminDeps, cfg AdminConfig, l logger.Logger) *AdminService {
	deps.Events = publisherOrNop(deps.Events)
	deps.Locker = lockerOrDefault(deps.Locker)
	if deps.AuditIDs == nil {
		deps.AuditIDs = idgen.NewNanoID(21)
	}
	return &AdminService{
		deps:   deps,
		cfg:    cfg,
		logger: l.Named("service.admin"),
		now:    time.Now,
	}
}

// Config 管理配置
func (s *AdminService) Config() AdminConfig {
	return s.cfg
}

// BanUser 封禁用户，用户不存在时也会记录封禁状态
func (s *AdminService) BanUser(ctx context.Context, userID int64, reason string) error {
	if err := s.deps.Players.MarkBanned(ctx, userID, true); err != nil {
		return errors.Wrapf(err, "ban user %d", userID)
	}
	var r any
	if reason != "" {
		r = reason
	}
	payload := map[string]any{"user_id": userID, "reason": r}
	return s.finish(ctx, ActionBan, payload, EventUserBanned)
}

// UnbanUser 解除封禁
func (s *AdminService) UnbanUser(ctx context.Context, userID int64) error {
	if err := s.deps.Players.MarkBanned(ctx, userID, false); err != nil {
		return errors.Wrapf(err, "unban user %d", userID)
	}
	return s.finish(ctx, ActionUnban, map[string]any{"user_id": userID}, EventUserUnbanned)
}

// GrantCurrency 发放货币
func (s *AdminService) GrantCurrency(ctx context.Context, userID int64, currency string, amount int64) error {
	if amount <= 0 {
		return newKind(ErrInvalidAmount, "Amount must be positive")
	}
	if err := s.deps.Currencies.EnsureCodes(currency); err != nil {
		return asKind(ErrUnknownCurrency, err)
	}
	if err := s.update(ctx, userID, func(r *model.PlayerRecord) error {
		return r.Wallet.Credit(currency, amount)
	}); err != nil {
		return err
	}
	payload := map[string]any{"user_id": userID, "currency": currency, "amount": amount}
	return s.finish(ctx, ActionGrantCurrency, payload, EventCurrencyGranted)
}

// GrantCard 发放卡牌，已达持有上限时失败
func (s *AdminService) GrantCard(ctx context.Context, userID int64, cardID string, quantity int) error {
	if quantity <= 0 {
		return newKind(ErrInvalidAmount, "Quantity must be positive")
	}
	card, err := s.deps.Catalog.GetCard(cardID)
	if err != nil {
		return err
	}
	if err := s.update(ctx, userID, func(r *model.PlayerRecord) error {
		current := r.Inventory[card.ID]
		if card.AtCap(current) {
			return newKind(ErrNoCardsAvailable, "Cannot grant card %s: limit reached", card.ID)
		}
		r.Inventory[card.ID] = current + quantity
		return nil
	}); err != nil {
		return err
	}
	payload := map[string]any{"user_id": userID, "card_id": card.ID, "quantity": quantity}
	return s.finish(ctx, ActionGrantCard, payload, EventCardGranted)
}

// AdjustExperience 调整经验，结果不小于 0
func (s *AdminService) AdjustExperience(ctx context.Context, userID int64, delta int64) error {
	if err := s.update(ctx, userID, func(r *model.PlayerRecord) error {
		r.AddExperience(delta)
		return nil
	}); err != nil {
		return err
	}
	return s.finish(ctx, ActionAdjustXP, map[string]any{"user_id": userID, "delta": delta}, EventXPAdjusted)
}

// SetCooldown 设置上次掉落时间，nil 表示清除冷却；不发布事件
func (s *AdminService) SetCooldown(ctx context.Context, userID int64, ts *time.Time) error {
	var stored *time.Time
	if ts != nil {
		t := ts.UTC()
		stored = &t
	}
	if err := s.update(ctx, userID, func(r *model.PlayerRecord) error {
		r.LastDropAt = stored
		return nil
	}); err != nil {
		return err
	}
	var formatted any
	if stored != nil {
		formatted = stored.Format(time.RFC3339)
	}
	return s.finish(ctx, ActionSetCooldown, map[string]any{"user_id": userID, "timestamp": formatted}, "")
}

// RecentAudit 最近的审计记录
func (s *AdminService) RecentAudit(ctx context.Context, limit int) ([]*model.AuditEntry, error) {
	return s.deps.Audit.Recent(ctx, limit)
}

func (s *AdminService) update(ctx context.Context, userID int64, fn func(*model.PlayerRecord) error) error {
	unlock, err := s.deps.Locker.Lock(ctx, userID)
	if err != nil {
		return err
	}
	defer unlock()

	record, err := s.deps.Players.GetOrCreate(ctx, userID, "")
	if err != nil {
		return errors.Wrapf(err, "load player %d", userID)
	}
	if err := fn(record); err != nil {
		return err
	}
	if err := s.deps.Players.Save(ctx, record); err != nil {
		return errors.Wrapf(err, "save player %d", userID)
	}
	return nil
}

// finish 写审计并发布事件，event 为空时不发布
func (s *AdminService) finish(ctx context.Context, action string, payload map[string]any, event string) error {
	s.deps.Metrics.RecordAdmin(action)
	s.logger.InfoContext(ctx, "admin action", "action", action, "payload", payload)

	if err := s.audit(ctx, action, payload); err != nil {
		return err
	}
	if event == "" {
		return nil
	}
	if err := s.deps.Events.Publish(ctx, event, payload); err != nil {
		return errors.Wrapf(err, "publish %s", event)
	}
	return nil
}

func (s *AdminService) audit(ctx context.Context, action string, payload map[string]any) error {
	if !s.cfg.EnableAuditLogs {
		return nil
	}
	now := s.now().UTC()
	id, err := s.deps.AuditIDs.NextString()
	if err != nil {
		return errors.Wrap(err, "generate audit id")
	}

	// 调用方的字段优先，set_cooldown 自带 timestamp
	body := make(map[string]any, len(payload)+1)
	body["timestamp"] = now.Format(time.RFC3339)
	for k, v := range payload {
		body[k] = v
	}

	entry := &model.AuditEntry{ID: id, CreatedAt: now, Action: action, Payload: body}
	if err := s.deps.Audit.AddEntry(ctx, entry); err != nil {
		return errors.Wrapf(err, "write audit %s", action)
	}

	if s.cfg.AuditChannel != 0 {
		if err := s.deps.Events.Publish(ctx, EventAudit, map[string]any{
			"id":         entry.ID,
			"channel":    s.cfg.AuditChannel,
			"action":     action,
			"payload":    body,
			"created_at": now.Format(time.RFC3339),
		}); err != nil {
			return errors.Wrapf(err, "publish %s", EventAudit)
		}
	}
	return nil
}
