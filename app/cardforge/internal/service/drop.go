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

// DropOutcome 一次掉落的结果
type DropOutcome struct {
	Cards      []*model.Card `json:"cards"`
	Reward     model.Reward  `json:"reward"`
	Duplicates []*model.Card `json:"duplicates"`
	NextDropAt time.Time     `json:"next_drop_at"`
}

// DropDeps 掉落服务依赖
type DropDeps struct {
	Catalog    *catalog.Catalog
	Currencies *catalog.CurrencyRegistry
	Players    dao.PlayerStore
	History    dao.DropHistoryStore
	Events     Publisher
	Locker     KeyLocker
	Random     RandomSource
	IDs        idgen.Generator
	Metrics    *metrics.CardMetrics
}

// DropService 卡包掉落：冷却、加权抽取、重复卡处理与奖励结算
type DropService struct {
	deps     DropDeps
	cfg      DropConfig
	strategy DuplicateStrategy
	logger   logger.Logger
	now      func() time.Time
}

// NewDropService 创建掉落服务
func NewDropService(deps DropDeps, cfg DropConfig, l logger.Logger) *DropService {
	deps.Events = publisherOrNop(deps.Events)
	deps.Locker = lockerOrDefault(deps.Locker)
	if deps.Random == nil {
		deps.Random = NewCryptoSource()
	}
	if deps.IDs == nil {
		deps.IDs = idgen.NewSequence(1)
	}
	if cfg.MaxCardsPerDrop < 1 {
		cfg.MaxCardsPerDrop = 1
	}
	return &DropService{
		deps:     deps,
		cfg:      cfg,
		strategy: NewDuplicateStrategy(cfg),
		logger:   l.Named("service.drop"),
		now:      time.Now,
	}
}

// WithStrategy 替换重复卡策略
func (s *DropService) WithStrategy(strategy DuplicateStrategy) *DropService {
	s.strategy = strategy
	return s
}

// Config 当前掉落规则
func (s *DropService) Config() DropConfig {
	return s.cfg
}

// DefaultPackID 未指定卡包时使用的卡包：配置的默认卡包，否则第一个注册的卡包
func (s *DropService) DefaultPackID() string {
	if s.cfg.DefaultPack != "" {
		return s.cfg.DefaultPack
	}
	if p, ok := s.deps.Catalog.FirstPack(); ok {
		return p.ID
	}
	return ""
}

// DropFromPack 从卡包掉落卡牌
func (s *DropService) DropFromPack(ctx context.Context, userID int64, packID, username string) (*DropOutcome, error) {
	start := time.Now()
	outcome, dupFlags, err := s.dropLocked(ctx, userID, packID, username)
	s.deps.Metrics.RecordDrop(packID, dropResult(err), time.Since(start).Seconds())
	if err != nil {
		return nil, err
	}
	for i, c := range outcome.Cards {
		s.deps.Metrics.RecordCard(string(c.Rarity), dupFlags[i])
	}
	return outcome, nil
}

// dropLocked 返回结果以及每张抽出的卡是否按重复处理
func (s *DropService) dropLocked(ctx context.Context, userID int64, packID, username string) (*DropOutcome, []bool, error) {
	unlock, err := s.deps.Locker.Lock(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	defer unlock()

	record, err := s.deps.Players.GetOrCreate(ctx, userID, username)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "load player %d", userID)
	}
	if record.IsBanned {
		return nil, nil, newKind(ErrPlayerBanned, "User %d is banned", userID)
	}

	now := s.now().UTC()
	if remaining := s.cooldownRemaining(record, now); remaining > 0 {
		return nil, nil, &CooldownActiveError{SecondsRemaining: remaining}
	}

	pack, err := s.deps.Catalog.GetPack(packID)
	if err != nil {
		return nil, nil, err
	}
	allowDuplicates := s.cfg.AllowDuplicates && pack.AllowDuplicates

	cards := make([]*model.Card, 0, len(pack.Cards))
	for _, id := range pack.Cards {
		card, err := s.deps.Catalog.GetCard(id)
		if err != nil {
			return nil, nil, err
		}
		cards = append(cards, card)
	}

	eligible := filterEligible(cards, record, allowDuplicates)
	if len(eligible) == 0 {
		return nil, nil, newKind(ErrNoCardsAvailable, "No cards available for pack %s", packID)
	}

	count := min(pack.MaxPerRoll, s.cfg.MaxCardsPerDrop, len(eligible))
	drawn := s.draw(pack, eligible, count, allowDuplicates)

	var (
		reward     model.Reward
		duplicates []*model.Card
		dupFlags   = make([]bool, len(drawn))
	)
	for i, card := range drawn {
		owned := record.Inventory[card.ID]
		if (!allowDuplicates && owned > 0) || card.AtCap(owned) {
			dupFlags[i] = true
			duplicates = append(duplicates, card)
			reward = reward.Merge(s.strategy.Substitute(card, record, s.cfg))
			continue
		}
		record.Inventory[card.ID] = owned + 1
		reward = reward.Merge(card.Reward)
	}

	if len(reward.Currencies) > 0 {
		if err := s.deps.Currencies.EnsureCodes(reward.CurrencyCodes()...); err != nil {
			return nil, nil, asKind(ErrUnknownCurrency, err)
		}
	}

	if err := record.Wallet.Merge(reward.Currencies); err != nil {
		return nil, nil, asKind(ErrInsufficientCurrency, err)
	}
	record.AddExperience(reward.Experience)
	record.LastDropAt = &now
	if err := s.deps.Players.Save(ctx, record); err != nil {
		return nil, nil, errors.Wrapf(err, "save player %d", userID)
	}

	cardIDs := make([]string, len(drawn))
	for i, c := range drawn {
		cardIDs[i] = c.ID
	}
	historyID, err := s.deps.IDs.NextID()
	if err != nil {
		return nil, nil, errors.Wrap(err, "generate drop record id")
	}
	if err := s.deps.History.AddRecord(ctx, &model.DropHistoryRecord{
		ID:        historyID,
		UserID:    userID,
		CardIDs:   cardIDs,
		Timestamp: now,
		Rewards:   reward.Currencies,
	}); err != nil {
		return nil, nil, errors.Wrapf(err, "record drop for %d", userID)
	}

	if err := s.deps.Events.Publish(ctx, EventDropCompleted, map[string]any{
		"user_id": userID,
		"pack_id": packID,
		"cards":   cardIDs,
		"reward":  reward.Currencies,
	}); err != nil {
		return nil, nil, errors.Wrapf(err, "publish %s", EventDropCompleted)
	}

	s.logger.DebugContext(ctx, "drop completed",
		"user_id", userID,
		"pack_id", packID,
		"cards", cardIDs,
		"duplicates", len(duplicates),
	)

	return &DropOutcome{
		Cards:      drawn,
		Reward:     reward,
		Duplicates: duplicates,
		NextDropAt: now.Add(time.Duration(s.cfg.BaseCooldownSeconds) * time.Second),
	}, dupFlags, nil
}

// CooldownRemaining 剩余冷却秒数
func (s *DropService) CooldownRemaining(ctx context.Context, userID int64) (int64, error) {
	record, err := s.deps.Players.GetOrCreate(ctx, userID, "")
	if err != nil {
		return 0, errors.Wrapf(err, "load player %d", userID)
	}
	return s.cooldownRemaining(record, s.now().UTC()), nil
}

// IsBanned 是否被封禁
func (s *DropService) IsBanned(ctx context.Context, userID int64) (bool, error) {
	record, err := s.deps.Players.GetOrCreate(ctx, userID, "")
	if err != nil {
		return false, errors.Wrapf(err, "load player %d", userID)
	}
	return record.IsBanned, nil
}

// RecentDrops 最近的掉落记录，limit <= 0 时取 20 条
func (s *DropService) RecentDrops(ctx context.Context, userID int64, limit int) ([]*model.DropHistoryRecord, error) {
	if limit <= 0 {
		limit = dao.DefaultHistoryLimit
	}
	return s.deps.History.RecentForUser(ctx, userID, limit)
}

func (s *DropService) cooldownRemaining(record *model.PlayerRecord, now time.Time) int64 {
	if record.LastDropAt == nil {
		return 0
	}
	elapsed := int64(now.UTC().Sub(record.LastDropAt.UTC()).Seconds())
	return max(0, s.cfg.BaseCooldownSeconds-elapsed)
}

func filterEligible(cards []*model.Card, record *model.PlayerRecord, allowDuplicates bool) []*model.Card {
	if allowDuplicates {
		return cards
	}
	out := make([]*model.Card, 0, len(cards))
	for _, card := range cards {
		owned := record.Inventory[card.ID]
		if owned > 0 || card.AtCap(owned) {
			continue
		}
		out = append(out, card)
	}
	return out
}

// draw 允许重复时有放回抽取，否则每次抽中后移出候选池
func (s *DropService) draw(pack *model.CardPack, cards []*model.Card, count int, allowDuplicates bool) []*model.Card {
	weights := make([]float64, len(cards))
	for i, c := range cards {
		weights[i] = s.cardWeight(c, pack)
	}

	out := make([]*model.Card, 0, count)
	if allowDuplicates {
		for range count {
			out = append(out, cards[weightedIndex(weights, s.deps.Random)])
		}
		return out
	}

	pool := append([]*model.Card(nil), cards...)
	for range min(count, len(pool)) {
		idx := weightedIndex(weights, s.deps.Random)
		out = append(out, pool[idx])
		pool = append(pool[:idx], pool[idx+1:]...)
		weights = append(weights[:idx], weights[idx+1:]...)
	}
	return out
}

// cardWeight 依次取卡包卡牌权重、卡牌权重、卡包稀有度权重、全局稀有度权重，均无效时为 1
func (s *DropService) cardWeight(card *model.Card, pack *model.CardPack) float64 {
	if w, ok := pack.CardWeights[card.ID]; ok && w > 0 {
		return w
	}
	if card.DropWeight != nil && *card.DropWeight > 0 {
		return *card.DropWeight
	}
	if w, ok := pack.RarityWeights[string(card.Rarity)]; ok && w > 0 {
		return w
	}
	if w, ok := s.cfg.RarityWeights[string(card.Rarity)]; ok && w > 0 {
		return w
	}
	return 1.0
}

func weightedIndex(weights []float64, rng RandomSource) int {
	var total float64
	for _, w := range weights {
		total += w
	}
	if total <= 0 {
		return min(int(rng.Float64()*float64(len(weights))), len(weights)-1)
	}
	threshold := rng.Float64() * total
	var cumulative float64
	for i, w := range weights {
		cumulative += w
		if threshold <= cumulative {
			return i
		}
	}
	return len(weights) - 1
}

func dropResult(err error) string {
	switch {
	case err == nil:
		return metrics.ResultOK
	case errors.Is(err, ErrCooldownActive):
		return metrics.ResultCooldown
	case errors.Is(err, ErrPlayerBanned):
		return metrics.ResultBanned
	case errors.Is(err, ErrNoCardsAvailable):
		return metrics.ResultExhausted
	default:
		return metrics.ResultError
	}
}
