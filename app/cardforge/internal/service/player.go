package service

import (
	"context"
	"maps"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/lk2023060901/cardforge/app/cardforge/internal/catalog"
	"github.com/lk2023060901/cardforge/app/cardforge/internal/dao"
	"github.com/lk2023060901/cardforge/app/cardforge/internal/model"
	"github.com/lk2023060901/cardforge/pkg/logger"
)

// PlayerProfile 玩家数据快照，修改不影响存档
type PlayerProfile struct {
	UserID     int64            `json:"user_id"`
	Username   string           `json:"username,omitempty"`
	Inventory  map[string]int   `json:"inventory"`
	Wallet     map[string]int64 `json:"wallet"`
	Experience int64            `json:"experience"`
	IsBanned   bool             `json:"is_banned"`
}

func toProfile(r *model.PlayerRecord) *PlayerProfile {
	inv := maps.Clone(r.Inventory)
	if inv == nil {
		inv = map[string]int{}
	}
	wallet := maps.Clone(map[string]int64(r.Wallet))
	if wallet == nil {
		wallet = map[string]int64{}
	}
	return &PlayerProfile{
		UserID:     r.UserID,
		Username:   r.Username,
		Inventory:  inv,
		Wallet:     wallet,
		Experience: r.Experience,
		IsBanned:   r.IsBanned,
	}
}

// PlayerService 玩家数据读写
type PlayerService struct {
	store  dao.PlayerStore
	locker KeyLocker
	logger logger.Logger

	mu      sync.RWMutex
	catalog *catalog.Catalog
}

// NewPlayerService 创建玩家服务，cat 可为 nil
func NewPlayerService(store dao.PlayerStore, locker KeyLocker, cat *catalog.Catalog, l logger.Logger) *PlayerService {
	return &PlayerService{
		store:   store,
		locker:  lockerOrDefault(locker),
		catalog: cat,
		logger:  l.Named("service.player"),
	}
}

// AttachCatalog 设置卡牌目录，之后 AddCard 会检查持有上限
func (s *PlayerService) AttachCatalog(cat *catalog.Catalog) {
	s.mu.Lock()
	s.catalog = cat
	s.mu.Unlock()
}

// Fetch 读取玩家数据
func (s *PlayerService) Fetch(ctx context.Context, userID int64) (*PlayerProfile, error) {
	record, err := s.store.GetOrCreate(ctx, userID, "")
	if err != nil {
		return nil, errors.Wrapf(err, "load player %d", userID)
	}
	return toProfile(record), nil
}

// update 在用户锁内读取、修改并保存存档
func (s *PlayerService) update(ctx context.Context, userID int64, fn func(*model.PlayerRecord) error) (*PlayerProfile, error) {
	unlock, err := s.locker.Lock(ctx, userID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	record, err := s.store.GetOrCreate(ctx, userID, "")
	if err != nil {
		return nil, errors.Wrapf(err, "load player %d", userID)
	}
	if err := fn(record); err != nil {
		return nil, err
	}
	if err := s.store.Save(ctx, record); err != nil {
		return nil, errors.Wrapf(err, "save player %d", userID)
	}
	return toProfile(record), nil
}

// Spend 扣减货币
func (s *PlayerService) Spend(ctx context.Context, userID int64, currency string, amount int64) (*PlayerProfile, error) {
	if amount <= 0 {
		return nil, newKind(ErrInvalidAmount, "Amount must be positive")
	}
	return s.update(ctx, userID, func(r *model.PlayerRecord) error {
		if err := r.Wallet.Debit(currency, amount); err != nil {
			return asKind(ErrInsufficientCurrency, err)
		}
		return nil
	})
}

// Credit 增加货币
func (s *PlayerService) Credit(ctx context.Context, userID int64, currency string, amount int64) (*PlayerProfile, error) {
	if amount <= 0 {
		return nil, newKind(ErrInvalidAmount, "Amount must be positive")
	}
	return s.update(ctx, userID, func(r *model.PlayerRecord) error {
		return r.Wallet.Credit(currency, amount)
	})
}

// ClearCooldown 清除冷却
func (s *PlayerService) ClearCooldown(ctx context.Context, userID int64) (*PlayerProfile, error) {
	return s.update(ctx, userID, func(r *model.PlayerRecord) error {
		r.LastDropAt = nil
		return nil
	})
}

// AddCard 直接放入卡牌
func (s *PlayerService) AddCard(ctx context.Context, userID int64, cardID string, quantity int) (*PlayerProfile, error) {
	if quantity <= 0 {
		return nil, newKind(ErrInvalidAmount, "Quantity must be positive")
	}

	s.mu.RLock()
	cat := s.catalog
	s.mu.RUnlock()

	var card *model.Card
	if cat != nil {
		var err error
		if card, err = cat.GetCard(cardID); err != nil {
			return nil, err
		}
	}

	return s.update(ctx, userID, func(r *model.PlayerRecord) error {
		current := r.Inventory[cardID]
		if card != nil && card.AtCap(current) {
			return newKind(ErrNoCardsAvailable, "Cannot grant card %s: limit reached", cardID)
		}
		r.Inventory[cardID] = current + quantity
		return nil
	})
}

// GrantExperience 增减经验，结果不小于 0
func (s *PlayerService) GrantExperience(ctx context.Context, userID int64, delta int64) (*PlayerProfile, error) {
	if delta == 0 {
		return s.Fetch(ctx, userID)
	}
	return s.update(ctx, userID, func(r *model.PlayerRecord) error {
		r.AddExperience(delta)
		return nil
	})
}
