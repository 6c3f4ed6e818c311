package service

import (
	"github.com/lk2023060901/cardforge/app/cardforge/internal/model"
)

// DuplicateStrategy 抽到重复卡时给出替代奖励
type DuplicateStrategy interface {
	Substitute(card *model.Card, player *model.PlayerRecord, cfg DropConfig) model.Reward
}

// PenaltyStrategy 按 DuplicatePenalty 比例折算原奖励
type PenaltyStrategy struct{}

// Substitute 实现 DuplicateStrategy
func (PenaltyStrategy) Substitute(card *model.Card, _ *model.PlayerRecord, cfg DropConfig) model.Reward {
	penalty := cfg.DuplicatePenalty
	if penalty <= 0 {
		return model.Reward{}
	}
	currencies := make(map[string]int64, len(card.Reward.Currencies))
	for code, amount := range card.Reward.Currencies {
		currencies[code] = int64(float64(amount) * penalty)
	}
	return model.Reward{
		Currencies: currencies,
		Experience: int64(float64(card.Reward.Experience) * penalty),
	}
}

// DustStrategy 每张重复卡固定发放一种货币
type DustStrategy struct {
	Currency string
	Amount   int64
}

// Substitute 实现 DuplicateStrategy
func (s DustStrategy) Substitute(*model.Card, *model.PlayerRecord, DropConfig) model.Reward {
	if s.Amount <= 0 {
		return model.Reward{}
	}
	return model.Reward{Currencies: map[string]int64{s.Currency: s.Amount}}
}

// NewDuplicateStrategy 根据配置选择策略，未知名称按 penalty 处理
func NewDuplicateStrategy(cfg DropConfig) DuplicateStrategy {
	if cfg.DuplicateStrategy == StrategyDust {
		return DustStrategy{Currency: cfg.DustCurrency, Amount: cfg.DustAmount}
	}
	return PenaltyStrategy{}
}
