// Package diagnostics 卡包经济模拟与配置自检
package diagnostics

import (
	"github.com/cockroachdb/errors"
	"github.com/lk2023060901/cardforge/app/cardforge/internal/catalog"
	"github.com/lk2023060901/cardforge/app/cardforge/internal/model"
	"github.com/lk2023060901/cardforge/app/cardforge/internal/service"
)

// DefaultPulls 未指定抽取次数时的默认值
const DefaultPulls = 1000

// ErrEmptyPack 卡包没有卡牌，无法模拟
var ErrEmptyPack = errors.New("pack has no cards")

// SimulationResult 模拟统计
type SimulationResult struct {
	PackID     string           `json:"pack_id"`
	Pulls      int              `json:"pulls"`
	Rewards    map[string]int64 `json:"rewards"`
	Experience int64            `json:"experience"`
	Duplicates int              `json:"duplicates"`
	Uniques    int              `json:"uniques"`
	// ByRarity 每种稀有度抽中的次数
	ByRarity map[model.Rarity]int `json:"by_rarity"`
}

func (r *SimulationResult) merge(card *model.Card, duplicate bool) {
	if duplicate {
		r.Duplicates++
	} else {
		r.Uniques++
	}
	for code, amount := range card.Reward.Currencies {
		r.Rewards[code] += amount
	}
	r.Experience += card.Reward.Experience
	r.ByRarity[card.Rarity]++
}

// AveragePerPull 平均每次抽取获得的货币
func (r *SimulationResult) AveragePerPull() map[string]float64 {
	out := make(map[string]float64, len(r.Rewards))
	if r.Pulls == 0 {
		return out
	}
	for code, total := range r.Rewards {
		out[code] = float64(total) / float64(r.Pulls)
	}
	return out
}

// EconomySimulator 均匀随机抽取的蒙特卡洛模拟，仅用于诊断，不考虑权重与冷却
type EconomySimulator struct {
	catalog *catalog.Catalog
	cfg     service.DropConfig
	rng     service.RandomSource
}

// NewEconomySimulator 创建模拟器，rng 为 nil 时使用 crypto 随机源
func NewEconomySimulator(cat *catalog.Catalog, cfg service.DropConfig, rng service.RandomSource) *EconomySimulator {
	if rng == nil {
		rng = service.NewCryptoSource()
	}
	return &EconomySimulator{catalog: cat, cfg: cfg, rng: rng}
}

// Simulate 对卡包进行 pulls 次抽取，pulls <= 0 时使用默认次数
func (s *EconomySimulator) Simulate(packID string, pulls int) (*SimulationResult, error) {
	if pulls <= 0 {
		pulls = DefaultPulls
	}
	pack, err := s.catalog.GetPack(packID)
	if err != nil {
		return nil, err
	}
	cards := make([]*model.Card, 0, len(pack.Cards))
	for _, id := range pack.Cards {
		card, err := s.catalog.GetCard(id)
		if err != nil {
			return nil, err
		}
		cards = append(cards, card)
	}
	if len(cards) == 0 {
		return nil, errors.Wrapf(ErrEmptyPack, "pack %s", packID)
	}

	allowDuplicates := s.cfg.AllowDuplicates && pack.AllowDuplicates
	result := &SimulationResult{
		PackID:   packID,
		Pulls:    pulls,
		Rewards:  make(map[string]int64),
		ByRarity: make(map[model.Rarity]int),
	}
	owned := make(map[string]int)
	for range pulls {
		idx := min(int(s.rng.Float64()*float64(len(cards))), len(cards)-1)
		card := cards[idx]
		duplicate := owned[card.ID] > 0 && !allowDuplicates
		if !duplicate {
			owned[card.ID]++
		}
		result.merge(card, duplicate)
	}
	return result, nil
}
