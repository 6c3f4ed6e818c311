package model

import (
	"maps"
	"slices"
)

// Rarity 卡牌稀有度，按声明顺序由低到高
type Rarity string

const (
	RarityCommon    Rarity = "common"
	RarityUncommon  Rarity = "uncommon"
	RarityRare      Rarity = "rare"
	RarityEpic      Rarity = "epic"
	RarityLegendary Rarity = "legendary"
)

var rarityOrder = []Rarity{RarityCommon, RarityUncommon, RarityRare, RarityEpic, RarityLegendary}

// Rarities 返回全部稀有度（由低到高）
func Rarities() []Rarity {
	return slices.Clone(rarityOrder)
}

// ParseRarity 解析稀有度字符串，只接受五个固定值
func ParseRarity(s string) (Rarity, bool) {
	r := Rarity(s)
	return r, slices.Contains(rarityOrder, r)
}

// Rank 稀有度序号，未知稀有度返回 -1
func (r Rarity) Rank() int {
	return slices.Index(rarityOrder, r)
}

// Reward 收集卡牌时发放的奖励
type Reward struct {
	Currencies map[string]int64 `json:"currencies"`
	Experience int64            `json:"experience"`
}

// Merge 返回两份奖励之和，不修改接收者
func (r Reward) Merge(other Reward) Reward {
	merged := make(map[string]int64, len(r.Currencies)+len(other.Currencies))
	maps.Copy(merged, r.Currencies)
	for code, amount := range other.Currencies {
		merged[code] += amount
	}
	return Reward{Currencies: merged, Experience: r.Experience + other.Experience}
}

// IsZero 是否为空奖励
func (r Reward) IsZero() bool {
	return len(r.Currencies) == 0 && r.Experience == 0
}

// CurrencyCodes 奖励涉及的货币代码（排序后）
func (r Reward) CurrencyCodes() []string {
	return slices.Sorted(maps.Keys(r.Currencies))
}

// Card 卡牌定义，注册后不可修改
type Card struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	Rarity       Rarity   `json:"rarity"`
	MaxCopies    *int     `json:"max_copies,omitempty"` // nil 表示不限
	Reward       Reward   `json:"reward"`
	Tags         []string `json:"tags,omitempty"`
	ImageURL     string   `json:"image_url,omitempty"`
	ImageCaption string   `json:"image_caption,omitempty"`
	ImagePath    string   `json:"image_path,omitempty"`
	DropWeight   *float64 `json:"drop_weight,omitempty"` // 仅保存正值
}

// AtCap 持有数量是否已达上限
func (c *Card) AtCap(owned int) bool {
	return c.MaxCopies != nil && owned >= *c.MaxCopies
}

// CardPack 卡包定义，注册后不可修改
type CardPack struct {
	ID              string             `json:"id"`
	Name            string             `json:"name"`
	Cards           []string           `json:"cards"`
	AllowDuplicates bool               `json:"allow_duplicates"`
	MaxPerRoll      int                `json:"max_per_roll"`
	CardWeights     map[string]float64 `json:"card_weights,omitempty"`
	RarityWeights   map[string]float64 `json:"rarity_weights,omitempty"`
}

// Currency 货币定义
type Currency struct {
	Code        string `json:"code"`
	Name        string `json:"name"`
	Precision   int    `json:"precision"`
	Description string `json:"description"`
}
