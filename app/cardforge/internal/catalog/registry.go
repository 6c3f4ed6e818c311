package catalog

import (
	"sync"

	"github.com/lk2023060901/cardforge/app/cardforge/internal/model"
)

// Catalog 卡牌与卡包注册表，只增不删，按注册顺序遍历
type Catalog struct {
	mu        sync.RWMutex
	cards     map[string]*model.Card
	packs     map[string]*model.CardPack
	cardOrder []string
	packOrder []string
}

// New 创建空目录
func New() *Catalog {
	return &Catalog{
		cards: make(map[string]*model.Card),
		packs: make(map[string]*model.CardPack),
	}
}

// RegisterCard 注册卡牌，重复 ID 返回 ErrDuplicateKey 且不修改目录
func (c *Catalog) RegisterCard(card *model.Card) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.cards[card.ID]; ok {
		return duplicate("Card %s already registered", card.ID)
	}
	c.cards[card.ID] = card
	c.cardOrder = append(c.cardOrder, card.ID)
	return nil
}

// RegisterPack 注册卡包的副本，MaxPerRoll 非正时按 1 处理，Name 为空时取 ID
func (c *Catalog) RegisterPack(pack *model.CardPack) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.packs[pack.ID]; ok {
		return duplicate("Pack %s already registered", pack.ID)
	}
	stored := *pack
	if stored.MaxPerRoll <= 0 {
		stored.MaxPerRoll = 1
	}
	if stored.Name == "" {
		stored.Name = stored.ID
	}
	c.packs[pack.ID] = &stored
	c.packOrder = append(c.packOrder, pack.ID)
	return nil
}

// GetCard 查询卡牌
func (c *Catalog) GetCard(id string) (*model.Card, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	card, ok := c.cards[id]
	if !ok {
		return nil, notFound("Card %s not found", id)
	}
	return card, nil
}

// GetPack 查询卡包
func (c *Catalog) GetPack(id string) (*model.CardPack, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	pack, ok := c.packs[id]
	if !ok {
		return nil, notFound("Pack %s not found", id)
	}
	return pack, nil
}

// Cards 按注册顺序返回全部卡牌
func (c *Catalog) Cards() []*model.Card {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*model.Card, 0, len(c.cardOrder))
	for _, id := range c.cardOrder {
		out = append(out, c.cards[id])
	}
	return out
}

// Packs 按注册顺序返回全部卡包
func (c *Catalog) Packs() []*model.CardPack {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*model.CardPack, 0, len(c.packOrder))
	for _, id := range c.packOrder {
		out = append(out, c.packs[id])
	}
	return out
}

// FirstPack 最早注册的卡包，目录为空时返回 false
func (c *Catalog) FirstPack() (*model.CardPack, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if len(c.packOrder) == 0 {
		return nil, false
	}
	return c.packs[c.packOrder[0]], true
}
