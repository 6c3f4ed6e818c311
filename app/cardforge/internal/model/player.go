package model

import (
	"maps"
	"slices"
	"time"
)

// PlayerRecord 玩家存档，首次访问时创建，不会删除
type PlayerRecord struct {
	UserID     int64          `json:"user_id"`
	Username   string         `json:"username,omitempty"`
	Inventory  map[string]int `json:"inventory"`
	Wallet     Wallet         `json:"wallet"`
	Experience int64          `json:"experience"`
	LastDropAt *time.Time     `json:"last_drop_at,omitempty"`
	IsBanned   bool           `json:"is_banned"`
}

// NewPlayerRecord 创建空存档
func NewPlayerRecord(userID int64, username string) *PlayerRecord {
	return &PlayerRecord{
		UserID:    userID,
		Username:  username,
		Inventory: make(map[string]int),
		Wallet:    make(Wallet),
	}
}

// Clone 深拷贝
func (p *PlayerRecord) Clone() *PlayerRecord {
	cp := *p
	cp.Inventory = maps.Clone(p.Inventory)
	if cp.Inventory == nil {
		cp.Inventory = make(map[string]int)
	}
	cp.Wallet = maps.Clone(p.Wallet)
	if cp.Wallet == nil {
		cp.Wallet = make(Wallet)
	}
	if p.LastDropAt != nil {
		t := *p.LastDropAt
		cp.LastDropAt = &t
	}
	return &cp
}

// AddExperience 增减经验，结果不小于 0
func (p *PlayerRecord) AddExperience(delta int64) {
	p.Experience = max(0, p.Experience+delta)
}

// DropHistoryRecord 掉落历史，只写一次
type DropHistoryRecord struct {
	ID        int64            `json:"id"`
	UserID    int64            `json:"user_id"`
	CardIDs   []string         `json:"card_ids"`
	Timestamp time.Time        `json:"timestamp"`
	Rewards   map[string]int64 `json:"rewards"`
}

// AuditEntry 管理操作审计记录
type AuditEntry struct {
	ID        string         `json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	Action    string         `json:"action"`
	Payload   map[string]any `json:"payload"`
}

func sortedKeys[V any](m map[string]V) []string {
	return slices.Sorted(maps.Keys(m))
}
