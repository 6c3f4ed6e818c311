package dao

import (
	"context"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/lk2023060901/cardforge/app/cardforge/internal/model"
)

// MemoryStore 进程内存储，进程退出即丢失
type MemoryStore struct {
	mu      sync.RWMutex
	players map[int64]*model.PlayerRecord
	history []*model.DropHistoryRecord
	audit   []*model.AuditEntry
}

// NewMemoryStore 创建内存存储
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{players: make(map[int64]*model.PlayerRecord)}
}

// GetOrCreate 实现 PlayerStore
func (s *MemoryStore) GetOrCreate(_ context.Context, userID int64, username string) (*model.PlayerRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.players[userID]
	if !ok {
		p = model.NewPlayerRecord(userID, username)
		s.players[userID] = p
	} else if username != "" && p.Username != username {
		p.Username = username
	}
	return p.Clone(), nil
}

// Save 实现 PlayerStore
func (s *MemoryStore) Save(_ context.Context, player *model.PlayerRecord) error {
	cp := player.Clone()
	if cp.LastDropAt != nil {
		t := cp.LastDropAt.UTC()
		cp.LastDropAt = &t
	}

	s.mu.Lock()
	s.players[player.UserID] = cp
	s.mu.Unlock()
	return nil
}

// MarkBanned 实现 PlayerStore
func (s *MemoryStore) MarkBanned(_ context.Context, userID int64, banned bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.players[userID]
	if !ok {
		p = model.NewPlayerRecord(userID, "")
		s.players[userID] = p
	}
	p.IsBanned = banned
	return nil
}

// AddRecord 实现 DropHistoryStore，超过上限丢弃最旧的记录
func (s *MemoryStore) AddRecord(_ context.Context, record *model.DropHistoryRecord) error {
	cp := *record
	cp.CardIDs = slices.Clone(record.CardIDs)
	cp.Rewards = maps.Clone(record.Rewards)

	s.mu.Lock()
	s.history = append(s.history, &cp)
	if n := len(s.history); n > maxHistoryRecords {
		s.history = slices.Clone(s.history[n-maxHistoryRecords:])
	}
	s.mu.Unlock()
	return nil
}

// RecentForUser 实现 DropHistoryStore
func (s *MemoryStore) RecentForUser(_ context.Context, userID int64, limit int) ([]*model.DropHistoryRecord, error) {
	limit = normalizeLimit(limit)

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*model.DropHistoryRecord, 0, limit)
	for i := len(s.history) - 1; i >= 0 && len(out) < limit; i-- {
		if r := s.history[i]; r.UserID == userID {
			cp := *r
			cp.CardIDs = slices.Clone(r.CardIDs)
			cp.Rewards = maps.Clone(r.Rewards)
			out = append(out, &cp)
		}
	}
	return out, nil
}

// AddEntry 实现 AuditStore
func (s *MemoryStore) AddEntry(_ context.Context, entry *model.AuditEntry) error {
	cp := *entry
	cp.Payload = maps.Clone(entry.Payload)

	s.mu.Lock()
	s.audit = append(s.audit, &cp)
	if n := len(s.audit); n > maxAuditEntries {
		s.audit = slices.Clone(s.audit[n-maxAuditEntries:])
	}
	s.mu.Unlock()
	return nil
}

// Recent 实现 AuditStore
func (s *MemoryStore) Recent(_ context.Context, limit int) ([]*model.AuditEntry, error) {
	limit = normalizeLimit(limit)

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*model.AuditEntry, 0, min(limit, len(s.audit)))
	for i := len(s.audit) - 1; i >= 0 && len(out) < limit; i-- {
		cp := *s.audit[i]
		cp.Payload = maps.Clone(s.audit[i].Payload)
		out = append(out, &cp)
	}
	return out, nil
}

// Prune 实现 Store
func (s *MemoryStore) Prune(_ context.Context, historyBefore, auditBefore time.Time) (PruneResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var res PruneResult
	before := len(s.history)
	s.history = slices.DeleteFunc(s.history, func(r *model.DropHistoryRecord) bool {
		return r.Timestamp.Before(historyBefore)
	})
	res.History = int64(before - len(s.history))

	before = len(s.audit)
	s.audit = slices.DeleteFunc(s.audit, func(e *model.AuditEntry) bool {
		return e.CreatedAt.Before(auditBefore)
	})
	res.Audit = int64(before - len(s.audit))
	return res, nil
}

// Backend 实现 Store
func (s *MemoryStore) Backend() string { return BackendMemory }

// Close 实现 Store
func (s *MemoryStore) Close() error { return nil }
