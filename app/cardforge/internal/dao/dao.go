// Package dao 玩家存档、掉落历史与审计日志的存储实现
package dao

import (
	"context"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/lk2023060901/cardforge/app/cardforge/internal/model"
)

// 存储后端名称
const (
	BackendMemory   = "memory"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

// 内存后端的保留上限
const (
	maxHistoryRecords = 5000
	maxAuditEntries   = 1000
)

// DefaultHistoryLimit RecentForUser 未指定条数时的默认值
const DefaultHistoryLimit = 20

// ErrUnknownBackend 未知存储后端
var ErrUnknownBackend = errors.New("unknown storage backend")

// PlayerStore 玩家存档
type PlayerStore interface {
	// GetOrCreate 读取存档，不存在时创建；username 非空且不同则更新
	GetOrCreate(ctx context.Context, userID int64, username string) (*model.PlayerRecord, error)
	Save(ctx context.Context, player *model.PlayerRecord) error
	// MarkBanned 设置封禁状态，存档不存在时创建
	MarkBanned(ctx context.Context, userID int64, banned bool) error
}

// DropHistoryStore 掉落历史
type DropHistoryStore interface {
	AddRecord(ctx context.Context, record *model.DropHistoryRecord) error
	// RecentForUser 按时间倒序返回最近的记录
	RecentForUser(ctx context.Context, userID int64, limit int) ([]*model.DropHistoryRecord, error)
}

// AuditStore 审计日志
type AuditStore interface {
	AddEntry(ctx context.Context, entry *model.AuditEntry) error
	Recent(ctx context.Context, limit int) ([]*model.AuditEntry, error)
}

// PruneResult 清理结果
type PruneResult struct {
	History int64
	Audit   int64
}

// Store 聚合全部存储接口
type Store interface {
	PlayerStore
	DropHistoryStore
	AuditStore

	// Prune 删除早于 cutoff 的掉落历史与审计日志
	Prune(ctx context.Context, historyBefore, auditBefore time.Time) (PruneResult, error)
	Backend() string
	Close() error
}

// NormalizeBackend 统一后端名称，sql 与 sqlalchemy 视为 sqlite
func NormalizeBackend(name string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", BackendMemory:
		return BackendMemory, nil
	case BackendSQLite, "sql", "sqlalchemy":
		return BackendSQLite, nil
	case BackendPostgres, "postgresql":
		return BackendPostgres, nil
	default:
		return "", errors.Wrapf(ErrUnknownBackend, "storage backend %q", name)
	}
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultHistoryLimit
	}
	return limit
}
