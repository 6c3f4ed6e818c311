package dao

import (
	"context"
	"database/sql"
	"embed"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/cockroachdb/errors"
	"github.com/lk2023060901/cardforge/app/cardforge/internal/metrics"
	"github.com/lk2023060901/cardforge/app/cardforge/internal/model"
	"github.com/lk2023060901/cardforge/pkg/database/sqlite"
	"github.com/lk2023060901/cardforge/pkg/logger"
)

//go:embed migrations/sqlite/*.sql
var sqliteMigrations embed.FS

// DefaultSQLitePath 未配置 DSN 时的数据库文件
const DefaultSQLitePath = "./cardforge.db"

// SQLiteStore 基于 SQLite 的存储，时间以 UTC 毫秒保存
type SQLiteStore struct {
	db  *sql.DB
	obs observer
}

// NewSQLiteStore 打开数据库并执行迁移
func NewSQLiteStore(ctx context.Context, dsn string, echo bool, l logger.Logger, m *metrics.CardMetrics) (*SQLiteStore, error) {
	db, err := sqlite.Open(sqlite.Config{Path: sqlitePath(dsn), MaxOpenConns: 1})
	if err != nil {
		return nil, errors.Wrap(err, "open sqlite store")
	}
	if err := sqlite.ApplyMigrations(ctx, db, sqliteMigrations, "migrations/sqlite"); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "migrate sqlite store")
	}
	return &SQLiteStore{
		db:  db,
		obs: observer{backend: BackendSQLite, logger: l.Named("dao.sqlite"), metrics: m, echo: echo},
	}, nil
}

// sqlitePath 接受裸路径或 sqlite:/// 形式的 URL
func sqlitePath(dsn string) string {
	dsn = strings.TrimSpace(dsn)
	for _, prefix := range []string{"sqlite+aiosqlite:///", "sqlite:///", "sqlite://"} {
		if strings.HasPrefix(dsn, prefix) {
			dsn = strings.TrimPrefix(dsn, prefix)
			break
		}
	}
	if dsn == "" {
		return DefaultSQLitePath
	}
	return dsn
}

func (s *SQLiteStore) exec(ctx context.Context, b squirrel.Sqlizer) (sql.Result, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "build query")
	}
	s.obs.echoSQL(query, args)
	return s.db.ExecContext(ctx, query, args...)
}

func (s *SQLiteStore) query(ctx context.Context, b squirrel.Sqlizer) (*sql.Rows, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "build query")
	}
	s.obs.echoSQL(query, args)
	return s.db.QueryContext(ctx, query, args...)
}

// GetOrCreate 实现 PlayerStore
func (s *SQLiteStore) GetOrCreate(ctx context.Context, userID int64, username string) (p *model.PlayerRecord, err error) {
	defer s.obs.track("get_or_create", time.Now(), &err)

	insert := squirrel.Insert(playersTable).
		Columns("user_id", "username").
		Values(userID, username).
		Suffix("ON CONFLICT(user_id) DO NOTHING")
	if _, err = s.exec(ctx, insert); err != nil {
		return nil, errors.Wrapf(err, "create player %d", userID)
	}

	if username != "" {
		update := squirrel.Update(playersTable).
			Set("username", username).
			Where(squirrel.Eq{"user_id": userID}).
			Where(squirrel.NotEq{"username": username})
		if _, err = s.exec(ctx, update); err != nil {
			return nil, errors.Wrapf(err, "update username for %d", userID)
		}
	}

	p, err = s.loadPlayer(ctx, userID)
	return p, err
}

func (s *SQLiteStore) loadPlayer(ctx context.Context, userID int64) (*model.PlayerRecord, error) {
	rows, err := s.query(ctx, squirrel.Select(playerColumns...).From(playersTable).Where(squirrel.Eq{"user_id": userID}))
	if err != nil {
		return nil, errors.Wrapf(err, "load player %d", userID)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, errors.Wrapf(err, "load player %d", userID)
		}
		return nil, errors.Newf("player %d missing after create", userID)
	}

	var (
		p          = &model.PlayerRecord{}
		inv, wal   []byte
		lastDropMs sql.NullInt64
	)
	if err := rows.Scan(&p.UserID, &p.Username, &inv, &wal, &p.Experience, &lastDropMs, &p.IsBanned); err != nil {
		return nil, errors.Wrapf(err, "scan player %d", userID)
	}
	if p.Inventory, err = decodeInventory(inv); err != nil {
		return nil, err
	}
	wallet, err := decodeAmounts(wal)
	if err != nil {
		return nil, err
	}
	p.Wallet = model.Wallet(wallet)
	if lastDropMs.Valid {
		t := time.UnixMilli(lastDropMs.Int64).UTC()
		p.LastDropAt = &t
	}
	return p, rows.Err()
}

// Save 实现 PlayerStore
func (s *SQLiteStore) Save(ctx context.Context, player *model.PlayerRecord) (err error) {
	defer s.obs.track("save", time.Now(), &err)

	cols, err := encodePlayer(player)
	if err != nil {
		return err
	}
	var lastDrop any
	if player.LastDropAt != nil {
		lastDrop = player.LastDropAt.UTC().UnixMilli()
	}

	upsert := squirrel.Insert(playersTable).
		Columns(playerColumns...).
		Values(player.UserID, player.Username, string(cols.inventory), string(cols.wallet),
			player.Experience, lastDrop, player.IsBanned).
		Suffix(`ON CONFLICT(user_id) DO UPDATE SET
    username = excluded.username,
    inventory = excluded.inventory,
    wallet = excluded.wallet,
    experience = excluded.experience,
    last_drop_at = excluded.last_drop_at,
    is_banned = excluded.is_banned`)
	if _, err = s.exec(ctx, upsert); err != nil {
		return errors.Wrapf(err, "save player %d", player.UserID)
	}
	return nil
}

// MarkBanned 实现 PlayerStore
func (s *SQLiteStore) MarkBanned(ctx context.Context, userID int64, banned bool) (err error) {
	defer s.obs.track("mark_banned", time.Now(), &err)

	upsert := squirrel.Insert(playersTable).
		Columns("user_id", "is_banned").
		Values(userID, banned).
		Suffix("ON CONFLICT(user_id) DO UPDATE SET is_banned = excluded.is_banned")
	if _, err = s.exec(ctx, upsert); err != nil {
		return errors.Wrapf(err, "mark player %d banned=%t", userID, banned)
	}
	return nil
}

// AddRecord 实现 DropHistoryStore
func (s *SQLiteStore) AddRecord(ctx context.Context, record *model.DropHistoryRecord) (err error) {
	defer s.obs.track("add_record", time.Now(), &err)

	cards, err := encodeJSON(record.CardIDs)
	if err != nil {
		return err
	}
	rewards, err := encodeJSON(nonNilAmounts(record.Rewards))
	if err != nil {
		return err
	}
	insert := squirrel.Insert(historyTable).
		Columns("id", "user_id", "card_ids", "dropped_at", "rewards").
		Values(record.ID, record.UserID, string(cards), record.Timestamp.UTC().UnixMilli(), string(rewards))
	if _, err = s.exec(ctx, insert); err != nil {
		return errors.Wrapf(err, "add drop record for %d", record.UserID)
	}
	return nil
}

// RecentForUser 实现 DropHistoryStore
func (s *SQLiteStore) RecentForUser(ctx context.Context, userID int64, limit int) (out []*model.DropHistoryRecord, err error) {
	defer s.obs.track("recent_for_user", time.Now(), &err)

	q := squirrel.Select("id", "user_id", "card_ids", "dropped_at", "rewards").
		From(historyTable).
		Where(squirrel.Eq{"user_id": userID}).
		OrderBy("dropped_at DESC", "id DESC").
		Limit(uint64(normalizeLimit(limit)))
	rows, err := s.query(ctx, q)
	if err != nil {
		return nil, errors.Wrapf(err, "query drop history for %d", userID)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			r              = &model.DropHistoryRecord{}
			cards, rewards []byte
			droppedMs      int64
		)
		if err = rows.Scan(&r.ID, &r.UserID, &cards, &droppedMs, &rewards); err != nil {
			return nil, errors.Wrap(err, "scan drop record")
		}
		if r.CardIDs, err = decodeCardIDs(cards); err != nil {
			return nil, err
		}
		if r.Rewards, err = decodeAmounts(rewards); err != nil {
			return nil, err
		}
		r.Timestamp = time.UnixMilli(droppedMs).UTC()
		out = append(out, r)
	}
	err = rows.Err()
	return out, err
}

// AddEntry 实现 AuditStore
func (s *SQLiteStore) AddEntry(ctx context.Context, entry *model.AuditEntry) (err error) {
	defer s.obs.track("add_entry", time.Now(), &err)

	payload, err := encodeJSON(entry.Payload)
	if err != nil {
		return err
	}
	insert := squirrel.Insert(auditTable).
		Columns("id", "created_at", "action", "payload").
		Values(entry.ID, entry.CreatedAt.UTC().UnixMilli(), entry.Action, string(payload))
	if _, err = s.exec(ctx, insert); err != nil {
		return errors.Wrapf(err, "add audit entry %s", entry.Action)
	}
	return nil
}

// Recent 实现 AuditStore
func (s *SQLiteStore) Recent(ctx context.Context, limit int) (out []*model.AuditEntry, err error) {
	defer s.obs.track("recent_audit", time.Now(), &err)

	q := squirrel.Select("id", "created_at", "action", "payload").
		From(auditTable).
		OrderBy("created_at DESC", "rowid DESC").
		Limit(uint64(normalizeLimit(limit)))
	rows, err := s.query(ctx, q)
	if err != nil {
		return nil, errors.Wrap(err, "query audit entries")
	}
	defer rows.Close()

	for rows.Next() {
		var (
			e         = &model.AuditEntry{}
			createdMs int64
			payload   []byte
		)
		if err = rows.Scan(&e.ID, &createdMs, &e.Action, &payload); err != nil {
			return nil, errors.Wrap(err, "scan audit entry")
		}
		if e.Payload, err = decodePayload(payload); err != nil {
			return nil, err
		}
		e.CreatedAt = time.UnixMilli(createdMs).UTC()
		out = append(out, e)
	}
	err = rows.Err()
	return out, err
}

// Prune 实现 Store
func (s *SQLiteStore) Prune(ctx context.Context, historyBefore, auditBefore time.Time) (res PruneResult, err error) {
	defer s.obs.track("prune", time.Now(), &err)

	r, err := s.exec(ctx, squirrel.Delete(historyTable).Where(squirrel.Lt{"dropped_at": historyBefore.UTC().UnixMilli()}))
	if err != nil {
		return res, errors.Wrap(err, "prune drop history")
	}
	res.History, _ = r.RowsAffected()

	r, err = s.exec(ctx, squirrel.Delete(auditTable).Where(squirrel.Lt{"created_at": auditBefore.UTC().UnixMilli()}))
	if err != nil {
		return res, errors.Wrap(err, "prune audit logs")
	}
	res.Audit, _ = r.RowsAffected()
	return res, nil
}

// Backend 实现 Store
func (s *SQLiteStore) Backend() string { return BackendSQLite }

// Close 实现 Store
func (s *SQLiteStore) Close() error { return s.db.Close() }
