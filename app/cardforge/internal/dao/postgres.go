package dao

import (
	"context"
	_ "embed"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/cockroachdb/errors"
	"github.com/jackc/pgx/v5"
	"github.com/lk2023060901/cardforge/app/cardforge/internal/metrics"
	"github.com/lk2023060901/cardforge/app/cardforge/internal/model"
	"github.com/lk2023060901/cardforge/pkg/database/postgres"
	"github.com/lk2023060901/cardforge/pkg/logger"
)

//go:embed migrations/postgres/schema.sql
var postgresSchema string

var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

// PostgresStore 基于 PostgreSQL 的存储
type PostgresStore struct {
	db  *postgres.Client
	obs observer
}

// NewPostgresStore 使用已建立的连接池创建存储并确保表结构存在
func NewPostgresStore(ctx context.Context, db *postgres.Client, echo bool, l logger.Logger, m *metrics.CardMetrics) (*PostgresStore, error) {
	if _, err := db.Exec(ctx, postgresSchema); err != nil {
		return nil, errors.Wrap(err, "ensure postgres schema")
	}
	return &PostgresStore{
		db:  db,
		obs: observer{backend: BackendPostgres, logger: l.Named("dao.postgres"), metrics: m, echo: echo},
	}, nil
}

func (s *PostgresStore) exec(ctx context.Context, b squirrel.Sqlizer) (int64, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return 0, errors.Wrap(err, "build query")
	}
	s.obs.echoSQL(query, args)
	return s.db.Exec(ctx, query, args...)
}

func (s *PostgresStore) query(ctx context.Context, b squirrel.Sqlizer, fn func(pgx.Rows) error) error {
	query, args, err := b.ToSql()
	if err != nil {
		return errors.Wrap(err, "build query")
	}
	s.obs.echoSQL(query, args)
	return s.db.Query(ctx, query, args, fn)
}

// GetOrCreate 实现 PlayerStore
func (s *PostgresStore) GetOrCreate(ctx context.Context, userID int64, username string) (p *model.PlayerRecord, err error) {
	defer s.obs.track("get_or_create", time.Now(), &err)

	insert := psql.Insert(playersTable).
		Columns("user_id", "username").
		Values(userID, username).
		Suffix("ON CONFLICT (user_id) DO NOTHING")
	if _, err = s.exec(ctx, insert); err != nil {
		return nil, errors.Wrapf(err, "create player %d", userID)
	}

	if username != "" {
		update := psql.Update(playersTable).
			Set("username", username).
			Where(squirrel.Eq{"user_id": userID}).
			Where(squirrel.NotEq{"username": username})
		if _, err = s.exec(ctx, update); err != nil {
			return nil, errors.Wrapf(err, "update username for %d", userID)
		}
	}

	query, args, err := psql.Select(playerColumns...).From(playersTable).Where(squirrel.Eq{"user_id": userID}).ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "build query")
	}
	s.obs.echoSQL(query, args)

	var (
		inv, wal []byte
		lastDrop *time.Time
	)
	p = &model.PlayerRecord{}
	if err = s.db.QueryRow(ctx, query, args, &p.UserID, &p.Username, &inv, &wal, &p.Experience, &lastDrop, &p.IsBanned); err != nil {
		return nil, errors.Wrapf(err, "load player %d", userID)
	}
	if p.Inventory, err = decodeInventory(inv); err != nil {
		return nil, err
	}
	wallet, err := decodeAmounts(wal)
	if err != nil {
		return nil, err
	}
	p.Wallet = model.Wallet(wallet)
	if lastDrop != nil {
		t := lastDrop.UTC()
		p.LastDropAt = &t
	}
	return p, nil
}

// Save 实现 PlayerStore
func (s *PostgresStore) Save(ctx context.Context, player *model.PlayerRecord) (err error) {
	defer s.obs.track("save", time.Now(), &err)

	cols, err := encodePlayer(player)
	if err != nil {
		return err
	}
	var lastDrop *time.Time
	if player.LastDropAt != nil {
		t := player.LastDropAt.UTC()
		lastDrop = &t
	}

	upsert := psql.Insert(playersTable).
		Columns(playerColumns...).
		Values(player.UserID, player.Username, cols.inventory, cols.wallet,
			player.Experience, lastDrop, player.IsBanned).
		Suffix(`ON CONFLICT (user_id) DO UPDATE SET
    username = EXCLUDED.username,
    inventory = EXCLUDED.inventory,
    wallet = EXCLUDED.wallet,
    experience = EXCLUDED.experience,
    last_drop_at = EXCLUDED.last_drop_at,
    is_banned = EXCLUDED.is_banned`)
	if _, err = s.exec(ctx, upsert); err != nil {
		return errors.Wrapf(err, "save player %d", player.UserID)
	}
	return nil
}

// MarkBanned 实现 PlayerStore
func (s *PostgresStore) MarkBanned(ctx context.Context, userID int64, banned bool) (err error) {
	defer s.obs.track("mark_banned", time.Now(), &err)

	upsert := psql.Insert(playersTable).
		Columns("user_id", "is_banned").
		Values(userID, banned).
		Suffix("ON CONFLICT (user_id) DO UPDATE SET is_banned = EXCLUDED.is_banned")
	if _, err = s.exec(ctx, upsert); err != nil {
		return errors.Wrapf(err, "mark player %d banned=%t", userID, banned)
	}
	return nil
}

// AddRecord 实现 DropHistoryStore
func (s *PostgresStore) AddRecord(ctx context.Context, record *model.DropHistoryRecord) (err error) {
	defer s.obs.track("add_record", time.Now(), &err)

	cards, err := encodeJSON(record.CardIDs)
	if err != nil {
		return err
	}
	rewards, err := encodeJSON(nonNilAmounts(record.Rewards))
	if err != nil {
		return err
	}
	insert := psql.Insert(historyTable).
		Columns("id", "user_id", "card_ids", "dropped_at", "rewards").
		Values(record.ID, record.UserID, cards, record.Timestamp.UTC(), rewards)
	if _, err = s.exec(ctx, insert); err != nil {
		return errors.Wrapf(err, "add drop record for %d", record.UserID)
	}
	return nil
}

// RecentForUser 实现 DropHistoryStore
func (s *PostgresStore) RecentForUser(ctx context.Context, userID int64, limit int) (out []*model.DropHistoryRecord, err error) {
	defer s.obs.track("recent_for_user", time.Now(), &err)

	q := psql.Select("id", "user_id", "card_ids", "dropped_at", "rewards").
		From(historyTable).
		Where(squirrel.Eq{"user_id": userID}).
		OrderBy("dropped_at DESC", "id DESC").
		Limit(uint64(normalizeLimit(limit)))
	err = s.query(ctx, q, func(rows pgx.Rows) error {
		var (
			r              = &model.DropHistoryRecord{}
			cards, rewards []byte
			err            error
		)
		if err = rows.Scan(&r.ID, &r.UserID, &cards, &r.Timestamp, &rewards); err != nil {
			return errors.Wrap(err, "scan drop record")
		}
		if r.CardIDs, err = decodeCardIDs(cards); err != nil {
			return err
		}
		if r.Rewards, err = decodeAmounts(rewards); err != nil {
			return err
		}
		r.Timestamp = r.Timestamp.UTC()
		out = append(out, r)
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "query drop history for %d", userID)
	}
	return out, nil
}

// AddEntry 实现 AuditStore
func (s *PostgresStore) AddEntry(ctx context.Context, entry *model.AuditEntry) (err error) {
	defer s.obs.track("add_entry", time.Now(), &err)

	payload, err := encodeJSON(entry.Payload)
	if err != nil {
		return err
	}
	insert := psql.Insert(auditTable).
		Columns("id", "created_at", "action", "payload").
		Values(entry.ID, entry.CreatedAt.UTC(), entry.Action, payload)
	if _, err = s.exec(ctx, insert); err != nil {
		return errors.Wrapf(err, "add audit entry %s", entry.Action)
	}
	return nil
}

// Recent 实现 AuditStore
func (s *PostgresStore) Recent(ctx context.Context, limit int) (out []*model.AuditEntry, err error) {
	defer s.obs.track("recent_audit", time.Now(), &err)

	q := psql.Select("id", "created_at", "action", "payload").
		From(auditTable).
		OrderBy("created_at DESC").
		Limit(uint64(normalizeLimit(limit)))
	err = s.query(ctx, q, func(rows pgx.Rows) error {
		var (
			e       = &model.AuditEntry{}
			payload []byte
			err     error
		)
		if err = rows.Scan(&e.ID, &e.CreatedAt, &e.Action, &payload); err != nil {
			return errors.Wrap(err, "scan audit entry")
		}
		if e.Payload, err = decodePayload(payload); err != nil {
			return err
		}
		e.CreatedAt = e.CreatedAt.UTC()
		out = append(out, e)
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "query audit entries")
	}
	return out, nil
}

// Prune 实现 Store
func (s *PostgresStore) Prune(ctx context.Context, historyBefore, auditBefore time.Time) (res PruneResult, err error) {
	defer s.obs.track("prune", time.Now(), &err)

	if res.History, err = s.exec(ctx, psql.Delete(historyTable).Where(squirrel.Lt{"dropped_at": historyBefore.UTC()})); err != nil {
		return res, errors.Wrap(err, "prune drop history")
	}
	if res.Audit, err = s.exec(ctx, psql.Delete(auditTable).Where(squirrel.Lt{"created_at": auditBefore.UTC()})); err != nil {
		return res, errors.Wrap(err, "prune audit logs")
	}
	return res, nil
}

// Backend 实现 Store
func (s *PostgresStore) Backend() string { return BackendPostgres }

// Close 实现 Store
func (s *PostgresStore) Close() error { return s.db.Close() }
