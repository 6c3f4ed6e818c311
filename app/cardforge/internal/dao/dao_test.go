package dao

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/lk2023060901/cardforge/app/cardforge/internal/model"
	"github.com/lk2023060901/cardforge/pkg/database/postgres"
	"github.com/lk2023060901/cardforge/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type storeFactory func(t *testing.T) Store

func storeFactories(t *testing.T) map[string]storeFactory {
	t.Helper()
	factories := map[string]storeFactory{
		BackendMemory: func(t *testing.T) Store { return NewMemoryStore() },
		BackendSQLite: func(t *testing.T) Store {
			s, err := NewSQLiteStore(context.Background(), filepath.Join(t.TempDir(), "cardforge.db"), false, logger.NewNoop(), nil)
			require.NoError(t, err)
			t.Cleanup(func() { _ = s.Close() })
			return s
		},
	}
	if dsn := os.Getenv("CARDFORGE_TEST_POSTGRES_DSN"); dsn != "" {
		factories[BackendPostgres] = func(t *testing.T) Store {
			client, err := postgres.New(&postgres.Config{DSN: dsn})
			require.NoError(t, err)
			s, err := NewPostgresStore(context.Background(), client, false, logger.NewNoop(), nil)
			require.NoError(t, err)
			ctx := context.Background()
			for _, table := range []string{playersTable, historyTable, auditTable} {
				_, err := client.Exec(ctx, "TRUNCATE "+table)
				require.NoError(t, err)
			}
			t.Cleanup(func() { _ = s.Close() })
			return s
		}
	}
	return factories
}

func TestPlayerStore(t *testing.T) {
	for name, factory := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := factory(t)
			assert.Equal(t, name, s.Backend())

			p, err := s.GetOrCreate(ctx, 42, "alice")
			require.NoError(t, err)
			assert.Equal(t, int64(42), p.UserID)
			assert.Equal(t, "alice", p.Username)
			assert.Empty(t, p.Inventory)
			assert.Empty(t, p.Wallet)
			assert.Nil(t, p.LastDropAt)

			// 空用户名不覆盖已有值
			p, err = s.GetOrCreate(ctx, 42, "")
			require.NoError(t, err)
			assert.Equal(t, "alice", p.Username)

			last := time.Date(2024, 5, 1, 12, 30, 0, 0, time.FixedZone("UTC+8", 8*3600))
			p.Inventory["alpha"] = 2
			p.Wallet["coins"] = 150
			p.Experience = 30
			p.LastDropAt = &last
			require.NoError(t, s.Save(ctx, p))

			// 修改返回的副本不影响存储
			p.Wallet["coins"] = 1

			got, err := s.GetOrCreate(ctx, 42, "alice2")
			require.NoError(t, err)
			assert.Equal(t, "alice2", got.Username)
			assert.Equal(t, 2, got.Inventory["alpha"])
			assert.Equal(t, int64(150), got.Wallet["coins"])
			assert.Equal(t, int64(30), got.Experience)
			require.NotNil(t, got.LastDropAt)
			assert.True(t, got.LastDropAt.Equal(last))
			assert.Equal(t, time.UTC, got.LastDropAt.Location())
		})
	}
}

func TestMarkBannedCreatesRecord(t *testing.T) {
	for name, factory := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := factory(t)

			require.NoError(t, s.MarkBanned(ctx, 7, true))
			p, err := s.GetOrCreate(ctx, 7, "")
			require.NoError(t, err)
			assert.True(t, p.IsBanned)

			require.NoError(t, s.MarkBanned(ctx, 7, false))
			p, err = s.GetOrCreate(ctx, 7, "")
			require.NoError(t, err)
			assert.False(t, p.IsBanned)
		})
	}
}

func TestDropHistory(t *testing.T) {
	for name, factory := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := factory(t)
			base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

			for i := range 25 {
				require.NoError(t, s.AddRecord(ctx, &model.DropHistoryRecord{
					ID:        int64(i + 1),
					UserID:    1,
					CardIDs:   []string{"alpha"},
					Timestamp: base.Add(time.Duration(i) * time.Minute),
					Rewards:   map[string]int64{"coins": int64(i)},
				}))
			}
			require.NoError(t, s.AddRecord(ctx, &model.DropHistoryRecord{
				ID: 100, UserID: 2, CardIDs: []string{"beta"}, Timestamp: base,
			}))

			recent, err := s.RecentForUser(ctx, 1, 0)
			require.NoError(t, err)
			require.Len(t, recent, DefaultHistoryLimit)
			assert.Equal(t, int64(25), recent[0].ID)
			assert.Equal(t, int64(24), recent[0].Rewards["coins"])
			assert.Equal(t, []string{"alpha"}, recent[0].CardIDs)
			assert.True(t, recent[0].Timestamp.Equal(base.Add(24*time.Minute)))

			recent, err = s.RecentForUser(ctx, 2, 5)
			require.NoError(t, err)
			require.Len(t, recent, 1)
			assert.Equal(t, []string{"beta"}, recent[0].CardIDs)
		})
	}
}

func TestAuditAndPrune(t *testing.T) {
	for name, factory := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := factory(t)
			old := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
			fresh := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

			require.NoError(t, s.AddEntry(ctx, &model.AuditEntry{
				ID: "a1", CreatedAt: old, Action: "ban",
				Payload: map[string]any{"user_id": 1, "reason": "spam"},
			}))
			require.NoError(t, s.AddEntry(ctx, &model.AuditEntry{
				ID: "a2", CreatedAt: fresh, Action: "unban",
				Payload: map[string]any{"user_id": 1},
			}))
			require.NoError(t, s.AddRecord(ctx, &model.DropHistoryRecord{ID: 1, UserID: 1, Timestamp: old}))
			require.NoError(t, s.AddRecord(ctx, &model.DropHistoryRecord{ID: 2, UserID: 1, Timestamp: fresh}))

			entries, err := s.Recent(ctx, 10)
			require.NoError(t, err)
			require.Len(t, entries, 2)
			assert.Equal(t, "unban", entries[0].Action)
			assert.Equal(t, "spam", entries[1].Payload["reason"])

			cutoff := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
			res, err := s.Prune(ctx, cutoff, cutoff)
			require.NoError(t, err)
			assert.Equal(t, PruneResult{History: 1, Audit: 1}, res)

			entries, err = s.Recent(ctx, 10)
			require.NoError(t, err)
			require.Len(t, entries, 1)
			assert.Equal(t, "a2", entries[0].ID)

			history, err := s.RecentForUser(ctx, 1, 10)
			require.NoError(t, err)
			require.Len(t, history, 1)
			assert.Equal(t, int64(2), history[0].ID)
		})
	}
}

func TestMemoryStoreCaps(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	for i := range maxHistoryRecords + 10 {
		require.NoError(t, s.AddRecord(ctx, &model.DropHistoryRecord{ID: int64(i), UserID: 1}))
	}
	for i := range maxAuditEntries + 5 {
		require.NoError(t, s.AddEntry(ctx, &model.AuditEntry{ID: string(rune('a' + i%26)), Action: "x"}))
	}
	assert.Len(t, s.history, maxHistoryRecords)
	assert.Equal(t, int64(10), s.history[0].ID)
	assert.Len(t, s.audit, maxAuditEntries)
}

func TestNormalizeBackend(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"", BackendMemory, false},
		{"memory", BackendMemory, false},
		{"SQLAlchemy", BackendSQLite, false},
		{"sql", BackendSQLite, false},
		{"postgresql", BackendPostgres, false},
		{"mongo", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := NormalizeBackend(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnknownBackend)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSQLitePath(t *testing.T) {
	assert.Equal(t, DefaultSQLitePath, sqlitePath(""))
	assert.Equal(t, "./data.db", sqlitePath("sqlite:///./data.db"))
	assert.Equal(t, "/tmp/x.db", sqlitePath("/tmp/x.db"))
}

func TestRetentionJob(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, s.AddRecord(ctx, &model.DropHistoryRecord{ID: 1, Timestamp: now.Add(-48 * time.Hour)}))
	require.NoError(t, s.AddRecord(ctx, &model.DropHistoryRecord{ID: 2, Timestamp: now.Add(-time.Hour)}))
	require.NoError(t, s.AddEntry(ctx, &model.AuditEntry{ID: "x", CreatedAt: now.Add(-48 * time.Hour)}))

	job, err := NewRetentionJob(s, RetentionConfig{HistoryTTL: 24 * time.Hour, AuditTTL: 72 * time.Hour}, logger.NewNoop())
	require.NoError(t, err)
	job.now = func() time.Time { return now }

	res, err := job.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, PruneResult{History: 1, Audit: 0}, res)

	require.NoError(t, job.Start())
	require.NoError(t, job.Stop())

	_, err = NewRetentionJob(s, RetentionConfig{Schedule: "not a schedule"}, logger.NewNoop())
	assert.Error(t, err)
}

func TestOpenMemory(t *testing.T) {
	s, err := Open(context.Background(), Config{Backend: "memory"}, nil, logger.NewNoop(), nil)
	require.NoError(t, err)
	assert.Equal(t, BackendMemory, s.Backend())
	require.NoError(t, s.Close())

	_, err = Open(context.Background(), Config{Backend: "cassandra"}, nil, logger.NewNoop(), nil)
	assert.ErrorIs(t, err, ErrUnknownBackend)
}
