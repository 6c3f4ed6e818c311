package service

import (
	"context"
	"testing"
	"time"

	"github.com/lk2023060901/cardforge/app/cardforge/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func auditConfig() AdminConfig {
	cfg := DefaultAdminConfig()
	cfg.AdminIDs = []int64{900}
	return cfg
}

func TestAdminBanAndUnban(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	svc := f.adminService(auditConfig())

	require.NoError(t, svc.BanUser(ctx, 5, "spam"))
	rec, err := f.store.GetOrCreate(ctx, 5, "")
	require.NoError(t, err)
	assert.True(t, rec.IsBanned)

	require.NoError(t, svc.UnbanUser(ctx, 5))
	rec, err = f.store.GetOrCreate(ctx, 5, "")
	require.NoError(t, err)
	assert.False(t, rec.IsBanned)

	assert.Equal(t, []string{EventUserBanned, EventUserUnbanned}, f.events.names())
	assert.Equal(t, "spam", f.events.events[0].payload["reason"])

	entries, err := svc.RecentAudit(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, ActionUnban, entries[0].Action)
	assert.Equal(t, ActionBan, entries[1].Action)
	assert.Equal(t, "spam", entries[1].Payload["reason"])
	assert.Len(t, entries[1].ID, 12)

	ts, ok := entries[1].Payload["timestamp"].(string)
	require.True(t, ok)
	_, err = time.Parse(time.RFC3339, ts)
	assert.NoError(t, err)
}

func TestAdminGrantCurrency(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	svc := f.adminService(auditConfig())

	require.ErrorIs(t, svc.GrantCurrency(ctx, 1, "coins", 0), ErrInvalidAmount)
	require.ErrorIs(t, svc.GrantCurrency(ctx, 1, "tokens", 5), ErrUnknownCurrency)

	require.NoError(t, svc.GrantCurrency(ctx, 1, "coins", 25))
	require.NoError(t, svc.GrantCurrency(ctx, 1, "coins", 5))
	rec, err := f.store.GetOrCreate(ctx, 1, "")
	require.NoError(t, err)
	assert.Equal(t, int64(30), rec.Wallet["coins"])

	entries, err := svc.RecentAudit(ctx, 1)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, ActionGrantCurrency, entries[0].Action)
	assert.Equal(t, int64(5), entries[0].Payload["amount"])
}

func TestAdminGrantCard(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.card(t, &model.Card{ID: "solo", Name: "Solo", MaxCopies: intPtr(1)})
	svc := f.adminService(auditConfig())

	require.ErrorIs(t, svc.GrantCard(ctx, 1, "solo", 0), ErrInvalidAmount)
	require.NoError(t, svc.GrantCard(ctx, 1, "solo", 1))

	err := svc.GrantCard(ctx, 1, "solo", 1)
	require.ErrorIs(t, err, ErrNoCardsAvailable)
	assert.Equal(t, "Cannot grant card solo: limit reached", err.Error())

	assert.Equal(t, []string{EventCardGranted}, f.events.names())
}

func TestAdminAdjustExperienceAndCooldown(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	svc := f.adminService(auditConfig())

	require.NoError(t, svc.AdjustExperience(ctx, 1, 40))
	require.NoError(t, svc.AdjustExperience(ctx, 1, -100))
	rec, err := f.store.GetOrCreate(ctx, 1, "")
	require.NoError(t, err)
	assert.Equal(t, int64(0), rec.Experience)

	ts := time.Date(2024, 2, 3, 4, 5, 6, 0, time.FixedZone("UTC+2", 7200))
	require.NoError(t, svc.SetCooldown(ctx, 1, &ts))
	rec, err = f.store.GetOrCreate(ctx, 1, "")
	require.NoError(t, err)
	require.NotNil(t, rec.LastDropAt)
	assert.True(t, rec.LastDropAt.Equal(ts))

	entries, err := svc.RecentAudit(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, ActionSetCooldown, entries[0].Action)
	assert.Equal(t, "2024-02-03T02:05:06Z", entries[0].Payload["timestamp"])

	require.NoError(t, svc.SetCooldown(ctx, 1, nil))
	rec, err = f.store.GetOrCreate(ctx, 1, "")
	require.NoError(t, err)
	assert.Nil(t, rec.LastDropAt)

	// set_cooldown 不发布事件
	assert.Equal(t, []string{EventXPAdjusted, EventXPAdjusted}, f.events.names())
}

func TestAdminAuditDisabled(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	cfg := auditConfig()
	cfg.EnableAuditLogs = false
	svc := f.adminService(cfg)

	require.NoError(t, svc.BanUser(ctx, 1, ""))
	entries, err := svc.RecentAudit(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.Equal(t, []string{EventUserBanned}, f.events.names())
}

func TestAdminAuditChannel(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	cfg := auditConfig()
	cfg.AuditChannel = -100123
	svc := f.adminService(cfg)

	require.NoError(t, svc.UnbanUser(ctx, 3))
	assert.Equal(t, []string{EventAudit, EventUserUnbanned}, f.events.names())
	assert.Equal(t, ActionUnban, f.events.events[0].payload["action"])
	assert.Equal(t, int64(-100123), f.events.events[0].payload["channel"])
}

func TestAdminConfigIsAdmin(t *testing.T) {
	cfg := auditConfig()
	assert.True(t, cfg.IsAdmin(900))
	assert.False(t, cfg.IsAdmin(901))
}
