package service

import (
	"context"
	"testing"
	"time"

	"github.com/lk2023060901/cardforge/app/cardforge/internal/catalog"
	"github.com/lk2023060901/cardforge/app/cardforge/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlayerServiceWallet(t *testing.T) {
	ctx := context.Background()
	svc := newFixture(t).playerService()

	_, err := svc.Credit(ctx, 1, "coins", 0)
	require.ErrorIs(t, err, ErrInvalidAmount)
	assert.Equal(t, "Amount must be positive", err.Error())

	profile, err := svc.Credit(ctx, 1, "coins", 50)
	require.NoError(t, err)
	assert.Equal(t, int64(50), profile.Wallet["coins"])

	_, err = svc.Spend(ctx, 1, "coins", -1)
	require.ErrorIs(t, err, ErrInvalidAmount)

	_, err = svc.Spend(ctx, 1, "coins", 80)
	require.ErrorIs(t, err, ErrInsufficientCurrency)
	assert.Equal(t, "Insufficient coins: have 50, need 80", err.Error())

	profile, err = svc.Spend(ctx, 1, "coins", 20)
	require.NoError(t, err)
	assert.Equal(t, int64(30), profile.Wallet["coins"])

	// 返回的是副本
	profile.Wallet["coins"] = 999
	again, err := svc.Fetch(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(30), again.Wallet["coins"])
}

func TestPlayerServiceAddCard(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.card(t, &model.Card{ID: "capped", Name: "Capped", MaxCopies: intPtr(2)})
	svc := f.playerService()

	_, err := svc.AddCard(ctx, 1, "capped", 0)
	require.ErrorIs(t, err, ErrInvalidAmount)
	assert.Equal(t, "Quantity must be positive", err.Error())

	// 未挂载目录时不检查上限
	profile, err := svc.AddCard(ctx, 1, "capped", 3)
	require.NoError(t, err)
	assert.Equal(t, 3, profile.Inventory["capped"])

	svc.AttachCatalog(f.catalog)
	_, err = svc.AddCard(ctx, 1, "capped", 1)
	require.ErrorIs(t, err, ErrNoCardsAvailable)
	assert.Equal(t, "Cannot grant card capped: limit reached", err.Error())

	_, err = svc.AddCard(ctx, 2, "ghost", 1)
	require.ErrorIs(t, err, catalog.ErrNotFound)

	profile, err = svc.AddCard(ctx, 2, "capped", 1)
	require.NoError(t, err)
	assert.Equal(t, 1, profile.Inventory["capped"])
}

func TestPlayerServiceExperienceAndCooldown(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	svc := f.playerService()

	profile, err := svc.GrantExperience(ctx, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(10), profile.Experience)

	profile, err = svc.GrantExperience(ctx, 1, -25)
	require.NoError(t, err)
	assert.Equal(t, int64(0), profile.Experience)

	profile, err = svc.GrantExperience(ctx, 1, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(0), profile.Experience)

	rec, err := f.store.GetOrCreate(ctx, 1, "")
	require.NoError(t, err)
	now := time.Now()
	rec.LastDropAt = &now
	require.NoError(t, f.store.Save(ctx, rec))

	_, err = svc.ClearCooldown(ctx, 1)
	require.NoError(t, err)
	rec, err = f.store.GetOrCreate(ctx, 1, "")
	require.NoError(t, err)
	assert.Nil(t, rec.LastDropAt)
}
