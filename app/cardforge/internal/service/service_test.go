package service

import (
	"context"
	"sync"
	"testing"

	"github.com/lk2023060901/cardforge/app/cardforge/internal/catalog"
	"github.com/lk2023060901/cardforge/app/cardforge/internal/dao"
	"github.com/lk2023060901/cardforge/app/cardforge/internal/model"
	"github.com/lk2023060901/cardforge/pkg/idgen"
	"github.com/lk2023060901/cardforge/pkg/logger"
	"github.com/stretchr/testify/require"
)

// fixedSource 循环返回预设的随机数
type fixedSource struct {
	mu     sync.Mutex
	values []float64
	i      int
}

func newFixedSource(values ...float64) *fixedSource {
	return &fixedSource{values: values}
}

func (f *fixedSource) Float64() float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	v := f.values[f.i%len(f.values)]
	f.i++
	return v
}

type publishedEvent struct {
	name    string
	payload map[string]any
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []publishedEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, name string, payload map[string]any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{name: name, payload: payload})
	return p.err
}

func (p *recordingPublisher) names() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.name
	}
	return out
}

type fixture struct {
	catalog    *catalog.Catalog
	currencies *catalog.CurrencyRegistry
	store      *dao.MemoryStore
	events     *recordingPublisher
}

func newFixture(t *testing.T, currencies ...string) *fixture {
	t.Helper()
	f := &fixture{
		catalog:    catalog.New(),
		currencies: catalog.NewCurrencyRegistry(),
		store:      dao.NewMemoryStore(),
		events:     &recordingPublisher{},
	}
	for _, code := range append([]string{"coins", "gems"}, currencies...) {
		require.NoError(t, f.currencies.Register(model.Currency{Code: code, Name: code}))
	}
	return f
}

func (f *fixture) card(t *testing.T, c *model.Card) {
	t.Helper()
	require.NoError(t, f.catalog.RegisterCard(c))
}

func (f *fixture) pack(t *testing.T, p *model.CardPack) {
	t.Helper()
	require.NoError(t, f.catalog.RegisterPack(p))
}

func (f *fixture) dropService(cfg DropConfig, rng RandomSource) *DropService {
	return NewDropService(DropDeps{
		Catalog:    f.catalog,
		Currencies: f.currencies,
		Players:    f.store,
		History:    f.store,
		Events:     f.events,
		Locker:     NewStripedLocker(8),
		Random:     rng,
		IDs:        idgen.NewSequence(1),
	}, cfg, logger.NewNoop())
}

func (f *fixture) playerService() *PlayerService {
	return NewPlayerService(f.store, NewStripedLocker(8), nil, logger.NewNoop())
}

func (f *fixture) adminService(cfg AdminConfig) *AdminService {
	return NewAdminService(AdminDeps{
		Players:    f.store,
		Audit:      f.store,
		Catalog:    f.catalog,
		Currencies: f.currencies,
		Events:     f.events,
		AuditIDs:   idgen.NewNanoID(12),
	}, cfg, logger.NewNoop())
}

func intPtr(v int) *int { return &v }

func floatPtr(v float64) *float64 { return &v }

// starterFixture 一个卡包 starters，内含一张 alpha 卡
func starterFixture(t *testing.T) *fixture {
	t.Helper()
	f := newFixture(t)
	f.card(t, &model.Card{
		ID:          "alpha",
		Name:        "Alpha",
		Description: "Alpha card",
		Rarity:      model.RarityCommon,
		Reward:      model.Reward{Currencies: map[string]int64{"coins": 5}, Experience: 2},
	})
	f.pack(t, &model.CardPack{ID: "starters", Name: "Starter Pack", Cards: []string{"alpha"}, AllowDuplicates: true})
	return f
}
