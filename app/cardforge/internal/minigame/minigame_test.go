package minigame

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/lk2023060901/cardforge/app/cardforge/internal/catalog"
	"github.com/lk2023060901/cardforge/app/cardforge/internal/dao"
	"github.com/lk2023060901/cardforge/app/cardforge/internal/model"
	"github.com/lk2023060901/cardforge/app/cardforge/internal/service"
	"github.com/lk2023060901/cardforge/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedSource float64

func (f fixedSource) Float64() float64 { return float64(f) }

func noop(context.Context, *Session) error { return nil }

func newPlayers(t *testing.T) *service.PlayerService {
	t.Helper()
	cat := catalog.New()
	require.NoError(t, cat.RegisterCard(&model.Card{ID: "alpha", Name: "Alpha", Rarity: model.RarityCommon}))
	return service.NewPlayerService(dao.NewMemoryStore(), service.NewStripedLocker(2), cat, logger.NewNoop())
}

func TestRegistry_Register(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(&Game{ID: "quiz", Name: "Quiz", Command: "/Quiz", Aliases: []string{"q"}, Handler: noop}))

	t.Run("missing handler", func(t *testing.T) {
		err := r.Register(&Game{ID: "empty"})
		assert.EqualError(t, err, "mini-game requires an id and a handler")
	})

	t.Run("duplicate id", func(t *testing.T) {
		err := r.Register(&Game{ID: "quiz", Command: "other", Handler: noop})
		assert.EqualError(t, err, "Mini-game quiz already registered")
		assert.True(t, stderrors.Is(err, ErrDuplicateGame))
	})

	t.Run("command taken", func(t *testing.T) {
		err := r.Register(&Game{ID: "trivia", Command: "quiz", Handler: noop})
		assert.EqualError(t, err, "Command 'quiz' already used by mini-game quiz")
		assert.ErrorIs(t, err, ErrDuplicateGame)
	})

	t.Run("alias taken", func(t *testing.T) {
		err := r.Register(&Game{ID: "trivia", Command: "trivia", Aliases: []string{"/Q"}, Handler: noop})
		assert.EqualError(t, err, "Command 'q' already used by mini-game quiz")
	})

	t.Run("repeated key within one game", func(t *testing.T) {
		err := r.Register(&Game{ID: "echo", Command: "echo", Aliases: []string{"ECHO"}, Handler: noop})
		assert.EqualError(t, err, "Command 'echo' already used by mini-game echo")
	})

	t.Run("failed registration leaves registry unchanged", func(t *testing.T) {
		assert.Equal(t, []string{"quiz"}, r.IDs())
		_, ok := r.FindByCommand("trivia")
		assert.False(t, ok)
		_, ok = r.FindByCommand("echo")
		assert.False(t, ok)
	})
}

func TestRegistry_Lookup(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(&Game{ID: "b", Name: "B", Command: "bee", Handler: noop}))
	require.NoError(t, r.Register(&Game{ID: "a", Name: "A", Command: "ay", Aliases: []string{"alpha"}, Handler: noop}))

	for _, cmd := range []string{"ay", "/AY", " Alpha ", "//alpha"} {
		g, ok := r.FindByCommand(cmd)
		require.True(t, ok, cmd)
		assert.Equal(t, "a", g.ID)
	}
	_, ok := r.FindByCommand("/")
	assert.False(t, ok)
	_, ok = r.FindByCommand("zzz")
	assert.False(t, ok)

	g, err := r.Get("b")
	require.NoError(t, err)
	assert.Equal(t, "B", g.Name)

	_, err = r.Get("missing")
	assert.EqualError(t, err, "Mini-game missing not found")
	assert.ErrorIs(t, err, ErrGameNotFound)

	all := r.All()
	require.Len(t, all, 2)
	assert.Equal(t, "b", all[0].ID)
	assert.Equal(t, []string{"b", "a"}, r.IDs())
}

func TestSession_DelegatesToPlayers(t *testing.T) {
	ctx := context.Background()
	players := newPlayers(t)
	s := NewSession(players, fixedSource(0), 42, "tester", nil)

	p, err := s.AwardCurrency(ctx, "coins", 20)
	require.NoError(t, err)
	assert.Equal(t, int64(20), p.Wallet["coins"])

	p, err = s.SpendCurrency(ctx, "coins", 5)
	require.NoError(t, err)
	assert.Equal(t, int64(15), p.Wallet["coins"])

	_, err = s.SpendCurrency(ctx, "coins", 100)
	assert.ErrorIs(t, err, service.ErrInsufficientCurrency)

	p, err = s.GrantCard(ctx, "alpha", 2)
	require.NoError(t, err)
	assert.Equal(t, 2, p.Inventory["alpha"])

	_, err = s.GrantCard(ctx, "ghost", 1)
	assert.ErrorIs(t, err, catalog.ErrNotFound)

	_, err = s.GrantExperience(ctx, 7)
	require.NoError(t, err)

	p, err = s.Profile(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(7), p.Experience)
	assert.Equal(t, int64(15), p.Wallet["coins"])
}

func TestSession_Random(t *testing.T) {
	assert.Equal(t, 1, NewSession(nil, fixedSource(0), 1, "", nil).RollDice(6))
	assert.Equal(t, 6, NewSession(nil, fixedSource(0.99), 1, "", nil).RollDice(6))
	assert.Equal(t, 4, NewSession(nil, fixedSource(0.5), 1, "", nil).RollDice(0))
	assert.Equal(t, 20, NewSession(nil, fixedSource(0.999999), 1, "", nil).RollDice(20))

	assert.True(t, NewSession(nil, fixedSource(0.2), 1, "", nil).Chance(0.5))
	assert.False(t, NewSession(nil, fixedSource(0.5), 1, "", nil).Chance(0.5))

	roll := NewSession(nil, nil, 1, "", nil).RollDice(6)
	assert.GreaterOrEqual(t, roll, 1)
	assert.LessOrEqual(t, roll, 6)
}

func TestSession_Reply(t *testing.T) {
	s := NewSession(nil, fixedSource(0), 1, "", nil)
	assert.Empty(t, s.Reply())
	s.Send("one")
	s.Send("two")
	assert.Equal(t, []string{"one", "two"}, s.Messages())
	assert.Equal(t, "one\ntwo", s.Reply())
}

func TestRegisterBuiltins(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, RegisterBuiltins(r, DefaultConfig()))
	assert.Empty(t, r.IDs())

	require.NoError(t, RegisterBuiltins(r, Config{Builtin: true}))
	assert.Equal(t, []string{"coinflip", "dice_duel"}, r.IDs())
	_, ok := r.FindByCommand("/DiceDuel")
	assert.True(t, ok)

	err := RegisterBuiltins(r, Config{Builtin: true})
	assert.ErrorIs(t, err, ErrDuplicateGame)
}

func TestBuiltinGames(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, RegisterBuiltins(r, Config{Builtin: true, Currency: "gems"}))

	tests := []struct {
		name       string
		command    string
		roll       float64
		reply      string
		gems       int64
		experience int64
	}{
		{"heads", "coinflip", 0.1, "Flipping a coin...\nHeads! You receive 10 gems and 5 experience.", 10, 5},
		{"tails", "coinflip", 0.7, "Flipping a coin...\nTails! Try again later.", 0, 0},
		{"six", "diceduel", 0.95, "Rolling the die...\nRolled 6! You receive 12 gems.", 12, 0},
		{"five", "diceduel", 0.7, "Rolling the die...\nRolled 5! You receive 6 gems.", 6, 0},
		{"miss", "diceduel", 0.3, "Rolling the die...\nRolled 2. No reward this time.", 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			players := newPlayers(t)
			g, ok := r.FindByCommand(tt.command)
			require.True(t, ok)

			s := NewSession(players, fixedSource(tt.roll), 5, "tester", nil)
			require.NoError(t, g.Handler(ctx, s))
			assert.Equal(t, tt.reply, s.Reply())

			p, err := players.Fetch(ctx, 5)
			require.NoError(t, err)
			assert.Equal(t, tt.gems, p.Wallet["gems"])
			assert.Equal(t, tt.experience, p.Experience)
		})
	}
}
