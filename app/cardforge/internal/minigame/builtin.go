package minigame

import (
	"context"
	"fmt"
)

// Config 内置小游戏开关
type Config struct {
	// Builtin 为 true 时注册 coinflip 与 diceduel
	Builtin bool `mapstructure:"builtin"`
	// Currency 内置小游戏发放的货币
	Currency string `mapstructure:"currency"`
}

// DefaultConfig 默认不启用内置小游戏
func DefaultConfig() Config {
	return Config{Currency: "coins"}
}

const (
	coinflipCoins      int64 = 10
	coinflipExperience int64 = 5
	diceHighCoins      int64 = 12
	diceLowCoins       int64 = 6
)

// RegisterBuiltins 按配置注册内置小游戏
func RegisterBuiltins(r *Registry, cfg Config) error {
	if !cfg.Builtin {
		return nil
	}
	currency := cfg.Currency
	if currency == "" {
		currency = DefaultConfig().Currency
	}

	games := []*Game{
		{
			ID:          "coinflip",
			Name:        "Coin Flip",
			Description: "Flip a coin and win a reward on heads.",
			Command:     "coinflip",
			Handler:     coinflip(currency),
		},
		{
			ID:          "dice_duel",
			Name:        "Dice Duel",
			Description: "Roll a die and collect coins on a 5 or 6.",
			Command:     "diceduel",
			Handler:     diceDuel(currency),
		},
	}
	for _, g := range games {
		if err := r.Register(g); err != nil {
			return err
		}
	}
	return nil
}

func coinflip(currency string) Handler {
	return func(ctx context.Context, s *Session) error {
		s.Send("Flipping a coin...")
		if !s.Chance(0.5) {
			s.Send("Tails! Try again later.")
			return nil
		}
		if _, err := s.AwardCurrency(ctx, currency, coinflipCoins); err != nil {
			return err
		}
		if _, err := s.GrantExperience(ctx, coinflipExperience); err != nil {
			return err
		}
		s.Send(fmt.Sprintf("Heads! You receive %d %s and %d experience.", coinflipCoins, currency, coinflipExperience))
		return nil
	}
}

func diceDuel(currency string) Handler {
	return func(ctx context.Context, s *Session) error {
		s.Send("Rolling the die...")
		roll := s.RollDice(6)
		if roll < 5 {
			s.Send(fmt.Sprintf("Rolled %d. No reward this time.", roll))
			return nil
		}
		reward := diceLowCoins
		if roll == 6 {
			reward = diceHighCoins
		}
		if _, err := s.AwardCurrency(ctx, currency, reward); err != nil {
			return err
		}
		s.Send(fmt.Sprintf("Rolled %d! You receive %d %s.", roll, reward, currency))
		return nil
	}
}
