package minigame

import (
	"context"
	"strings"

	"github.com/lk2023060901/cardforge/app/cardforge/internal/service"
)

// Session 一次小游戏调用的上下文，奖励全部经由 PlayerService 落库
type Session struct {
	UserID   int64
	Username string
	Args     []string

	players  *service.PlayerService
	rng      service.RandomSource
	messages []string
}

// NewSession 创建会话，rng 为 nil 时使用加密随机源
func NewSession(players *service.PlayerService, rng service.RandomSource, userID int64, username string, args []string) *Session {
	if rng == nil {
		rng = service.NewCryptoSource()
	}
	return &Session{
		UserID:   userID,
		Username: username,
		Args:     args,
		players:  players,
		rng:      rng,
	}
}

// Send 追加一条回复
func (s *Session) Send(text string) {
	s.messages = append(s.messages, text)
}

// Messages 已发送的回复
func (s *Session) Messages() []string {
	return s.messages
}

// Reply 以换行拼接全部回复
func (s *Session) Reply() string {
	return strings.Join(s.messages, "\n")
}

func (s *Session) AwardCurrency(ctx context.Context, currency string, amount int64) (*service.PlayerProfile, error) {
	return s.players.Credit(ctx, s.UserID, currency, amount)
}

func (s *Session) SpendCurrency(ctx context.Context, currency string, amount int64) (*service.PlayerProfile, error) {
	return s.players.Spend(ctx, s.UserID, currency, amount)
}

func (s *Session) GrantCard(ctx context.Context, cardID string, quantity int) (*service.PlayerProfile, error) {
	return s.players.AddCard(ctx, s.UserID, cardID, quantity)
}

func (s *Session) GrantExperience(ctx context.Context, amount int64) (*service.PlayerProfile, error) {
	return s.players.GrantExperience(ctx, s.UserID, amount)
}

func (s *Session) Profile(ctx context.Context) (*service.PlayerProfile, error) {
	return s.players.Fetch(ctx, s.UserID)
}

// RollDice 返回 [1, sides] 内的点数，sides < 1 时按 6 面处理
func (s *Session) RollDice(sides int) int {
	if sides < 1 {
		sides = 6
	}
	return min(1+int(s.rng.Float64()*float64(sides)), sides)
}

// Chance 以概率 p 返回 true
func (s *Session) Chance(p float64) bool {
	return s.rng.Float64() < p
}
