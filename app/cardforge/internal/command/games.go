package command

import (
	"context"
	"strings"

	"github.com/lk2023060901/cardforge/app/cardforge/internal/minigame"
)

func (r *Router) findGame(name string) (*minigame.Game, bool) {
	if r.games == nil || name == "" {
		return nil, false
	}
	return r.games.FindByCommand(name)
}

// playGame 被封禁的玩家不能参与小游戏；业务错误追加在已发送的消息之后
func (r *Router) playGame(ctx context.Context, req Request, name string, args []string, game *minigame.Game) (*Reply, error) {
	banned, err := r.drops.IsBanned(ctx, req.UserID)
	if err != nil {
		return nil, err
	}
	if banned {
		return &Reply{Command: name, Text: "You are banned and cannot play mini-games.", Handled: true}, nil
	}

	session := minigame.NewSession(r.players, r.rng, req.UserID, req.Username, args)
	if err := game.Handler(ctx, session); err != nil {
		msg, known := describeError(err)
		if !known {
			r.logger.ErrorContext(ctx, "mini-game failed", "game", game.ID, "user_id", req.UserID, "error", err)
			return nil, err
		}
		session.Send(msg)
	}
	r.logger.DebugContext(ctx, "mini-game played", "game", game.ID, "user_id", req.UserID)
	return &Reply{Command: name, Text: session.Reply(), Handled: true}, nil
}

func (r *Router) handleGames(context.Context, Request, []string) (string, error) {
	if r.games == nil {
		return formatGames(nil), nil
	}
	return formatGames(r.games.All()), nil
}

func formatGames(games []*minigame.Game) string {
	if len(games) == 0 {
		return "No mini-games are available yet."
	}
	var b strings.Builder
	b.WriteString("Available mini-games:")
	for _, g := range games {
		b.WriteString("\n• ")
		b.WriteString(g.Name)
		if g.Command != "" {
			b.WriteString(": /")
			b.WriteString(strings.TrimLeft(g.Command, "/"))
			if len(g.Aliases) > 0 {
				aliases := make([]string, len(g.Aliases))
				for i, a := range g.Aliases {
					aliases[i] = "/" + strings.TrimLeft(a, "/")
				}
				b.WriteString(" (" + strings.Join(aliases, ", ") + ")")
			}
		}
		if g.Description != "" {
			b.WriteString("\n  ")
			b.WriteString(g.Description)
		}
	}
	return b.String()
}
