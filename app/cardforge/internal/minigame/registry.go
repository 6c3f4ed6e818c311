// Package minigame 小游戏注册表与运行上下文
package minigame

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
)

var (
	// ErrDuplicateGame 小游戏 ID 或命令已被占用
	ErrDuplicateGame = errors.New("duplicate mini-game")
	// ErrGameNotFound 小游戏不存在
	ErrGameNotFound = errors.New("mini-game not found")
)

// registryError 保留原始消息，errors.Is 匹配所属哨兵
type registryError struct {
	kind error
	msg  string
}

func (e *registryError) Error() string { return e.msg }

func (e *registryError) Is(target error) bool { return target == e.kind }

// Handler 小游戏逻辑，通过 Session 发奖励和回复消息
type Handler func(ctx context.Context, s *Session) error

// Game 一个可通过命令触发的小游戏
type Game struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Command     string   `json:"command,omitempty"`
	Aliases     []string `json:"aliases,omitempty"`
	Handler     Handler  `json:"-"`
}

// commandKeys 规范化后的命令与别名，忽略空值
func (g *Game) commandKeys() []string {
	keys := make([]string, 0, 1+len(g.Aliases))
	for _, raw := range append([]string{g.Command}, g.Aliases...) {
		if k := normalizeCommand(raw); k != "" {
			keys = append(keys, k)
		}
	}
	return keys
}

func normalizeCommand(cmd string) string {
	return strings.ToLower(strings.TrimLeft(strings.TrimSpace(cmd), "/"))
}

// Registry 小游戏注册表，按注册顺序遍历
type Registry struct {
	mu       sync.RWMutex
	games    map[string]*Game
	order    []string
	commands map[string]string
}

// NewRegistry 创建空注册表
func NewRegistry() *Registry {
	return &Registry{
		games:    make(map[string]*Game),
		commands: make(map[string]string),
	}
}

// Register 注册小游戏；ID 重复或命令已被其他小游戏占用时返回 ErrDuplicateGame，注册表不变
func (r *Registry) Register(g *Game) error {
	if g == nil || g.ID == "" || g.Handler == nil {
		return errors.New("mini-game requires an id and a handler")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.games[g.ID]; ok {
		return &registryError{kind: ErrDuplicateGame, msg: fmt.Sprintf("Mini-game %s already registered", g.ID)}
	}
	keys := g.commandKeys()
	seen := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		owner, taken := r.commands[k]
		if _, dup := seen[k]; dup {
			owner, taken = g.ID, true
		}
		if taken {
			return &registryError{kind: ErrDuplicateGame, msg: fmt.Sprintf("Command '%s' already used by mini-game %s", k, owner)}
		}
		seen[k] = struct{}{}
	}

	for _, k := range keys {
		r.commands[k] = g.ID
	}
	r.games[g.ID] = g
	r.order = append(r.order, g.ID)
	return nil
}

// Get 按 ID 查询
func (r *Registry) Get(id string) (*Game, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	g, ok := r.games[id]
	if !ok {
		return nil, &registryError{kind: ErrGameNotFound, msg: fmt.Sprintf("Mini-game %s not found", id)}
	}
	return g, nil
}

// All 按注册顺序返回全部小游戏
func (r *Registry) All() []*Game {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Game, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.games[id])
	}
	return out
}

// IDs 按注册顺序返回 ID
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.order...)
}

// FindByCommand 按命令或别名查找，忽略大小写和前导 "/"
func (r *Registry) FindByCommand(cmd string) (*Game, bool) {
	key := normalizeCommand(cmd)
	if key == "" {
		return nil, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.commands[key]
	if !ok {
		return nil, false
	}
	return r.games[id], true
}
