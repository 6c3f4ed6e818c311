// Package command 与传输层无关的聊天命令路由
package command

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/lk2023060901/cardforge/app/cardforge/internal/catalog"
	"github.com/lk2023060901/cardforge/app/cardforge/internal/minigame"
	"github.com/lk2023060901/cardforge/app/cardforge/internal/service"
	"github.com/lk2023060901/cardforge/pkg/logger"
)

// Request 一条用户消息
type Request struct {
	UserID   int64  `json:"user_id" binding:"required"`
	Username string `json:"username"`
	Text     string `json:"text" binding:"required"`
}

// Reply 命令回复
type Reply struct {
	Command string `json:"command"`
	Text    string `json:"text"`
	// Handled 为 false 表示没有匹配的命令
	Handled bool `json:"handled"`
}

type handlerFunc func(ctx context.Context, req Request, args []string) (string, error)

type route struct {
	handler handlerFunc
	admin   bool
}

// Router 命令路由
type Router struct {
	drops   *service.DropService
	players *service.PlayerService
	admin   *service.AdminService
	catalog *catalog.Catalog
	games   *minigame.Registry
	rng     service.RandomSource

	adminCfg service.AdminConfig
	routes   map[string]route
	logger   logger.Logger
}

// NewRouter 创建命令路由；enable_ban 为 false 时不注册封禁命令
func NewRouter(
	drops *service.DropService,
	players *service.PlayerService,
	admin *service.AdminService,
	cat *catalog.Catalog,
	l logger.Logger,
) *Router {
	r := &Router{
		drops:    drops,
		players:  players,
		admin:    admin,
		catalog:  cat,
		adminCfg: admin.Config(),
		routes:   make(map[string]route),
		logger:   l.Named("command"),
	}

	r.user("start", r.handleStart)
	r.user("packs", r.handlePacks)
	r.user("drop", r.handleDrop)
	r.user("profile", r.handleProfile)
	r.user("collection", r.handleCollection)
	r.user("cooldown", r.handleCooldown)
	r.user("history", r.handleHistory)
	r.user("games", r.handleGames)

	names := r.adminCfg.Commands
	if r.adminCfg.EnableBan {
		r.adminRoute(names.Ban, r.handleBan)
		r.adminRoute(names.Unban, r.handleUnban)
	}
	r.adminRoute(names.GrantCard, r.handleGrantCard)
	r.adminRoute(names.GrantCurrency, r.handleGrantCurrency)
	return r
}

// WithMiniGames 未匹配内置命令时交给小游戏注册表处理
func (r *Router) WithMiniGames(games *minigame.Registry, rng service.RandomSource) *Router {
	r.games = games
	r.rng = rng
	return r
}

func (r *Router) user(name string, h handlerFunc) {
	r.routes[name] = route{handler: h}
}

func (r *Router) adminRoute(name string, h handlerFunc) {
	if name = strings.TrimPrefix(strings.TrimSpace(name), "/"); name != "" {
		r.routes[strings.ToLower(name)] = route{handler: h, admin: true}
	}
}

// Commands 已注册的命令（排序后）
func (r *Router) Commands() []string {
	out := make([]string, 0, len(r.routes))
	for name := range r.routes {
		out = append(out, name)
	}
	slices.Sort(out)
	return out
}

// ParseCommand 解析 "/cmd@bot arg1 arg2"，不是命令时返回空字符串
func ParseCommand(text string) (string, []string) {
	fields := strings.Fields(text)
	if len(fields) == 0 || !strings.HasPrefix(fields[0], "/") {
		return "", nil
	}
	name := strings.TrimPrefix(fields[0], "/")
	if at := strings.IndexByte(name, '@'); at >= 0 {
		name = name[:at]
	}
	return strings.ToLower(name), fields[1:]
}

// Handle 执行一条命令；业务错误转换为回复文本，其他错误原样返回
func (r *Router) Handle(ctx context.Context, req Request) (*Reply, error) {
	name, args := ParseCommand(req.Text)
	rt, ok := r.routes[name]
	if !ok {
		if game, found := r.findGame(name); found {
			return r.playGame(ctx, req, name, args, game)
		}
		return &Reply{Command: name, Text: "Unknown command. Use /start to see what I can do."}, nil
	}
	if rt.admin && !r.adminCfg.IsAdmin(req.UserID) {
		r.logger.WarnContext(ctx, "admin command rejected", "command", name, "user_id", req.UserID)
		return &Reply{Command: name, Text: "This command is available to administrators only.", Handled: true}, nil
	}

	text, err := rt.handler(ctx, req, args)
	if err != nil {
		msg, known := describeError(err)
		if !known {
			r.logger.ErrorContext(ctx, "command failed", "command", name, "user_id", req.UserID, "error", err)
			return nil, err
		}
		text = msg
	}
	return &Reply{Command: name, Text: text, Handled: true}, nil
}

// describeError 把业务错误翻译为面向用户的文本
func describeError(err error) (string, bool) {
	var cd *service.CooldownActiveError
	switch {
	case errors.As(err, &cd):
		return fmt.Sprintf("Please wait %d more seconds before the next drop.", cd.SecondsRemaining), true
	case errors.Is(err, service.ErrPlayerBanned):
		return "You are banned and cannot receive cards.", true
	case errors.Is(err, service.ErrNoCardsAvailable):
		return err.Error(), true
	case errors.Is(err, service.ErrInvalidAmount),
		errors.Is(err, service.ErrUnknownCurrency),
		errors.Is(err, service.ErrInsufficientCurrency),
		errors.Is(err, catalog.ErrNotFound):
		return err.Error(), true
	default:
		return "", false
	}
}

func (r *Router) handleStart(context.Context, Request, []string) (string, error) {
	return "Hi! I am a CardForge card bot. Use /drop to get cards, /packs to list packs and /profile to see your progress.", nil
}

func (r *Router) handlePacks(context.Context, Request, []string) (string, error) {
	return formatPacks(r.catalog.Packs()), nil
}

func (r *Router) resolvePack(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return r.drops.DefaultPackID()
}

func (r *Router) handleDrop(ctx context.Context, req Request, args []string) (string, error) {
	packID := r.resolvePack(args)
	if _, err := r.catalog.GetPack(packID); err != nil {
		return "Pack not found. Use /packs to see the available packs.", nil
	}
	outcome, err := r.drops.DropFromPack(ctx, req.UserID, packID, req.Username)
	if err != nil {
		if errors.Is(err, service.ErrNoCardsAvailable) {
			return "There are no cards left for you in this pack.", nil
		}
		return "", err
	}
	return formatDrop(outcome), nil
}

func (r *Router) handleProfile(ctx context.Context, req Request, _ []string) (string, error) {
	profile, err := r.players.Fetch(ctx, req.UserID)
	if err != nil {
		return "", err
	}
	remaining, err := r.drops.CooldownRemaining(ctx, req.UserID)
	if err != nil {
		return "", err
	}
	return formatProfile(profile, remaining), nil
}

func (r *Router) handleCollection(ctx context.Context, req Request, _ []string) (string, error) {
	profile, err := r.players.Fetch(ctx, req.UserID)
	if err != nil {
		return "", err
	}
	return formatCollection(profile.Inventory, r.catalog.Cards()), nil
}

func (r *Router) handleCooldown(ctx context.Context, req Request, _ []string) (string, error) {
	remaining, err := r.drops.CooldownRemaining(ctx, req.UserID)
	if err != nil {
		return "", err
	}
	if remaining > 0 {
		return fmt.Sprintf("%d seconds left until the next drop.", remaining), nil
	}
	return "No cooldown, you can open a pack!", nil
}

func (r *Router) handleHistory(ctx context.Context, req Request, args []string) (string, error) {
	limit := 10
	if len(args) > 0 {
		if n, err := strconv.Atoi(args[0]); err == nil && n > 0 {
			limit = n
		}
	}
	records, err := r.drops.RecentDrops(ctx, req.UserID, limit)
	if err != nil {
		return "", err
	}
	return formatHistory(records), nil
}

func (r *Router) handleBan(ctx context.Context, req Request, args []string) (string, error) {
	name := r.adminCfg.Commands.Ban
	if len(args) < 1 {
		return usage(name, "<user_id> [reason]"), nil
	}
	target, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return usage(name, "<user_id> [reason]"), nil
	}
	reason := fmt.Sprintf("by %d", req.UserID)
	if len(args) > 1 {
		reason = strings.Join(args[1:], " ")
	}
	if err := r.admin.BanUser(ctx, target, reason); err != nil {
		return "", err
	}
	return fmt.Sprintf("User %d has been banned.", target), nil
}

func (r *Router) handleUnban(ctx context.Context, _ Request, args []string) (string, error) {
	name := r.adminCfg.Commands.Unban
	if len(args) < 1 {
		return usage(name, "<user_id>"), nil
	}
	target, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return usage(name, "<user_id>"), nil
	}
	if err := r.admin.UnbanUser(ctx, target); err != nil {
		return "", err
	}
	return fmt.Sprintf("User %d has been unbanned.", target), nil
}

func (r *Router) handleGrantCard(ctx context.Context, _ Request, args []string) (string, error) {
	const params = "<user_id> <card_id> [quantity]"
	name := r.adminCfg.Commands.GrantCard
	if len(args) < 2 {
		return usage(name, params), nil
	}
	target, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return usage(name, params), nil
	}
	quantity := 1
	if len(args) > 2 {
		if quantity, err = strconv.Atoi(args[2]); err != nil {
			return usage(name, params), nil
		}
	}
	if err := r.admin.GrantCard(ctx, target, args[1], quantity); err != nil {
		return "", err
	}
	return fmt.Sprintf("Granted %dx %s to user %d.", quantity, args[1], target), nil
}

func (r *Router) handleGrantCurrency(ctx context.Context, _ Request, args []string) (string, error) {
	const params = "<user_id> <currency> <amount>"
	name := r.adminCfg.Commands.GrantCurrency
	if len(args) < 3 {
		return usage(name, params), nil
	}
	target, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return usage(name, params), nil
	}
	amount, err := strconv.ParseInt(args[2], 10, 64)
	if err != nil {
		return usage(name, params), nil
	}
	if err := r.admin.GrantCurrency(ctx, target, args[1], amount); err != nil {
		return "", err
	}
	return fmt.Sprintf("Granted %d %s to user %d.", amount, args[1], target), nil
}

func usage(name, params string) string {
	return fmt.Sprintf("Usage: /%s %s", name, params)
}
