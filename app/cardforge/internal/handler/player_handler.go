package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lk2023060901/cardforge/app/cardforge/internal/dao"
	"github.com/lk2023060901/cardforge/app/cardforge/internal/model"
	"github.com/lk2023060901/cardforge/app/cardforge/internal/service"
	"github.com/lk2023060901/cardforge/pkg/logger"
	"github.com/lk2023060901/cardforge/pkg/web"
	webErrors "github.com/lk2023060901/cardforge/pkg/web/errors"
)

// PlayerHandler 玩家接口：掉落、档案、冷却、历史
type PlayerHandler struct {
	drops   *service.DropService
	players *service.PlayerService
	logger  logger.Logger
}

// NewPlayerHandler 创建玩家处理器
func NewPlayerHandler(drops *service.DropService, players *service.PlayerService, l logger.Logger) *PlayerHandler {
	return &PlayerHandler{
		drops:   drops,
		players: players,
		logger:  l.Named("handler.player"),
	}
}

// DropRequest 掉落请求，PackID 为空时使用默认卡包
type DropRequest struct {
	PackID   string `json:"pack_id"`
	Username string `json:"username"`
}

// DropResponse 掉落响应
type DropResponse struct {
	Cards      []*model.Card `json:"cards"`
	Reward     model.Reward  `json:"reward"`
	Duplicates []*model.Card `json:"duplicates"`
	NextDropAt time.Time     `json:"next_drop_at"`
}

// CooldownResponse 冷却响应
type CooldownResponse struct {
	UserID           int64 `json:"user_id"`
	SecondsRemaining int64 `json:"seconds_remaining"`
}

// Register 注册路由，dropGuards 挂在掉落接口上（通常是限流）
func (h *PlayerHandler) Register(r gin.IRouter, dropGuards ...gin.HandlerFunc) {
	users := r.Group("/api/v1/users/:user_id")
	{
		users.POST("/drops", append(dropGuards, h.Drop)...)
		users.GET("/profile", h.Profile)
		users.GET("/cooldown", h.Cooldown)
		users.GET("/history", h.History)
	}
}

// Drop 打开卡包
func (h *PlayerHandler) Drop(c *gin.Context) {
	userID, ok := userIDParam(c)
	if !ok {
		return
	}
	var req DropRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			web.Error(c, webErrors.CodeInvalidParams, "invalid request: "+err.Error())
			return
		}
	}
	if req.PackID == "" {
		req.PackID = h.drops.DefaultPackID()
	}

	outcome, err := h.drops.DropFromPack(c.Request.Context(), userID, req.PackID, req.Username)
	if err != nil {
		respondError(c, h.logger, "drop", err)
		return
	}
	web.Success(c, DropResponse{
		Cards:      outcome.Cards,
		Reward:     outcome.Reward,
		Duplicates: outcome.Duplicates,
		NextDropAt: outcome.NextDropAt,
	})
}

// Profile 玩家档案
func (h *PlayerHandler) Profile(c *gin.Context) {
	userID, ok := userIDParam(c)
	if !ok {
		return
	}
	profile, err := h.players.Fetch(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.logger, "fetch profile", err)
		return
	}
	web.Success(c, profile)
}

// Cooldown 剩余冷却秒数
func (h *PlayerHandler) Cooldown(c *gin.Context) {
	userID, ok := userIDParam(c)
	if !ok {
		return
	}
	remaining, err := h.drops.CooldownRemaining(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.logger, "cooldown", err)
		return
	}
	web.Success(c, CooldownResponse{UserID: userID, SecondsRemaining: remaining})
}

// History 最近的掉落记录，按时间倒序
func (h *PlayerHandler) History(c *gin.Context) {
	userID, ok := userIDParam(c)
	if !ok {
		return
	}
	records, err := h.drops.RecentDrops(c.Request.Context(), userID, queryLimit(c, dao.DefaultHistoryLimit))
	if err != nil {
		respondError(c, h.logger, "history", err)
		return
	}
	web.Success(c, records)
}
