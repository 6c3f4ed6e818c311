package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lk2023060901/cardforge/app/cardforge/internal/dao"
	"github.com/lk2023060901/cardforge/app/cardforge/internal/service"
	"github.com/lk2023060901/cardforge/pkg/logger"
	"github.com/lk2023060901/cardforge/pkg/web"
	webErrors "github.com/lk2023060901/cardforge/pkg/web/errors"
	"github.com/lk2023060901/cardforge/pkg/web/middleware"
)

// AdminHandler 管理接口，必须挂在鉴权中间件之后
type AdminHandler struct {
	admin  *service.AdminService
	logger logger.Logger
}

// NewAdminHandler 创建管理处理器
func NewAdminHandler(admin *service.AdminService, l logger.Logger) *AdminHandler {
	return &AdminHandler{admin: admin, logger: l.Named("handler.admin")}
}

// BanRequest 封禁请求
type BanRequest struct {
	Reason string `json:"reason"`
}

// GrantCurrencyRequest 发放货币请求
type GrantCurrencyRequest struct {
	Currency string `json:"currency" binding:"required"`
	Amount   int64  `json:"amount" binding:"required"`
}

// GrantCardRequest 发放卡牌请求，Quantity 为 0 时按 1 处理
type GrantCardRequest struct {
	CardID   string `json:"card_id" binding:"required"`
	Quantity int    `json:"quantity"`
}

// AdjustExperienceRequest 调整经验请求
type AdjustExperienceRequest struct {
	Delta int64 `json:"delta" binding:"required"`
}

// SetCooldownRequest 设置最近掉落时间，LastDropAt 为空表示清除冷却
type SetCooldownRequest struct {
	LastDropAt *time.Time `json:"last_drop_at"`
}

// Register 注册路由，guards 通常为 JWT 鉴权
func (h *AdminHandler) Register(r gin.IRouter, guards ...gin.HandlerFunc) {
	admin := r.Group("/api/v1/admin", guards...)
	{
		admin.GET("/audit", h.Audit)
		users := admin.Group("/users/:user_id")
		users.POST("/currency", h.GrantCurrency)
		users.POST("/cards", h.GrantCard)
		users.POST("/experience", h.AdjustExperience)
		users.PUT("/cooldown", h.SetCooldown)
		if h.admin.Config().EnableBan {
			users.POST("/ban", h.Ban)
			users.DELETE("/ban", h.Unban)
		}
	}
}

// bind 解析路径和请求体，失败时已写入响应
func (h *AdminHandler) bind(c *gin.Context, req any) (int64, bool) {
	userID, ok := userIDParam(c)
	if !ok {
		return 0, false
	}
	if req != nil {
		if err := c.ShouldBindJSON(req); err != nil {
			web.Error(c, webErrors.CodeInvalidParams, "invalid request: "+err.Error())
			return 0, false
		}
	}
	return userID, true
}

func (h *AdminHandler) done(c *gin.Context, action string, userID int64, err error) {
	if err != nil {
		respondError(c, h.logger, action, err)
		return
	}
	fields := []any{"action", action, "user_id", userID}
	if claims, ok := middleware.GetClaims(c); ok {
		fields = append(fields, "admin_id", claims.AdminID)
	}
	h.logger.InfoContext(c.Request.Context(), "admin request completed", fields...)
	web.Success(c, gin.H{"user_id": userID, "action": action})
}

// Ban 封禁用户
func (h *AdminHandler) Ban(c *gin.Context) {
	var req BanRequest
	userID, ok := userIDParam(c)
	if !ok {
		return
	}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			web.Error(c, webErrors.CodeInvalidParams, "invalid request: "+err.Error())
			return
		}
	}
	h.done(c, service.ActionBan, userID, h.admin.BanUser(c.Request.Context(), userID, req.Reason))
}

// Unban 解除封禁
func (h *AdminHandler) Unban(c *gin.Context) {
	userID, ok := h.bind(c, nil)
	if !ok {
		return
	}
	h.done(c, service.ActionUnban, userID, h.admin.UnbanUser(c.Request.Context(), userID))
}

// GrantCurrency 发放货币
func (h *AdminHandler) GrantCurrency(c *gin.Context) {
	var req GrantCurrencyRequest
	userID, ok := h.bind(c, &req)
	if !ok {
		return
	}
	err := h.admin.GrantCurrency(c.Request.Context(), userID, req.Currency, req.Amount)
	h.done(c, service.ActionGrantCurrency, userID, err)
}

// GrantCard 发放卡牌
func (h *AdminHandler) GrantCard(c *gin.Context) {
	var req GrantCardRequest
	userID, ok := h.bind(c, &req)
	if !ok {
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}
	err := h.admin.GrantCard(c.Request.Context(), userID, req.CardID, req.Quantity)
	h.done(c, service.ActionGrantCard, userID, err)
}

// AdjustExperience 调整经验
func (h *AdminHandler) AdjustExperience(c *gin.Context) {
	var req AdjustExperienceRequest
	userID, ok := h.bind(c, &req)
	if !ok {
		return
	}
	err := h.admin.AdjustExperience(c.Request.Context(), userID, req.Delta)
	h.done(c, service.ActionAdjustXP, userID, err)
}

// SetCooldown 设置或清除冷却
func (h *AdminHandler) SetCooldown(c *gin.Context) {
	var req SetCooldownRequest
	userID, ok := h.bind(c, &req)
	if !ok {
		return
	}
	err := h.admin.SetCooldown(c.Request.Context(), userID, req.LastDropAt)
	h.done(c, service.ActionSetCooldown, userID, err)
}

// Audit 最近的审计记录
func (h *AdminHandler) Audit(c *gin.Context) {
	entries, err := h.admin.RecentAudit(c.Request.Context(), queryLimit(c, dao.DefaultHistoryLimit))
	if err != nil {
		respondError(c, h.logger, "audit", err)
		return
	}
	web.Success(c, entries)
}
