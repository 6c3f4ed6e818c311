package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/lk2023060901/cardforge/app/cardforge/internal/command"
	"github.com/lk2023060901/cardforge/pkg/logger"
	"github.com/lk2023060901/cardforge/pkg/web"
	webErrors "github.com/lk2023060901/cardforge/pkg/web/errors"
)

// CommandHandler 把聊天命令转发给命令路由，供聊天平台适配器调用
type CommandHandler struct {
	router *command.Router
	logger logger.Logger
}

// NewCommandHandler 创建命令处理器
func NewCommandHandler(router *command.Router, l logger.Logger) *CommandHandler {
	return &CommandHandler{router: router, logger: l.Named("handler.command")}
}

// Register 注册路由
func (h *CommandHandler) Register(r gin.IRouter, guards ...gin.HandlerFunc) {
	r.POST("/api/v1/commands", append(guards, h.Execute)...)
}

// Execute 执行一条命令
func (h *CommandHandler) Execute(c *gin.Context) {
	var req command.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		web.Error(c, webErrors.CodeInvalidParams, "invalid request: "+err.Error())
		return
	}
	reply, err := h.router.Handle(c.Request.Context(), req)
	if err != nil {
		h.logger.ErrorContext(c.Request.Context(), "command failed", "user_id", req.UserID, "error", err)
		web.Error(c, webErrors.CodeInternalError, "internal error")
		return
	}
	web.Success(c, reply)
}
