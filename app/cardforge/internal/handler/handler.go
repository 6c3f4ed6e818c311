// Package handler CardForge 的 HTTP JSON 接口
package handler

import (
	"strconv"

	"github.com/cockroachdb/errors"
	"github.com/gin-gonic/gin"
	"github.com/lk2023060901/cardforge/app/cardforge/internal/catalog"
	"github.com/lk2023060901/cardforge/app/cardforge/internal/service"
	"github.com/lk2023060901/cardforge/pkg/logger"
	"github.com/lk2023060901/cardforge/pkg/web"
	webErrors "github.com/lk2023060901/cardforge/pkg/web/errors"
)

// errorCode 业务错误映射到接口错误码
func errorCode(err error) (int, bool) {
	switch {
	case errors.Is(err, service.ErrCooldownActive),
		errors.Is(err, service.ErrNoCardsAvailable),
		errors.Is(err, catalog.ErrDuplicateKey):
		return webErrors.CodeConflict, true
	case errors.Is(err, service.ErrPlayerBanned):
		return webErrors.CodeForbidden, true
	case errors.Is(err, service.ErrInvalidAmount),
		errors.Is(err, service.ErrUnknownCurrency),
		errors.Is(err, service.ErrInsufficientCurrency):
		return webErrors.CodeInvalidParams, true
	case errors.Is(err, catalog.ErrNotFound):
		return webErrors.CodeNotFound, true
	default:
		return webErrors.CodeInternalError, false
	}
}

// respondError 业务错误返回原始消息，其他错误只记日志
func respondError(c *gin.Context, l logger.Logger, action string, err error) {
	code, known := errorCode(err)
	if !known {
		l.ErrorContext(c.Request.Context(), action+" failed", "error", err)
		web.Error(c, code, "internal error")
		return
	}
	web.Error(c, code, err.Error())
}

func userIDParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("user_id"), 10, 64)
	if err != nil {
		web.Error(c, webErrors.CodeInvalidParams, "invalid user_id")
		return 0, false
	}
	return id, true
}

func queryLimit(c *gin.Context, fallback int) int {
	if n, err := strconv.Atoi(c.Query("limit")); err == nil && n > 0 {
		return n
	}
	return fallback
}
