package web

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lk2023060901/cardforge/pkg/logger"
	"github.com/lk2023060901/cardforge/pkg/web/errors"
)

// Response 统一响应结构
type Response struct {
	Code      int    `json:"code"`
	Message   string `json:"message"`
	Data      any    `json:"data"`
	RequestID string `json:"request_id,omitempty"`
}

// Success 成功响应
func Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, Response{
		Code:      errors.CodeOK,
		Message:   "ok",
		Data:      data,
		RequestID: requestID(c),
	})
}

// Error 错误响应，HTTP 状态码由业务码推导
func Error(c *gin.Context, code int, message string) {
	c.JSON(errors.CodeToStatus(code), Response{
		Code:      code,
		Message:   message,
		RequestID: requestID(c),
	})
}

// AbortWithError 中断并返回错误
func AbortWithError(c *gin.Context, code int, message string) {
	c.AbortWithStatusJSON(errors.CodeToStatus(code), Response{
		Code:      code,
		Message:   message,
		RequestID: requestID(c),
	})
}

func requestID(c *gin.Context) string {
	id, _ := logger.RequestIDFrom(c.Request.Context())
	return id
}
