package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/lk2023060901/cardforge/pkg/logger"
	"github.com/lk2023060901/cardforge/pkg/web/errors"
)

func abortWithCode(c *gin.Context, code int, message string) {
	body := gin.H{"code": code, "message": message, "data": nil}
	if id, ok := logger.RequestIDFrom(c.Request.Context()); ok {
		body["request_id"] = id
	}
	c.AbortWithStatusJSON(errors.CodeToStatus(code), body)
}
