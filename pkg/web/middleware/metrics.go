package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

// RequestObserver 接收每个请求的指标
type RequestObserver interface {
	ObserveHTTP(route, method, status string, seconds float64)
}

// Metrics 接口监控中间件，按路由模板而非实际路径聚合
func Metrics(o RequestObserver) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unknown"
		}
		o.ObserveHTTP(route, c.Request.Method, strconv.Itoa(c.Writer.Status()), time.Since(start).Seconds())
	}
}
