package middleware

import (
	"errors"
	"net"
	"net/http/httputil"
	"os"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/lk2023060901/cardforge/pkg/logger"
	"github.com/lk2023060901/cardforge/pkg/sentry"
	weberrors "github.com/lk2023060901/cardforge/pkg/web/errors"
)

// Recovery 捕获 handler panic，记录日志并上报 Sentry；连接已断开时不上报
func Recovery(l logger.Logger, reporter sentry.Reporter) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}

			httpRequest, _ := httputil.DumpRequest(c.Request, false)
			if isBrokenPipe(rec) {
				l.Warn("http broken pipe", "error", rec, "request", string(httpRequest))
				if err, ok := rec.(error); ok {
					_ = c.Error(err)
				}
				c.Abort()
				return
			}

			l.ErrorContext(c.Request.Context(), "http recovery from panic",
				"error", rec,
				"request", string(httpRequest),
			)
			reporter.CapturePanic(rec)
			abortWithCode(c, weberrors.CodeInternalError, "internal server error")
		}()
		c.Next()
	}
}

func isBrokenPipe(rec any) bool {
	err, ok := rec.(error)
	if !ok {
		return false
	}
	var ne *net.OpError
	if !errors.As(err, &ne) {
		return false
	}
	var se *os.SyscallError
	if !errors.As(ne.Err, &se) {
		return false
	}
	msg := strings.ToLower(se.Error())
	return strings.Contains(msg, "broken pipe") || strings.Contains(msg, "connection reset by peer")
}
