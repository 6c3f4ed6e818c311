package event

import (
	"context"
	"fmt"

	"github.com/lk2023060901/cardforge/pkg/logger"
	"github.com/lk2023060901/cardforge/pkg/sentry"
)

// Isolate 包装非关键订阅者：错误与 panic 只记录日志并上报，不影响发布方
func Isolate(name string, fn Listener, l logger.Logger, reporter sentry.Reporter) Listener {
	if reporter == nil {
		reporter = sentry.NopReporter{}
	}
	return func(ctx context.Context, e Event) (err error) {
		defer func() {
			if r := recover(); r != nil {
				reporter.CapturePanic(r)
				l.ErrorContext(ctx, "event listener panicked",
					"listener", name, "event", e.Name, "panic", fmt.Sprint(r))
			}
			err = nil
		}()

		if lerr := fn(ctx, e); lerr != nil {
			reporter.CaptureError(ctx, lerr, map[string]string{"listener": name, "event": e.Name})
			l.WarnContext(ctx, "isolated event listener failed",
				"listener", name, "event", e.Name, "error", lerr)
		}
		return nil
	}
}
