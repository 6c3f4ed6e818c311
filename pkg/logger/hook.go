package logger

import (
	"go.uber.org/zap/zapcore"
)

// Hook 日志钩子，OnWrite 返回 false 时丢弃该条日志
type Hook interface {
	OnWrite(entry zapcore.Entry, fields []zapcore.Field) bool
}

// HookFunc 函数式 Hook
type HookFunc func(entry zapcore.Entry, fields []zapcore.Field) bool

func (f HookFunc) OnWrite(entry zapcore.Entry, fields []zapcore.Field) bool {
	return f(entry, fields)
}

// HookedCore 带钩子的 Core
type HookedCore struct {
	zapcore.Core
	hooks []Hook
}

// NewHookedCore 创建带钩子的 Core
func NewHookedCore(core zapcore.Core, hooks ...Hook) zapcore.Core {
	return &HookedCore{Core: core, hooks: hooks}
}

func (h *HookedCore) Check(entry zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if h.Enabled(entry.Level) {
		return ce.AddCore(entry, h)
	}
	return ce
}

func (h *HookedCore) Write(entry zapcore.Entry, fields []zapcore.Field) error {
	for _, hook := range h.hooks {
		if !hook.OnWrite(entry, fields) {
			return nil
		}
	}
	return h.Core.Write(entry, fields)
}

func (h *HookedCore) With(fields []zapcore.Field) zapcore.Core {
	return &HookedCore{Core: h.Core.With(fields), hooks: h.hooks}
}

// SensitiveDataHook 将指定 key 的字段值替换为 ***REDACTED***
func SensitiveDataHook(sensitiveKeys []string) Hook {
	keys := make(map[string]struct{}, len(sensitiveKeys))
	for _, k := range sensitiveKeys {
		keys[k] = struct{}{}
	}

	return HookFunc(func(entry zapcore.Entry, fields []zapcore.Field) bool {
		for i := range fields {
			if _, ok := keys[fields[i].Key]; ok {
				fields[i] = zapcore.Field{Key: fields[i].Key, Type: zapcore.StringType, String: "***REDACTED***"}
			}
		}
		return true
	})
}

// LevelCounterHook 每写入一条日志回调一次等级，用于把错误日志数量导出为指标
func LevelCounterHook(observe func(level zapcore.Level)) Hook {
	return HookFunc(func(entry zapcore.Entry, fields []zapcore.Field) bool {
		observe(entry.Level)
		return true
	})
}
