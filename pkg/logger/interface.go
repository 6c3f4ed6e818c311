package logger

import "context"

// Logger 日志接口，业务模块只依赖此接口
type Logger interface {
	Debug(msg string, keysAndValues ...interface{})
	Info(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})

	DebugContext(ctx context.Context, msg string, keysAndValues ...interface{})
	InfoContext(ctx context.Context, msg string, keysAndValues ...interface{})
	WarnContext(ctx context.Context, msg string, keysAndValues ...interface{})
	ErrorContext(ctx context.Context, msg string, keysAndValues ...interface{})

	Named(name string) Logger
	WithFields(keysAndValues ...interface{}) Logger

	Sync() error
}

var _ Logger = (*NoopLogger)(nil)

// NoopLogger 空日志记录器，用于测试或作为默认 Logger
type NoopLogger struct{}

// NewNoop 创建空日志记录器
func NewNoop() *NoopLogger {
	return &NoopLogger{}
}

func (l *NoopLogger) Debug(msg string, keysAndValues ...interface{}) {}
func (l *NoopLogger) Info(msg string, keysAndValues ...interface{})  {}
func (l *NoopLogger) Warn(msg string, keysAndValues ...interface{})  {}
func (l *NoopLogger) Error(msg string, keysAndValues ...interface{}) {}

func (l *NoopLogger) DebugContext(ctx context.Context, msg string, keysAndValues ...interface{}) {}
func (l *NoopLogger) InfoContext(ctx context.Context, msg string, keysAndValues ...interface{})  {}
func (l *NoopLogger) WarnContext(ctx context.Context, msg string, keysAndValues ...interface{})  {}
func (l *NoopLogger) ErrorContext(ctx context.Context, msg string, keysAndValues ...interface{}) {}

func (l *NoopLogger) Named(name string) Logger                       { return l }
func (l *NoopLogger) WithFields(keysAndValues ...interface{}) Logger { return l }
func (l *NoopLogger) Sync() error                                    { return nil }
