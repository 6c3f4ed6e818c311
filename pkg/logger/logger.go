package logger

import (
	"context"
	"fmt"
	"os"

	"github.com/lk2023060901/cardforge/pkg/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var _ Logger = (*BaseLogger)(nil)

// BaseLogger 基于 zap 的日志记录器实现
type BaseLogger struct {
	*zap.Logger
	config           *Config
	name             string
	globalFields     map[string]interface{}
	hooks            []Hook
	contextExtractor ContextFieldExtractor
}

// New 创建新的 BaseLogger，cfg 只需要填写需要覆盖默认值的字段
func New(cfg *Config, opts ...Option) (*BaseLogger, error) {
	merged, err := config.MergeConfig(DefaultConfig(), cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to merge config: %w", err)
	}
	if err := merged.Validate(); err != nil {
		return nil, err
	}

	l := &BaseLogger{
		config:           merged,
		globalFields:     make(map[string]interface{}),
		contextExtractor: DefaultContextExtractor,
	}
	if len(merged.SensitiveKeys) > 0 {
		l.hooks = append(l.hooks, SensitiveDataHook(merged.SensitiveKeys))
	}
	for _, opt := range opts {
		opt(l)
	}
	for k, v := range merged.GlobalFields {
		l.globalFields[k] = v
	}

	zl, err := l.build()
	if err != nil {
		return nil, err
	}
	l.Logger = zl
	return l, nil
}

func (l *BaseLogger) build() (*zap.Logger, error) {
	encoderConfig := l.buildEncoderConfig()

	var encoder zapcore.Encoder
	if l.config.Format == ConsoleFormat {
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	} else {
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	}

	writers := make([]zapcore.WriteSyncer, 0, 2)
	if l.config.EnableConsole {
		writers = append(writers, zapcore.AddSync(os.Stdout))
	}
	if l.config.EnableFile {
		fileWriter, err := NewRotationWriter(&l.config.Rotation, l.config.OutputPath)
		if err != nil {
			return nil, fmt.Errorf("failed to create rotation writer: %w", err)
		}
		writers = append(writers, zapcore.AddSync(fileWriter))
	}

	core := zapcore.NewCore(encoder, zapcore.NewMultiWriteSyncer(writers...), parseLevel(l.config.Level))
	if len(l.hooks) > 0 {
		core = NewHookedCore(core, l.hooks...)
	}
	if l.config.EnableSampling {
		core = zapcore.NewSamplerWithOptions(core, 1, l.config.SamplingInitial, l.config.SamplingThereafter)
	}

	options := []zap.Option{zap.AddCaller(), zap.AddCallerSkip(1)}
	if l.config.EnableStacktrace {
		options = append(options, zap.AddStacktrace(parseLevel(l.config.StacktraceLevel)))
	}
	if l.config.Development {
		options = append(options, zap.Development())
	}

	zl := zap.New(core, options...)
	if len(l.globalFields) > 0 {
		fields := make([]zap.Field, 0, len(l.globalFields))
		for k, v := range l.globalFields {
			fields = append(fields, zap.Any(k, v))
		}
		zl = zl.With(fields...)
	}
	if l.name != "" {
		zl = zl.Named(l.name)
	}
	return zl, nil
}

func (l *BaseLogger) buildEncoderConfig() zapcore.EncoderConfig {
	ec := zapcore.EncoderConfig{
		MessageKey:     "msg",
		LevelKey:       "level",
		TimeKey:        "time",
		NameKey:        "logger",
		CallerKey:      "caller",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeDuration: zapcore.SecondsDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
	}
	if l.config.TimeFormat != "" {
		ec.EncodeTime = zapcore.TimeEncoderOfLayout(l.config.TimeFormat)
	}
	if l.config.Development {
		ec.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	return ec
}

func parseLevel(level Level) zapcore.Level {
	lvl, err := zapcore.ParseLevel(string(level))
	if err != nil {
		return zapcore.InfoLevel
	}
	return lvl
}

func (l *BaseLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.Logger.Debug(msg, toZapFields(keysAndValues)...)
}

func (l *BaseLogger) Info(msg string, keysAndValues ...interface{}) {
	l.Logger.Info(msg, toZapFields(keysAndValues)...)
}

func (l *BaseLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.Logger.Warn(msg, toZapFields(keysAndValues)...)
}

func (l *BaseLogger) Error(msg string, keysAndValues ...interface{}) {
	l.Logger.Error(msg, toZapFields(keysAndValues)...)
}

func (l *BaseLogger) DebugContext(ctx context.Context, msg string, keysAndValues ...interface{}) {
	l.Logger.Debug(msg, l.contextFields(ctx, keysAndValues)...)
}

func (l *BaseLogger) InfoContext(ctx context.Context, msg string, keysAndValues ...interface{}) {
	l.Logger.Info(msg, l.contextFields(ctx, keysAndValues)...)
}

func (l *BaseLogger) WarnContext(ctx context.Context, msg string, keysAndValues ...interface{}) {
	l.Logger.Warn(msg, l.contextFields(ctx, keysAndValues)...)
}

func (l *BaseLogger) ErrorContext(ctx context.Context, msg string, keysAndValues ...interface{}) {
	l.Logger.Error(msg, l.contextFields(ctx, keysAndValues)...)
}

func (l *BaseLogger) contextFields(ctx context.Context, keysAndValues []interface{}) []zap.Field {
	return append(l.contextExtractor(ctx), toZapFields(keysAndValues)...)
}

// Named 创建具名 logger，名称以 "." 级联
func (l *BaseLogger) Named(name string) Logger {
	return l.derive(l.Logger.Named(name), name)
}

// WithFields 添加字段
func (l *BaseLogger) WithFields(keysAndValues ...interface{}) Logger {
	fields := toZapFields(keysAndValues)
	if len(fields) == 0 {
		return l
	}
	return l.derive(l.Logger.With(fields...), l.name)
}

func (l *BaseLogger) derive(zl *zap.Logger, name string) *BaseLogger {
	return &BaseLogger{
		Logger:           zl,
		config:           l.config,
		name:             name,
		globalFields:     l.globalFields,
		hooks:            l.hooks,
		contextExtractor: l.contextExtractor,
	}
}

func (l *BaseLogger) Sync() error {
	return l.Logger.Sync()
}

// toZapFields 将 key-value 对（或 zap.Field 列表）转换为 zap.Field
func toZapFields(keysAndValues []interface{}) []zap.Field {
	if len(keysAndValues) == 0 {
		return nil
	}

	if _, ok := keysAndValues[0].(zap.Field); ok {
		fields := make([]zap.Field, 0, len(keysAndValues))
		for _, v := range keysAndValues {
			if f, ok := v.(zap.Field); ok {
				fields = append(fields, f)
			}
		}
		return fields
	}

	fields := make([]zap.Field, 0, len(keysAndValues)/2+1)
	for i := 0; i < len(keysAndValues); i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			continue
		}
		if i+1 >= len(keysAndValues) {
			fields = append(fields, zap.Any(key, "(MISSING)"))
			break
		}
		if err, ok := keysAndValues[i+1].(error); ok {
			fields = append(fields, zap.NamedError(key, err))
			continue
		}
		fields = append(fields, zap.Any(key, keysAndValues[i+1]))
	}
	return fields
}
