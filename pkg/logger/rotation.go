package logger

import (
	"io"
	"time"

	rotatelogs "github.com/lestrrat-go/file-rotatelogs"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	defaultRotationTime   = 24 * time.Hour
	defaultRotationMaxAge = 7 * 24 * time.Hour
	defaultRotationSuffix = ".%Y%m%d"
)

// NewRotationWriter 按 cfg.Type 选择 lumberjack（按大小）或 rotatelogs（按时间）
func NewRotationWriter(cfg *RotationConfig, path string) (io.Writer, error) {
	if cfg.Type != RotationByTime {
		return &lumberjack.Logger{
			Filename:   path,
			MaxSize:    cfg.MaxSize,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAge,
			Compress:   cfg.Compress,
			LocalTime:  true,
		}, nil
	}

	suffix := cfg.RotationPattern
	if suffix == "" {
		suffix = defaultRotationSuffix
	}
	// path 始终指向当前文件
	return rotatelogs.New(path+suffix,
		rotatelogs.WithLinkName(path),
		rotatelogs.WithRotationTime(durationOr(cfg.RotationTime, defaultRotationTime)),
		rotatelogs.WithMaxAge(durationOr(cfg.MaxAgeTime, defaultRotationMaxAge)),
	)
}

func durationOr(raw string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
