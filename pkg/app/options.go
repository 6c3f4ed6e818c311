package app

import (
	"time"

	"github.com/google/uuid"
	"github.com/lk2023060901/cardforge/pkg/logger"
)

const defaultStopTimeout = 30 * time.Second

// Options BaseApp 的构造参数
type Options struct {
	// ID 实例标识，未设置时随机生成
	ID          string
	Name        string
	StopTimeout time.Duration
	Logger      logger.Logger
}

// Option 修改 Options
type Option func(*Options)

// DefaultOptions 返回默认参数
func DefaultOptions() Options {
	return Options{
		ID:          uuid.NewString(),
		Name:        AppName,
		StopTimeout: defaultStopTimeout,
		Logger:      logger.NewNoop(),
	}
}

// WithID 使用固定的实例标识，空串保持默认
func WithID(id string) Option {
	return func(o *Options) {
		if id != "" {
			o.ID = id
		}
	}
}

// WithName 设置应用名称，同时作为根日志器名称
func WithName(name string) Option {
	return func(o *Options) { o.Name = name }
}

// WithLogger 设置日志器，nil 被忽略
func WithLogger(l logger.Logger) Option {
	return func(o *Options) {
		if l != nil {
			o.Logger = l
		}
	}
}

// WithStopTimeout 设置停止服务的等待上限，非正值保持默认
func WithStopTimeout(d time.Duration) Option {
	return func(o *Options) {
		if d > 0 {
			o.StopTimeout = d
		}
	}
}
