package sentry

import "github.com/cockroachdb/errors"

var (
	// ErrInvalidConfig 无效配置
	ErrInvalidConfig = errors.New("sentry: invalid config")

	// ErrInvalidDSN 无效的 DSN
	ErrInvalidDSN = errors.New("sentry: invalid DSN")

	// ErrNilConfig 配置为空
	ErrNilConfig = errors.New("sentry: nil config")
)
