package config

import "github.com/cockroachdb/errors"

var (
	// ErrValidationFailed 配置校验未通过
	ErrValidationFailed = errors.New("config validation failed")
	// ErrNilConfig 传入的配置为 nil
	ErrNilConfig = errors.New("config cannot be nil")
)
