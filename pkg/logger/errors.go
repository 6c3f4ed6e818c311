package logger

import "github.com/cockroachdb/errors"

var (
	// ErrInvalidOutputPath 开启文件输出但未配置路径
	ErrInvalidOutputPath = errors.New("output path is required when file output is enabled")
	// ErrNoOutputEnabled 控制台与文件输出都被关闭
	ErrNoOutputEnabled = errors.New("at least one output (console or file) must be enabled")
)
