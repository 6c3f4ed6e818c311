package prometheus

import "github.com/cockroachdb/errors"

var (
	// ErrInvalidConfig namespace 为空
	ErrInvalidConfig = errors.New("prometheus: invalid config")
	// ErrMetricExists 同名指标已在 Registry 中注册
	ErrMetricExists = errors.New("prometheus: metric already exists")
)
