package postgres

import "errors"

var (
	ErrNilConfig     = errors.New("postgres: config is nil")
	ErrInvalidConfig = errors.New("postgres: invalid config")
	// ErrNoRows 没有查询到数据
	ErrNoRows = errors.New("postgres: no rows in result set")
)
