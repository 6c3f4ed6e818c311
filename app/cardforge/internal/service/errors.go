package service

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// 业务错误
var (
	ErrCooldownActive       = errors.New("cooldown active")
	ErrNoCardsAvailable     = errors.New("no cards available")
	ErrPlayerBanned         = errors.New("player banned")
	ErrInsufficientCurrency = errors.New("insufficient currency")
	ErrInvalidAmount        = errors.New("invalid amount")
	ErrUnknownCurrency      = errors.New("unknown currency")
)

// CooldownActiveError 冷却中，携带剩余秒数
type CooldownActiveError struct {
	SecondsRemaining int64
}

func (e *CooldownActiveError) Error() string {
	return fmt.Sprintf("Cooldown active for %d seconds", e.SecondsRemaining)
}

// Is 使 errors.Is(err, ErrCooldownActive) 成立
func (e *CooldownActiveError) Is(target error) bool {
	return target == ErrCooldownActive
}

// kindError 面向用户的业务错误，errors.Is 按所属哨兵匹配
type kindError struct {
	kind  error
	msg   string
	cause error
}

func (e *kindError) Error() string { return e.msg }

func (e *kindError) Is(target error) bool { return target == e.kind }

func (e *kindError) Unwrap() error { return e.cause }

func newKind(kind error, format string, args ...any) error {
	return &kindError{kind: kind, msg: fmt.Sprintf(format, args...)}
}

// asKind 保留 cause 的消息与错误链，同时归入 kind
func asKind(kind, cause error) error {
	return &kindError{kind: kind, msg: cause.Error(), cause: cause}
}
