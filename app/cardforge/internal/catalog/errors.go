package catalog

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
)

var (
	// ErrDuplicateKey 重复注册卡牌、卡包或货币
	ErrDuplicateKey = errors.New("duplicate key")
	// ErrNotFound 卡牌、卡包或货币不存在
	ErrNotFound = errors.New("not found")
)

// ValidationError 目录校验失败，携带全部错误信息
type ValidationError struct {
	Messages []string
}

func (e *ValidationError) Error() string {
	var b strings.Builder
	b.WriteString("Catalog validation failed:")
	for _, m := range e.Messages {
		b.WriteString("\n- ")
		b.WriteString(m)
	}
	return b.String()
}

// lookupError 保留原始消息，errors.Is 匹配 ErrDuplicateKey 或 ErrNotFound
type lookupError struct {
	kind error
	msg  string
}

func (e *lookupError) Error() string { return e.msg }

func (e *lookupError) Is(target error) bool { return target == e.kind }

func duplicate(format string, args ...any) error {
	return &lookupError{kind: ErrDuplicateKey, msg: fmt.Sprintf(format, args...)}
}

func notFound(format string, args ...any) error {
	return &lookupError{kind: ErrNotFound, msg: fmt.Sprintf(format, args...)}
}
