// Package idgen 提供历史记录与审计日志使用的 ID 生成器
package idgen

import (
	"sync/atomic"

	"github.com/cockroachdb/errors"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Generator 数值 ID 生成器
type Generator interface {
	NextID() (int64, error)
}

// StringGenerator 字符串 ID 生成器
type StringGenerator interface {
	NextString() (string, error)
}

// 审计 ID 使用的字母表，避免易混淆字符
const nanoAlphabet = "0123456789abcdefghjkmnpqrstvwxyz"

type nanoGenerator struct {
	size int
}

// NewNanoID 创建 nanoid 生成器，size <= 0 时使用 16
func NewNanoID(size int) StringGenerator {
	if size <= 0 {
		size = 16
	}
	return &nanoGenerator{size: size}
}

func (g *nanoGenerator) NextString() (string, error) {
	id, err := gonanoid.Generate(nanoAlphabet, g.size)
	if err != nil {
		return "", errors.Wrap(err, "failed to generate nanoid")
	}
	return id, nil
}

// Sequence 单进程自增生成器，用于内存存储与测试
type Sequence struct {
	n atomic.Int64
}

// NewSequence 创建从 start+1 开始的自增生成器
func NewSequence(start int64) *Sequence {
	s := &Sequence{}
	s.n.Store(start)
	return s
}

func (s *Sequence) NextID() (int64, error) {
	return s.n.Add(1), nil
}
