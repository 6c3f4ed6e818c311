package service

import (
	crand "crypto/rand"
	"encoding/binary"
	"math/rand/v2"
	"sync"
)

// RandomSource 返回 [0, 1) 的随机数，实现需并发安全
type RandomSource interface {
	Float64() float64
}

type cryptoSource struct{}

// NewCryptoSource 基于 crypto/rand 的随机源
func NewCryptoSource() RandomSource { return cryptoSource{} }

func (cryptoSource) Float64() float64 {
	var buf [8]byte
	if _, err := crand.Read(buf[:]); err != nil {
		return rand.Float64()
	}
	return float64(binary.BigEndian.Uint64(buf[:])>>11) / (1 << 53)
}

type seededSource struct {
	mu sync.Mutex
	r  *rand.Rand
}

// NewSeededSource 固定种子的 PCG 随机源，相同种子产生相同序列
func NewSeededSource(seed uint64) RandomSource {
	return &seededSource{r: rand.New(rand.NewPCG(seed, 0))}
}

func (s *seededSource) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.r.Float64()
}

// NewRandomSource seed 为 nil 时使用 crypto 随机源
func NewRandomSource(seed *uint64) RandomSource {
	if seed == nil {
		return NewCryptoSource()
	}
	return NewSeededSource(*seed)
}
