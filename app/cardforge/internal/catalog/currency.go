package catalog

import (
	"strings"
	"sync"

	"github.com/lk2023060901/cardforge/app/cardforge/internal/model"
)

// CurrencyRegistry 已配置的货币
type CurrencyRegistry struct {
	mu    sync.RWMutex
	byKey map[string]model.Currency
	order []string
}

// NewCurrencyRegistry 创建货币注册表
func NewCurrencyRegistry() *CurrencyRegistry {
	return &CurrencyRegistry{byKey: make(map[string]model.Currency)}
}

// Register 注册货币
func (r *CurrencyRegistry) Register(c model.Currency) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byKey[c.Code]; ok {
		return duplicate("Currency %s already registered", c.Code)
	}
	r.byKey[c.Code] = c
	r.order = append(r.order, c.Code)
	return nil
}

// Get 查询货币
func (r *CurrencyRegistry) Get(code string) (model.Currency, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.byKey[code]
	if !ok {
		return model.Currency{}, notFound("Currency %s is not configured", code)
	}
	return c, nil
}

// Has 是否已注册
func (r *CurrencyRegistry) Has(code string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.byKey[code]
	return ok
}

// EnsureCodes 检查所有代码均已注册，返回第一个缺失项的错误
func (r *CurrencyRegistry) EnsureCodes(codes ...string) error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, code := range codes {
		if _, ok := r.byKey[code]; !ok {
			return notFound("Currency %s is not configured", code)
		}
	}
	return nil
}

// All 按注册顺序返回全部货币
func (r *CurrencyRegistry) All() []model.Currency {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]model.Currency, 0, len(r.order))
	for _, code := range r.order {
		out = append(out, r.byKey[code])
	}
	return out
}

// DefaultCurrency 启动时按代码注册的默认货币，显示名由代码推导
func DefaultCurrency(code string) model.Currency {
	return model.Currency{Code: code, Name: titleCase(code)}
}

// RegisterDefaults 注册默认货币，已存在的代码跳过
func (r *CurrencyRegistry) RegisterDefaults(codes ...string) {
	for _, code := range codes {
		if code = strings.TrimSpace(code); code != "" && !r.Has(code) {
			_ = r.Register(DefaultCurrency(code))
		}
	}
}
