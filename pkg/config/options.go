package config

import "github.com/go-viper/mapstructure/v2"

// Option 调整 Manager
type Option func(*manager)

// WithDefaults 批量设置默认值
func WithDefaults(defaults map[string]any) Option {
	return func(m *manager) {
		for k, v := range defaults {
			m.v.SetDefault(k, v)
		}
	}
}

// WithDecodeHooks 追加解码钩子，先于内置钩子执行
func WithDecodeHooks(hooks ...mapstructure.DecodeHookFunc) Option {
	return func(m *manager) {
		m.hooks = append(hooks, m.hooks...)
	}
}
