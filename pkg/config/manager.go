package config

import (
	"fmt"
	"strings"
	"sync"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

// Manager 分层配置：环境变量 > 配置文件 > 默认值
type Manager interface {
	// LoadFile 读取配置文件，格式由扩展名决定
	LoadFile(path string) error
	// BindEnv 开启环境变量覆盖，键 a.b 对应 PREFIX_A_B
	BindEnv(prefix string)
	// BindEnvAliases 为配置键绑定不符合上述规则的环境变量名
	BindEnvAliases(aliases map[string]string) error
	SetDefault(key string, value any)
	Unmarshal(v any) error
	UnmarshalKey(key string, v any) error
	IsSet(key string) bool
}

type manager struct {
	mu    sync.RWMutex
	v     *viper.Viper
	hooks []mapstructure.DecodeHookFunc
}

// NewManager 创建 Manager，内置逗号列表与时长的解码钩子
func NewManager(opts ...Option) Manager {
	m := &manager{
		v: viper.New(),
		hooks: []mapstructure.DecodeHookFunc{
			StringToInt64SliceHookFunc(","),
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *manager) LoadFile(path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.v.SetConfigFile(path)
	if err := m.v.ReadInConfig(); err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	return nil
}

// BindEnv 只有设置过默认值或出现在配置文件中的键才会被环境变量覆盖
func (m *manager) BindEnv(prefix string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if prefix != "" {
		m.v.SetEnvPrefix(prefix)
	}
	m.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	m.v.AutomaticEnv()
}

func (m *manager) BindEnvAliases(aliases map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for key, env := range aliases {
		if err := m.v.BindEnv(key, env); err != nil {
			return fmt.Errorf("bind env %s to %s: %w", env, key, err)
		}
	}
	return nil
}

func (m *manager) SetDefault(key string, value any) {
	m.mu.Lock()
	m.v.SetDefault(key, value)
	m.mu.Unlock()
}

func (m *manager) Unmarshal(v any) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if err := m.v.Unmarshal(v, m.decodeHook()); err != nil {
		return fmt.Errorf("unmarshal config: %w", err)
	}
	return nil
}

func (m *manager) UnmarshalKey(key string, v any) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if err := m.v.UnmarshalKey(key, v, m.decodeHook()); err != nil {
		return fmt.Errorf("unmarshal %s: %w", key, err)
	}
	return nil
}

func (m *manager) IsSet(key string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.v.IsSet(key)
}

func (m *manager) decodeHook() viper.DecoderConfigOption {
	return viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(m.hooks...))
}
