package app

import (
	"fmt"
	"os"

	"github.com/lk2023060901/cardforge/pkg/config"
)

// LoadOptions 统一加载配置所需的参数
type LoadOptions struct {
	// ConfigPath 可选的配置文件，为空时读取 <EnvPrefix>_CONFIG
	ConfigPath string
	EnvPrefix  string
	// EnvAliases 配置键 -> 完整环境变量名，用于兼容扁平命名
	EnvAliases map[string]string
	Defaults   map[string]any
	// DotEnvFiles 需要预先加载的 .env 文件，不存在时跳过
	DotEnvFiles []string
}

// LoadConfig 按优先级加载配置：环境变量 > 配置文件 > 默认值，返回底层 Manager 以便调用方读取原始值
func LoadConfig(target any, lo LoadOptions, opts ...config.Option) (config.Manager, error) {
	if err := config.LoadDotEnv(lo.DotEnvFiles...); err != nil {
		return nil, err
	}

	mgr := config.NewManager(append([]config.Option{config.WithDefaults(lo.Defaults)}, opts...)...)
	mgr.BindEnv(lo.EnvPrefix)
	if err := mgr.BindEnvAliases(lo.EnvAliases); err != nil {
		return nil, err
	}

	path := lo.ConfigPath
	if path == "" && lo.EnvPrefix != "" {
		path = os.Getenv(lo.EnvPrefix + "_CONFIG")
	}
	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("config file not found at %s: %w", path, err)
		}
		if err := mgr.LoadFile(path); err != nil {
			return nil, err
		}
	}

	if err := mgr.Unmarshal(target); err != nil {
		return nil, err
	}
	return mgr, nil
}
