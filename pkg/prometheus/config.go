package prometheus

// Config Prometheus 配置
type Config struct {
	// 命名空间（应用名称）
	Namespace string `mapstructure:"namespace"`
	Subsystem string `mapstructure:"subsystem"`
	// Path 指标暴露路径，挂载在 HTTP 服务上
	Path                   string `mapstructure:"path"`
	EnableGoCollector      bool   `mapstructure:"enable_go_collector"`
	EnableProcessCollector bool   `mapstructure:"enable_process_collector"`
}

// DefaultConfig 默认配置
func DefaultConfig() *Config {
	return &Config{
		Namespace:              "cardforge",
		Path:                   "/metrics",
		EnableGoCollector:      true,
		EnableProcessCollector: true,
	}
}

// Validate 验证配置
func (c *Config) Validate() error {
	if c.Namespace == "" {
		return ErrInvalidConfig
	}
	if c.Path == "" {
		c.Path = "/metrics"
	}
	return nil
}
