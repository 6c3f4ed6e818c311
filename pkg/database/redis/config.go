package redis

import "time"

// Config Redis 配置。Addrs 只有一个地址时为单机模式，多个地址时为集群模式
type Config struct {
	Addrs    []string `mapstructure:"addrs"`
	Password string   `mapstructure:"password"`
	DB       int      `mapstructure:"db"`

	// KeyPrefix 所有锁键的前缀，便于多个部署共用一个实例
	KeyPrefix string `mapstructure:"key_prefix"`

	Pool PoolConfig `mapstructure:"pool"`
}

// PoolConfig 连接池配置
type PoolConfig struct {
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	MaxActiveConns  int           `mapstructure:"max_active_conns"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	DialTimeout     time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
}

// DefaultConfig 默认配置
func DefaultConfig() *Config {
	return &Config{
		Addrs:     []string{"127.0.0.1:6379"},
		KeyPrefix: "cardforge:",
		Pool: PoolConfig{
			MaxIdleConns:    10,
			MaxActiveConns:  50,
			ConnMaxIdleTime: 5 * time.Minute,
			DialTimeout:     5 * time.Second,
			ReadTimeout:     3 * time.Second,
			WriteTimeout:    3 * time.Second,
		},
	}
}

// Validate 验证配置
func (c *Config) Validate() error {
	if c == nil {
		return ErrNilConfig
	}
	if len(c.Addrs) == 0 {
		return ErrInvalidConfig
	}
	if len(c.Addrs) > 1 && c.DB != 0 {
		return ErrInvalidConfig
	}
	return nil
}
