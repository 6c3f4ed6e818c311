package web

import (
	"time"

	"github.com/gin-gonic/gin"
)

// Config Web 服务配置
type Config struct {
	// Addr 监听地址，如 ":8080"；端口为 0 时由系统分配
	Addr            string        `mapstructure:"addr"`
	Mode            string        `mapstructure:"mode"` // debug, release, test
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	EnableCORS      bool          `mapstructure:"enable_cors"`
	// CORSOrigins 允许的来源，为空时放行所有来源
	CORSOrigins []string `mapstructure:"cors_origins"`
}

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		Addr:            ":8080",
		Mode:            gin.ReleaseMode,
		ReadTimeout:     15 * time.Second,
		WriteTimeout:    15 * time.Second,
		ShutdownTimeout: 5 * time.Second,
	}
}
