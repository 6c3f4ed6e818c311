package prometheus

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Client 每个实例持有独立的 Registry，同一进程可以创建多个互不干扰的客户端
type Client struct {
	config   *Config
	registry *prometheus.Registry
}

// New 创建 Prometheus 客户端，cfg 为 nil 时使用默认配置
func New(cfg *Config) (*Client, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	reg := prometheus.NewRegistry()
	var runtime []prometheus.Collector
	if cfg.EnableGoCollector {
		runtime = append(runtime, collectors.NewGoCollector())
	}
	if cfg.EnableProcessCollector {
		runtime = append(runtime, collectors.NewProcessCollector(collectors.ProcessCollectorOpts{Namespace: cfg.Namespace}))
	}
	reg.MustRegister(runtime...)

	return &Client{config: cfg, registry: reg}, nil
}

// Registry 业务指标注册到这里
func (c *Client) Registry() *prometheus.Registry {
	return c.registry
}

// Config 获取配置
func (c *Client) Config() *Config {
	return c.config
}

// Handler 暴露本客户端 Registry 中的指标，采集出错时继续输出其余指标
func (c *Client) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
		ErrorHandling:     promhttp.ContinueOnError,
		Registry:          c.registry,
	})
}
