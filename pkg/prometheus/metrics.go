package prometheus

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

// NewCounter 创建并注册 CounterVec
func (c *Client) NewCounter(name, help string, labels []string) (*prometheus.CounterVec, error) {
	vec := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: c.config.Namespace,
		Subsystem: c.config.Subsystem,
		Name:      name,
		Help:      help,
	}, labels)
	if err := c.register(vec); err != nil {
		return nil, err
	}
	return vec, nil
}

// NewGauge 创建并注册 GaugeVec
func (c *Client) NewGauge(name, help string, labels []string) (*prometheus.GaugeVec, error) {
	vec := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: c.config.Namespace,
		Subsystem: c.config.Subsystem,
		Name:      name,
		Help:      help,
	}, labels)
	if err := c.register(vec); err != nil {
		return nil, err
	}
	return vec, nil
}

// NewHistogram 创建并注册 HistogramVec，buckets 为空时使用默认分桶
func (c *Client) NewHistogram(name, help string, labels []string, buckets []float64) (*prometheus.HistogramVec, error) {
	if len(buckets) == 0 {
		buckets = prometheus.DefBuckets
	}
	vec := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: c.config.Namespace,
		Subsystem: c.config.Subsystem,
		Name:      name,
		Help:      help,
		Buckets:   buckets,
	}, labels)
	if err := c.register(vec); err != nil {
		return nil, err
	}
	return vec, nil
}

func (c *Client) register(collector prometheus.Collector) error {
	if err := c.registry.Register(collector); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			return ErrMetricExists
		}
		return err
	}
	return nil
}
