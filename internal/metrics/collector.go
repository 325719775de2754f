package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// 运行状态标签
const (
	StatusSuccess = "success"
	StatusEmpty   = "empty"
	StatusError   = "error"
	StatusCached  = "cached"
)

// Collector 处理器指标收集器，每个实例使用独立的注册表
type Collector struct {
	registry *prometheus.Registry

	// Prometheus指标
	runsCounter       *prometheus.CounterVec
	durationHistogram *prometheus.HistogramVec
	fetchBytesCounter *prometheus.CounterVec
	errorsCounter     *prometheus.CounterVec
}

// NewCollector 创建指标收集器
func NewCollector() *Collector {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	factory := promauto.With(registry)
	return &Collector{
		registry: registry,
		runsCounter: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "processor_runs_total",
				Help: "Total number of processor runs",
			},
			[]string{"processor_type", "status"},
		),
		durationHistogram: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "processor_duration_seconds",
				Help:    "Duration of processor runs",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"processor_type"},
		),
		fetchBytesCounter: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "document_fetch_bytes_total",
				Help: "Total bytes of documents fetched",
			},
			[]string{"source"},
		),
		errorsCounter: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "app_errors_total",
				Help: "Total number of errors returned to clients",
			},
			[]string{"code", "type"},
		),
	}
}

// RecordRun 记录一次处理器运行
func (c *Collector) RecordRun(processorType, status string, duration time.Duration) {
	if c == nil {
		return
	}
	c.runsCounter.WithLabelValues(processorType, status).Inc()
	c.durationHistogram.WithLabelValues(processorType).Observe(duration.Seconds())
}

// ObserveFetch 记录下载的文档字节数
func (c *Collector) ObserveFetch(source string, bytes int) {
	if c == nil {
		return
	}
	c.fetchBytesCounter.WithLabelValues(source).Add(float64(bytes))
}

// RecordError 记录返回给客户端的错误
func (c *Collector) RecordError(code, errorType string) {
	if c == nil {
		return
	}
	c.errorsCounter.WithLabelValues(code, errorType).Inc()
}

// Registry 返回底层注册表
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler 返回Prometheus指标的HTTP处理器
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
