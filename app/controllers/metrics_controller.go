package controllers

import (
	"github.com/aiflow/backend-go/internal/metrics"
	"github.com/beego/beego/v2/server/web"
)

// MetricsController 指标控制器
type MetricsController struct {
	web.Controller
	Collector *metrics.Collector
}

// Metrics 返回Prometheus格式的指标
func (c *MetricsController) Metrics() {
	c.EnableRender = false
	c.Collector.Handler().ServeHTTP(c.Ctx.ResponseWriter, c.Ctx.Request)
}
