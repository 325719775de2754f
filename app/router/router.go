package router

import (
	"github.com/aiflow/backend-go/app/controllers"
	"github.com/aiflow/backend-go/app/middleware"
	"github.com/aiflow/backend-go/internal/auth"
	"github.com/aiflow/backend-go/internal/config"
	"github.com/aiflow/backend-go/internal/errors"
	"github.com/aiflow/backend-go/internal/metrics"
	"github.com/aiflow/backend-go/internal/services"
	"github.com/beego/beego/v2/server/web"
	"go.uber.org/dig"
	"go.uber.org/zap"
)

// Dependencies 路由需要的服务，由DI容器注入
type Dependencies struct {
	dig.In

	Config     *config.Config
	Processors *services.ProcessorService
	Templates  *services.TemplateService
	Errors     *errors.ErrorHandler
	Collector  *metrics.Collector
	JWT        *auth.JWTService `optional:"true"`
	Logger     *zap.Logger
}

// Init registers all filters and routes. Must be called after config is loaded.
func Init(deps Dependencies) {
	cfg := deps.Config

	// 处理器接口从请求体读取JSON
	web.BConfig.CopyRequestBody = true
	web.BConfig.WebConfig.AutoRender = false

	web.InsertFilter("/*", web.BeforeRouter, middleware.RequestIDFilter)
	web.InsertFilter("/*", web.BeforeRouter, middleware.CORSFilter(cfg.Server.CORSOrigins))
	web.InsertFilter("/*", web.BeforeRouter, middleware.SecurityHeaders)

	limiter := middleware.NewRateLimiter(cfg.Server.RateLimit.Requests, cfg.Server.RateLimit.Window)
	web.InsertFilter("/api/processors/*", web.BeforeRouter, middleware.RateLimitFilter(limiter, deps.Errors))
	web.InsertFilter("/api/processors/*", web.BeforeRouter,
		middleware.AuthFilter(deps.JWT, cfg.Auth.Enabled, deps.Errors, deps.Logger.Named("auth")))

	base := controllers.BaseController{Errors: deps.Errors}

	web.Router("/health", &controllers.HealthController{BaseController: base, AppName: cfg.App.Name}, "get:Health")

	nodeConfigController := &controllers.NodeConfigController{BaseController: base, Service: deps.Processors}
	web.Router("/api/node/configs", nodeConfigController, "get:List")
	web.Router("/api/node/configs/:processor_type", nodeConfigController, "get:Get")

	processorController := &controllers.ProcessorController{
		BaseController: base,
		Service:        deps.Processors,
		Logger:         deps.Logger.Named("processors"),
	}
	web.Router("/api/processors/:processor_type/process", processorController, "post:Process")

	templateController := &controllers.TemplateController{BaseController: base, Service: deps.Templates}
	web.Router("/api/templates", templateController, "get:List")
	web.Router("/api/templates/:id", templateController, "get:Get")
	web.Router("/template/:id", templateController, "get:Flow")

	if cfg.Metrics.Enabled {
		web.Router(cfg.Metrics.Path, &controllers.MetricsController{Collector: deps.Collector}, "get:Metrics")
	}
}
