package di

import (
	"context"

	"github.com/aiflow/backend-go/internal/auth"
	"github.com/aiflow/backend-go/internal/cache"
	"github.com/aiflow/backend-go/internal/config"
	"github.com/aiflow/backend-go/internal/errors"
	"github.com/aiflow/backend-go/internal/fetch"
	"github.com/aiflow/backend-go/internal/logger"
	"github.com/aiflow/backend-go/internal/metrics"
	"github.com/aiflow/backend-go/internal/processors"
	"github.com/aiflow/backend-go/internal/processors/extension"
	"github.com/aiflow/backend-go/internal/services"
	"go.uber.org/dig"
	"go.uber.org/zap"
)

// registryParams 创建处理器注册表所需的依赖
type registryParams struct {
	dig.In

	Config    *config.Config
	HTTP      *fetch.HTTPFetcher
	S3        *fetch.S3Source `optional:"true"`
	Collector *metrics.Collector
	Logger    *zap.Logger
}

// RegisterProviders 注册所有依赖提供者
func RegisterProviders(container *dig.Container, cfg *config.Config) error {
	providers := []interface{}{
		func() *config.Config { return cfg },
		func() *zap.Logger { return logger.GetLogger() },
		metrics.NewCollector,
		func(cfg *config.Config) *fetch.HTTPFetcher {
			return fetch.NewHTTPFetcher(cfg.Processor)
		},
		newS3Source,
		newTextCache,
		newRegistry,
		newProcessorService,
		func(cfg *config.Config, log *zap.Logger) *services.TemplateService {
			return services.NewTemplateService(cfg.Templates.Dir, log.Named("templates"))
		},
		func(log *zap.Logger, collector *metrics.Collector) *errors.ErrorHandler {
			return errors.NewErrorHandler(log.Named("http")).WithRecorder(collector)
		},
		newJWTService,
	}

	for _, provider := range providers {
		if err := container.Provide(provider); err != nil {
			return err
		}
	}
	return nil
}

// newJWTService 未配置密钥时返回nil，此时只接受会话中的用户
func newJWTService(cfg *config.Config) (*auth.JWTService, error) {
	if cfg.Auth.JWTSecret == "" {
		return nil, nil
	}
	return auth.NewJWTService(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.TokenTTL)
}

// newS3Source 未启用S3时返回nil，S3地址改为通过HTTP下载
func newS3Source(cfg *config.Config, log *zap.Logger) (*fetch.S3Source, error) {
	if !cfg.Storage.S3.Enabled {
		return nil, nil
	}
	source, err := fetch.NewS3Source(cfg.Storage.S3, cfg.Processor)
	if err != nil {
		return nil, err
	}
	log.Info("S3 document source configured", zap.String("endpoint", source.Endpoint()))
	return source, nil
}

// newTextCache Redis不可用时降级为不缓存
func newTextCache(cfg *config.Config, log *zap.Logger) *cache.TextCache {
	if !cfg.Cache.Enabled {
		return cache.NewTextCache(nil, cfg.Cache.TTL)
	}

	client, err := cache.NewRedisClient(context.Background(), cfg.Cache)
	if err != nil {
		log.Warn("Redis unavailable, processor cache disabled", zap.String("addr", cfg.Cache.Addr()), zap.Error(err))
		return cache.NewTextCache(nil, cfg.Cache.TTL)
	}
	log.Info("Redis connected", zap.String("addr", cfg.Cache.Addr()))
	return cache.NewTextCache(client, cfg.Cache.TTL)
}

func newRegistry(p registryParams) (*processors.Registry, error) {
	env := extension.Environment{
		HTTP:       p.HTTP,
		S3Endpoint: p.Config.Storage.S3.Endpoint,
		Limits:     func() config.ProcessorConfig { return config.Get().Processor },
		Logger:     p.Logger.Named("document-to-text"),
		Observer:   p.Collector,
	}
	// 避免把nil指针放进接口
	if p.S3 != nil {
		env.S3 = p.S3
	}

	registry := processors.NewRegistry()
	if err := extension.RegisterAll(registry, env); err != nil {
		return nil, err
	}
	return registry, nil
}

func newProcessorService(
	registry *processors.Registry,
	textCache *cache.TextCache,
	collector *metrics.Collector,
	log *zap.Logger,
) *services.ProcessorService {
	envKeys := func() map[string]string { return config.Get().APIKeys }
	return services.NewProcessorService(registry, textCache, collector, envKeys, log.Named("processors"))
}
