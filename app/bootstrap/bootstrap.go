package bootstrap

import (
	"log"

	"github.com/aiflow/backend-go/internal/cache"
	"github.com/aiflow/backend-go/internal/config"
	"github.com/aiflow/backend-go/internal/di"
	"github.com/aiflow/backend-go/internal/fetch"
	"github.com/aiflow/backend-go/internal/loaders"
	"github.com/aiflow/backend-go/internal/logger"
	"github.com/beego/beego/v2/server/web"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// App encapsulates lifecycle resources that need to be cleaned up on shutdown.
type App struct {
	Config       *config.Config
	cleanupTasks []func() error
}

// Init bootstraps configuration, logger and the dependency container
// required by the Beego application.
func Init() (*App, error) {
	// Load environment variables from .env if present (non-fatal if missing).
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	loader := config.NewConfigLoader()
	cfg, err := loader.Load()
	if err != nil {
		return nil, err
	}
	config.Set(cfg)

	// Initialize structured logger.
	if err := logger.InitLogger(cfg.App.Env); err != nil {
		return nil, err
	}

	if err := loaders.SetLicenseKey(cfg.Processor.LicenseKey); err != nil {
		logger.Warn("Failed to set document parser license, PDF and Office parsing may fail", zap.Error(err))
	}

	if _, err := di.InitContainer(cfg); err != nil {
		return nil, err
	}

	app := &App{Config: cfg}
	if err := di.Invoke(func(textCache *cache.TextCache) {
		app.cleanupTasks = append(app.cleanupTasks, textCache.Close)
	}); err != nil {
		return nil, err
	}

	// 配置文件变化时更新下载限制
	if err := di.Invoke(func(httpFetcher *fetch.HTTPFetcher, s3 *fetch.S3Source) {
		loader.Watch(func(newCfg *config.Config) {
			httpFetcher.SetLimits(newCfg.Processor)
			if s3 != nil {
				s3.SetLimits(newCfg.Processor)
			}
			logger.Info("Configuration reloaded", zap.Int("max_file_size_mb", newCfg.Processor.MaxFileSizeMB))
		})
	}); err != nil {
		return nil, err
	}

	configureWeb(cfg)
	return app, nil
}

// configureWeb 把配置同步到beego全局设置
func configureWeb(cfg *config.Config) {
	web.BConfig.AppName = cfg.App.Name
	web.BConfig.Listen.HTTPPort = cfg.Server.Port
	web.BConfig.CopyRequestBody = true

	web.BConfig.RunMode = web.PROD
	if cfg.App.Env == "development" {
		web.BConfig.RunMode = web.DEV
	}

	web.BConfig.WebConfig.Session.SessionOn = cfg.Server.SessionOn
	web.BConfig.WebConfig.Session.SessionName = "aiflow_session"
}

// Shutdown flushes/logs and closes resources gracefully.
func (a *App) Shutdown() {
	// Execute cleanup tasks in reverse order (best effort).
	for i := len(a.cleanupTasks) - 1; i >= 0; i-- {
		if err := a.cleanupTasks[i](); err != nil {
			logger.Warn("Cleanup error", zap.Error(err))
		}
	}

	// Flush logger buffers.
	logger.Sync()
}
