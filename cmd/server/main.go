package main

import (
	"log"

	"github.com/aiflow/backend-go/app/bootstrap"
	"github.com/aiflow/backend-go/app/router"
	"github.com/aiflow/backend-go/internal/di"
	"github.com/aiflow/backend-go/internal/logger"
	"github.com/beego/beego/v2/server/web"
	"go.uber.org/zap"
)

func main() {
	app, err := bootstrap.Init()
	if err != nil {
		log.Fatalf("failed to bootstrap application: %v", err)
	}
	defer app.Shutdown()

	if err := di.Invoke(router.Init); err != nil {
		log.Fatalf("failed to register routes: %v", err)
	}

	logger.Info("Starting processor backend",
		zap.String("app", app.Config.App.Name),
		zap.String("env", app.Config.App.Env),
		zap.Int("port", web.BConfig.Listen.HTTPPort),
	)
	web.Run()
}
