package controllers

import (
	"github.com/aiflow/backend-go/internal/loaders"
)

// HealthController 健康检查控制器
type HealthController struct {
	BaseController
	AppName string
}

func (c *HealthController) Health() {
	c.JSONSuccess(map[string]interface{}{
		"status":          "healthy",
		"service":         c.AppName,
		"supported_types": loaders.SupportedMimeTypes(),
	})
}
