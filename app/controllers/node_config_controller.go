package controllers

import (
	"github.com/aiflow/backend-go/internal/services"
)

// NodeConfigController 返回编辑器渲染节点所需的界面配置
type NodeConfigController struct {
	BaseController
	Service *services.ProcessorService
}

// List GET /api/node/configs
func (c *NodeConfigController) List() {
	c.JSONSuccess(c.Service.NodeConfigs())
}

// Get GET /api/node/configs/:processor_type
func (c *NodeConfigController) Get() {
	cfg, err := c.Service.NodeConfig(c.Ctx.Input.Param(":processor_type"))
	if err != nil {
		c.HandleError(err)
		return
	}
	c.JSONSuccess(cfg)
}
