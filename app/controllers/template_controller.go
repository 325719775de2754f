package controllers

import (
	"github.com/aiflow/backend-go/internal/services"
)

// TemplateController 流程模板
type TemplateController struct {
	BaseController
	Service *services.TemplateService
}

// List GET /api/templates?tag=
func (c *TemplateController) List() {
	templates, err := c.Service.List(c.GetString("tag"))
	if err != nil {
		c.HandleError(err)
		return
	}
	c.JSONSuccess(templates)
}

// Get GET /api/templates/:id
func (c *TemplateController) Get() {
	template, err := c.Service.Get(c.Ctx.Input.Param(":id"))
	if err != nil {
		c.HandleError(err)
		return
	}
	c.JSONSuccess(template)
}

// Flow GET /template/:id，编辑器导入模板时直接读取流程JSON，不带响应包装
func (c *TemplateController) Flow() {
	template, err := c.Service.Get(c.Ctx.Input.Param(":id"))
	if err != nil {
		c.HandleError(err)
		return
	}
	c.Ctx.Output.Header("Content-Type", "application/json; charset=utf-8")
	_ = c.Ctx.Output.Body(template.Flow)
}
