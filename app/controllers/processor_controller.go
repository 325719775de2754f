package controllers

import (
	"encoding/json"
	"fmt"

	"github.com/aiflow/backend-go/internal/constants"
	"github.com/aiflow/backend-go/internal/errors"
	"github.com/aiflow/backend-go/internal/services"
	"github.com/go-playground/validator/v10"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

var requestValidator = validator.New()

// processRequest 处理器执行请求
type processRequest struct {
	Name    string                 `json:"name" validate:"max=256"`
	Inputs  map[string]interface{} `json:"inputs"`
	Fields  map[string]interface{} `json:"fields"`
	APIKeys map[string]string      `json:"apiKeys" validate:"dive,keys,required,max=64,endkeys,max=512"`
}

// ProcessorController 执行单个处理器节点
type ProcessorController struct {
	BaseController
	Service *services.ProcessorService
	Logger  *zap.Logger
}

// Process POST /api/processors/:processor_type/process
func (c *ProcessorController) Process() {
	processorType := c.Ctx.Input.Param(":processor_type")

	req, err := c.parseRequest()
	if err != nil {
		c.HandleError(err)
		return
	}

	result, err := c.Service.Run(c.Ctx.Request.Context(), c.CurrentUserID(), processorType, services.RunRequest{
		Name:    req.Name,
		Inputs:  req.Inputs,
		Fields:  req.Fields,
		APIKeys: req.APIKeys,
	})
	if err != nil {
		c.HandleError(err)
		return
	}

	if c.Logger != nil {
		c.Logger.Debug("Processor request served",
			zap.String("processor_type", processorType),
			zap.String("ip", c.getClientIP()),
		)
	}
	c.JSONSuccess(result)
}

func (c *ProcessorController) parseRequest() (*processRequest, error) {
	body := c.Ctx.Input.RequestBody
	req := &processRequest{}
	if len(body) == 0 {
		return req, nil
	}
	if !gjson.ValidBytes(body) {
		return nil, errors.NewValidationError("request body must be valid JSON")
	}

	// 密钥必须是字符串对象，单独检查以给出明确的错误
	if keys := gjson.GetBytes(body, constants.APIKeysFieldName); keys.Exists() && keys.Type != gjson.Null && !keys.IsObject() {
		return nil, errors.NewInvalidInputError(constants.APIKeysFieldName, "must be an object")
	}

	if err := json.Unmarshal(body, req); err != nil {
		return nil, errors.NewValidationError(fmt.Sprintf("invalid request body: %v", err))
	}
	if err := requestValidator.Struct(req); err != nil {
		return nil, err
	}
	return req, nil
}
