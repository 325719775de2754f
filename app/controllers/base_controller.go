package controllers

import (
	"net/http"
	"strings"

	"github.com/aiflow/backend-go/internal/constants"
	"github.com/aiflow/backend-go/internal/errors"
	"github.com/beego/beego/v2/server/web"
)

var defaultErrorHandler = errors.NewErrorHandler(nil)

// BaseController provides helpers for consistent JSON responses.
type BaseController struct {
	web.Controller
	// Errors 注册路由时注入，beego只复制导出字段
	Errors *errors.ErrorHandler
}

// JSON writes a JSON response with the supplied HTTP status code.
func (c *BaseController) JSON(status int, payload interface{}) {
	c.Ctx.Output.SetStatus(status)
	c.Data["json"] = payload
	_ = c.ServeJSON()
}

// JSONSuccess writes a standard success envelope.
func (c *BaseController) JSONSuccess(data interface{}) {
	c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    data,
	})
}

// JSONError writes an error envelope with message.
func (c *BaseController) JSONError(status int, message string) {
	c.JSON(status, map[string]interface{}{
		"success": false,
		"error":   message,
	})
}

// HandleError 把错误写成统一的错误响应
func (c *BaseController) HandleError(err error) {
	handler := c.Errors
	if handler == nil {
		handler = defaultErrorHandler
	}
	handler.Handle(c.Ctx, err)
}

// CurrentUserID 返回认证过滤器写入的用户ID，未登录时为空
func (c *BaseController) CurrentUserID() string {
	if userID, ok := c.Ctx.Input.GetData(constants.SessionUserIDKey).(string); ok {
		return userID
	}
	if session := c.Ctx.Input.CruSession; session != nil {
		if userID, ok := session.Get(c.Ctx.Request.Context(), constants.SessionUserIDKey).(string); ok {
			return userID
		}
	}
	return ""
}

// getClientIP 获取客户端真实IP地址
func (c *BaseController) getClientIP() string {
	// X-Forwarded-For可能包含多个IP，取第一个
	if forwarded := c.Ctx.Input.Header("X-Forwarded-For"); forwarded != "" {
		ip, _, _ := strings.Cut(forwarded, ",")
		return strings.TrimSpace(ip)
	}
	if realIP := c.Ctx.Input.Header("X-Real-IP"); realIP != "" {
		return realIP
	}
	return c.Ctx.Input.IP()
}
