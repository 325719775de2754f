package middleware

import (
	"github.com/aiflow/backend-go/internal/errors"
	"github.com/beego/beego/v2/server/web/context"
	"github.com/google/uuid"
)

const requestIDHeader = "X-Request-ID"

// RequestIDFilter 沿用客户端传入的请求ID，没有时生成一个
func RequestIDFilter(ctx *context.Context) {
	requestID := ctx.Input.Header(requestIDHeader)
	if requestID == "" || len(requestID) > 128 {
		requestID = uuid.NewString()
	}
	ctx.Input.SetData(errors.RequestIDKey, requestID)
	ctx.Output.Header(requestIDHeader, requestID)
}
