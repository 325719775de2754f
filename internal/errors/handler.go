package errors

import (
	"net/http"

	beecontext "github.com/beego/beego/v2/server/web/context"
	"go.uber.org/zap"
)

// RequestIDKey 请求ID在beego上下文数据中的键
const RequestIDKey = "request_id"

// ErrorRecorder 统计返回给客户端的错误
type ErrorRecorder interface {
	RecordError(code, errorType string)
}

// ErrorHandler 把错误转换为统一的JSON响应
type ErrorHandler struct {
	logger     *zap.Logger
	translator *ErrorTranslator
	recorder   ErrorRecorder
}

// NewErrorHandler 创建错误处理器
func NewErrorHandler(logger *zap.Logger) *ErrorHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ErrorHandler{
		logger:     logger,
		translator: NewErrorTranslator(),
	}
}

// WithRecorder 设置错误统计
func (h *ErrorHandler) WithRecorder(recorder ErrorRecorder) *ErrorHandler {
	h.recorder = recorder
	return h
}

// Response 构建错误响应体
func (h *ErrorHandler) Response(err error) (int, map[string]interface{}) {
	appErr := h.translator.Translate(err)

	body := map[string]interface{}{
		"success": false,
		"error":   appErr.Message,
		"code":    string(appErr.Code),
	}
	if appErr.RequestID != "" {
		body["request_id"] = appErr.RequestID
	}
	if appErr.Details != nil && shouldIncludeDetails(appErr) {
		body["details"] = appErr.Details
	}

	return appErr.HTTPCode, body
}

// Handle 记录错误并写入beego响应
func (h *ErrorHandler) Handle(ctx *beecontext.Context, err error) {
	appErr := h.translator.Translate(err)
	if appErr.RequestID == "" && ctx != nil {
		if id, ok := ctx.Input.GetData(RequestIDKey).(string); ok {
			copied := *appErr
			copied.RequestID = id
			appErr = &copied
		}
	}
	h.logError(ctx, appErr)
	if h.recorder != nil {
		h.recorder.RecordError(string(appErr.Code), appErr.Type.String())
	}

	status, body := h.Response(appErr)
	ctx.Output.SetStatus(status)
	if jsonErr := ctx.Output.JSON(body, false, false); jsonErr != nil {
		h.logger.Error("Failed to write error response", zap.Error(jsonErr))
		ctx.ResponseWriter.WriteHeader(http.StatusInternalServerError)
	}
}

// logError 根据错误类型选择日志级别
func (h *ErrorHandler) logError(ctx *beecontext.Context, appErr *AppError) {
	fields := []zap.Field{
		zap.String("error_code", string(appErr.Code)),
		zap.String("error_type", appErr.Type.String()),
		zap.Int("http_code", appErr.HTTPCode),
	}
	if ctx != nil && ctx.Request != nil {
		fields = append(fields,
			zap.String("method", ctx.Request.Method),
			zap.String("path", ctx.Request.URL.Path),
		)
	}
	if appErr.RequestID != "" {
		fields = append(fields, zap.String("request_id", appErr.RequestID))
	}
	if appErr.Cause != nil {
		fields = append(fields, zap.NamedError("cause", appErr.Cause))
	}

	switch appErr.Type {
	case ErrorTypeSystem:
		h.logger.Error(appErr.Message, fields...)
	case ErrorTypeBusiness, ErrorTypeExternal:
		h.logger.Warn(appErr.Message, fields...)
	default:
		h.logger.Info(appErr.Message, fields...)
	}
}

// shouldIncludeDetails 系统错误和外部错误不暴露详情
func shouldIncludeDetails(appErr *AppError) bool {
	switch appErr.Type {
	case ErrorTypeValidation, ErrorTypeBusiness:
		return true
	default:
		return false
	}
}
