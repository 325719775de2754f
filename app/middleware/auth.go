package middleware

import (
	"github.com/aiflow/backend-go/internal/auth"
	"github.com/aiflow/backend-go/internal/constants"
	"github.com/aiflow/backend-go/internal/errors"
	"github.com/beego/beego/v2/server/web"
	"github.com/beego/beego/v2/server/web/context"
	"go.uber.org/zap"
)

// AuthFilter 校验Bearer令牌并把用户ID写入会话。
// required 为 false 时未登录的请求照常放行
func AuthFilter(jwtService *auth.JWTService, required bool, handler *errors.ErrorHandler, logger *zap.Logger) web.FilterFunc {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(ctx *context.Context) {
		if ctx.Input.Method() == "OPTIONS" {
			return
		}

		if userID := userFromToken(ctx, jwtService, logger); userID != "" {
			setUser(ctx, userID)
			return
		}
		if userID := userFromSession(ctx); userID != "" {
			ctx.Input.SetData(constants.SessionUserIDKey, userID)
			return
		}

		if required {
			handler.Handle(ctx, errors.NewUnauthorizedError("Authentication required"))
		}
	}
}

func userFromToken(ctx *context.Context, jwtService *auth.JWTService, logger *zap.Logger) string {
	header := ctx.Input.Header("Authorization")
	if header == "" || jwtService == nil {
		return ""
	}

	token, err := auth.ExtractTokenFromHeader(header)
	if err != nil {
		logger.Debug("Ignoring authorization header", zap.Error(err))
		return ""
	}
	claims, err := jwtService.ValidateToken(token)
	if err != nil {
		logger.Info("Rejected token", zap.String("path", ctx.Input.URL()), zap.Error(err))
		return ""
	}
	return claims.UserID
}

func userFromSession(ctx *context.Context) string {
	if ctx.Input.CruSession == nil {
		return ""
	}
	userID, _ := ctx.Input.CruSession.Get(ctx.Request.Context(), constants.SessionUserIDKey).(string)
	return userID
}

func setUser(ctx *context.Context, userID string) {
	ctx.Input.SetData(constants.SessionUserIDKey, userID)
	if ctx.Input.CruSession != nil {
		_ = ctx.Input.CruSession.Set(ctx.Request.Context(), constants.SessionUserIDKey, userID)
	}
}
