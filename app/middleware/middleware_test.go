package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aiflow/backend-go/internal/auth"
	"github.com/aiflow/backend-go/internal/constants"
	"github.com/aiflow/backend-go/internal/errors"
	"github.com/beego/beego/v2/server/web/context"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newContext(method, target string) (*context.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	ctx := context.NewContext()
	ctx.Reset(w, httptest.NewRequest(method, target, nil))
	return ctx, w
}

func TestCORSFilter(t *testing.T) {
	filter := CORSFilter([]string{"http://localhost:3000"})

	ctx, w := newContext(http.MethodGet, "/api/node/configs")
	ctx.Request.Header.Set("Origin", "http://localhost:3000")
	filter(ctx)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))

	ctx, w = newContext(http.MethodGet, "/api/node/configs")
	ctx.Request.Header.Set("Origin", "http://evil.example")
	filter(ctx)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORSFilter_Preflight(t *testing.T) {
	ctx, w := newContext(http.MethodOptions, "/api/processors/x/process")
	ctx.Request.Header.Set("Origin", "http://any.example")

	CORSFilter([]string{"*"})(ctx)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://any.example", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestRequestIDFilter(t *testing.T) {
	ctx, w := newContext(http.MethodGet, "/health")
	RequestIDFilter(ctx)
	generated, ok := ctx.Input.GetData(errors.RequestIDKey).(string)
	require.True(t, ok)
	assert.Len(t, generated, 36)
	assert.Equal(t, generated, w.Header().Get("X-Request-ID"))

	ctx, _ = newContext(http.MethodGet, "/health")
	ctx.Request.Header.Set("X-Request-ID", "client-id")
	RequestIDFilter(ctx)
	assert.Equal(t, "client-id", ctx.Input.GetData(errors.RequestIDKey))
}

func TestAuthFilter(t *testing.T) {
	jwtService, err := auth.NewJWTService("secret", "aiflow", time.Hour)
	require.NoError(t, err)
	token, err := jwtService.GenerateToken("user-7", "")
	require.NoError(t, err)

	tests := []struct {
		name       string
		header     string
		required   bool
		wantUser   string
		wantStatus int
	}{
		{name: "valid token", header: "Bearer " + token, required: true, wantUser: "user-7", wantStatus: http.StatusOK},
		{name: "anonymous allowed", required: false, wantStatus: http.StatusOK},
		{name: "anonymous rejected", required: true, wantStatus: http.StatusUnauthorized},
		{name: "bad token rejected", header: "Bearer nope", required: true, wantStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, w := newContext(http.MethodPost, "/api/processors/x/process")
			if tt.header != "" {
				ctx.Request.Header.Set("Authorization", tt.header)
			}

			AuthFilter(jwtService, tt.required, errors.NewErrorHandler(nil), nil)(ctx)

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantUser != "" {
				assert.Equal(t, tt.wantUser, ctx.Input.GetData(constants.SessionUserIDKey))
			} else {
				assert.Nil(t, ctx.Input.GetData(constants.SessionUserIDKey))
			}
		})
	}
}

func TestRateLimiter(t *testing.T) {
	limiter := NewRateLimiter(2, time.Minute)
	now := time.Unix(1700000000, 0)
	limiter.now = func() time.Time { return now }

	assert.True(t, limiter.Allow("1.1.1.1"))
	assert.True(t, limiter.Allow("1.1.1.1"))
	assert.False(t, limiter.Allow("1.1.1.1"))
	assert.True(t, limiter.Allow("2.2.2.2"))

	now = now.Add(2 * time.Minute)
	assert.True(t, limiter.Allow("1.1.1.1"))
}

func TestNewRateLimiter_Disabled(t *testing.T) {
	assert.Nil(t, NewRateLimiter(0, time.Minute))

	ctx, w := newContext(http.MethodPost, "/api/processors/x/process")
	RateLimitFilter(nil, errors.NewErrorHandler(nil))(ctx)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRateLimitFilter(t *testing.T) {
	limiter := NewRateLimiter(1, time.Minute)
	filter := RateLimitFilter(limiter, errors.NewErrorHandler(nil))

	ctx, w := newContext(http.MethodPost, "/api/processors/x/process")
	filter(ctx)
	assert.Equal(t, http.StatusOK, w.Code)

	ctx, w = newContext(http.MethodPost, "/api/processors/x/process")
	filter(ctx)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}

func TestSecurityHeaders(t *testing.T) {
	ctx, w := newContext(http.MethodGet, "/health")
	SecurityHeaders(ctx)
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
}
