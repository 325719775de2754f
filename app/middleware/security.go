package middleware

import (
	"sync"
	"time"

	"github.com/aiflow/backend-go/internal/errors"
	"github.com/beego/beego/v2/server/web"
	"github.com/beego/beego/v2/server/web/context"
)

// SecurityHeaders 安全头过滤器
func SecurityHeaders(ctx *context.Context) {
	ctx.Output.Header("X-Content-Type-Options", "nosniff")
	ctx.Output.Header("X-Frame-Options", "DENY")
	ctx.Output.Header("Referrer-Policy", "strict-origin-when-cross-origin")
}

// RateLimitFilter 按客户端IP限流，limiter 为 nil 时不限流
func RateLimitFilter(limiter *RateLimiter, handler *errors.ErrorHandler) web.FilterFunc {
	return func(ctx *context.Context) {
		if limiter == nil || ctx.Input.Method() == "OPTIONS" {
			return
		}
		if !limiter.Allow(ctx.Input.IP()) {
			handler.Handle(ctx, errors.NewBusinessError(errors.ErrCodeTooManyRequests, "Rate limit exceeded"))
		}
	}
}

// RateLimiter 滑动窗口内存限流器
type RateLimiter struct {
	requests int
	window   time.Duration
	now      func() time.Time

	mu      sync.Mutex
	clients map[string][]time.Time
}

// NewRateLimiter 创建限流器，requests 不大于0时返回nil
func NewRateLimiter(requests int, window time.Duration) *RateLimiter {
	if requests <= 0 || window <= 0 {
		return nil
	}
	return &RateLimiter{
		requests: requests,
		window:   window,
		now:      time.Now,
		clients:  make(map[string][]time.Time),
	}
}

// Allow 检查是否允许请求
func (rl *RateLimiter) Allow(clientIP string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	windowStart := now.Add(-rl.window)

	valid := rl.clients[clientIP][:0]
	for _, reqTime := range rl.clients[clientIP] {
		if reqTime.After(windowStart) {
			valid = append(valid, reqTime)
		}
	}

	if len(valid) >= rl.requests {
		rl.clients[clientIP] = valid
		return false
	}
	rl.clients[clientIP] = append(valid, now)

	// 顺便清理长期不活跃的客户端
	if len(rl.clients) > 1024 {
		for ip, times := range rl.clients {
			if len(times) == 0 || !times[len(times)-1].After(windowStart) {
				delete(rl.clients, ip)
			}
		}
	}
	return true
}
