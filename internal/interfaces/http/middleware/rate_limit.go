package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/wacana/backend/internal/infrastructure/log"
	"github.com/wacana/backend/internal/infrastructure/metrics"
	"github.com/wacana/backend/internal/interfaces/http/response"
)

// RateLimitMessage 超限提示
const RateLimitMessage = "Too many requests, please try again later."

// rateWindow 固定窗口长度
const rateWindow = time.Minute

// Counter 窗口计数
type Counter interface {
	Incr(ctx context.Context, key string, window time.Duration) (int64, error)
}

// RateLimiter 按客户端 IP 的固定窗口限流
type RateLimiter struct {
	counter Counter
	limit   int64
	metrics *metrics.Metrics
	now     func() time.Time
	logger  *slog.Logger
}

// NewRateLimiter 创建限流器，limit<=0 时不限流
func NewRateLimiter(counter Counter, limit int, m *metrics.Metrics) *RateLimiter {
	return &RateLimiter{
		counter: counter,
		limit:   int64(limit),
		metrics: m,
		now:     time.Now,
		logger:  log.NewModuleLogger("http", "ratelimit"),
	}
}

// Handler 返回中间件
// 计数后端不可用时放行
func (l *RateLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if l.limit <= 0 || l.counter == nil {
			c.Next()
			return
		}

		window := l.now().Truncate(rateWindow).Unix()
		key := fmt.Sprintf("wacana:ratelimit:%s:%d", c.ClientIP(), window)

		n, err := l.counter.Incr(c.Request.Context(), key, rateWindow)
		if err != nil {
			l.logger.Debug("Rate limit counter unavailable, allowing request", "error", err)
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", fmt.Sprint(l.limit))
		if remaining := l.limit - n; remaining > 0 {
			c.Header("X-RateLimit-Remaining", fmt.Sprint(remaining))
		} else {
			c.Header("X-RateLimit-Remaining", "0")
		}

		if n > l.limit {
			if l.metrics != nil {
				l.metrics.RateLimited.Inc()
			}
			l.logger.Warn("Rate limit exceeded",
				append(log.LogCtxFromContext(c.Request.Context()),
					"client_ip", c.ClientIP(),
					"count", n,
				)...,
			)
			response.Abort(c, http.StatusTooManyRequests, RateLimitMessage)
			return
		}
		c.Next()
	}
}
