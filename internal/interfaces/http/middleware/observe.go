package middleware

import (
	"log/slog"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/wacana/backend/internal/infrastructure/log"
	"github.com/wacana/backend/internal/infrastructure/metrics"
)

// Observe 访问日志与 HTTP 指标
func Observe(m *metrics.Metrics) gin.HandlerFunc {
	logger := log.NewModuleLogger("http", "access")
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		elapsed := time.Since(start)
		m.ObserveHTTP(c.Request.Method, route, strconv.Itoa(status), elapsed)

		level := slog.LevelInfo
		if status >= 500 {
			level = slog.LevelError
		}
		logger.Log(c.Request.Context(), level, "HTTP request",
			append(log.LogCtxFromContext(c.Request.Context()),
				"method", c.Request.Method,
				"route", route,
				"status", status,
				"duration_ms", elapsed.Milliseconds(),
				"client_ip", c.ClientIP(),
			)...,
		)
	}
}
