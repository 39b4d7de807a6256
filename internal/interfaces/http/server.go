package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"log/slog"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/wacana/backend/docs" // Swagger docs
	"github.com/wacana/backend/internal/infrastructure/auth"
	"github.com/wacana/backend/internal/infrastructure/cache"
	"github.com/wacana/backend/internal/infrastructure/config"
	"github.com/wacana/backend/internal/infrastructure/log"
	"github.com/wacana/backend/internal/infrastructure/metrics"
	"github.com/wacana/backend/internal/interfaces/http/handler"
	"github.com/wacana/backend/internal/interfaces/http/middleware"
)

// HTTPServer HTTP 服务器
type HTTPServer struct {
	router   *gin.Engine
	httpPort string
	server   *http.Server
	logger   *slog.Logger
}

// NewServer 创建 HTTP 服务器
func NewServer(
	cfg *config.ServerConfig,
	chatbotHandler *handler.ChatbotHandler,
	metricsHandler *handler.MetricsHandler,
	verifier *auth.TokenVerifier,
	redisCache *cache.Cache,
	m *metrics.Metrics,
) *HTTPServer {
	if cfg.Mode == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestID(), middleware.Observe(m))

	logger := log.NewModuleLogger("http", "server")

	var counter middleware.Counter
	if redisCache.Enabled() {
		counter = redisCache
	} else {
		logger.Warn("Rate limiting disabled, cache not configured")
	}
	limiter := middleware.NewRateLimiter(counter, cfg.RateLimitPerMinute, m)

	// 注册路由
	api := router.Group("/api/v1/chatbot", limiter.Handler())
	{
		api.GET("/stream", chatbotHandler.Stream)
		api.POST("/non-stream", middleware.EnsureUTF8Body(), chatbotHandler.NonStream)
		api.GET("/history", chatbotHandler.History)
		api.GET("/welcome", chatbotHandler.Welcome)
		api.GET("/metrics/summary", middleware.RequireRoles(verifier, middleware.DashboardRoles...), metricsHandler.Summary)
	}

	// 健康检查
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Prometheus
	router.GET("/metrics", gin.WrapH(m.Handler()))

	// Swagger 文档
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return &HTTPServer{
		router:   router,
		httpPort: cfg.HTTPPort,
		logger:   logger,
	}
}

// Router 路由，供测试使用
func (s *HTTPServer) Router() *gin.Engine {
	return s.router
}

// Start 启动服务器，阻塞直到关闭
func (s *HTTPServer) Start() error {
	s.server = &http.Server{
		Addr:              s.httpPort,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.logger.Info("HTTP server starting",
		"port", s.httpPort,
	)

	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown 优雅关闭
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

// Stop 停止服务器
func (s *HTTPServer) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.Shutdown(ctx)
}
