// @title Wacana Chatbot API
// @version 1.0
// @description Asisten kampus berbasis RAG: tanya jawab streaming, riwayat percakapan, dan statistik penggunaan
// @host localhost:5000
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
package main

import (
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/wacana/backend/internal/infrastructure/config"
	applog "github.com/wacana/backend/internal/infrastructure/log"
	"github.com/wacana/backend/internal/infrastructure/singleton"
	"github.com/wacana/backend/internal/wire"
)

func main() {
	// 初始化日志系统
	applog.Init(applog.NewConfigFromEnv())
	defer applog.Close()
	logger := applog.GetLogger()

	// 端口检查：同一数据目录只允许一个实例
	cfg, err := config.Load()
	if err != nil {
		logger.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	if _, err := config.EnsureDataDir(); err != nil {
		logger.Error("Failed to prepare data directory", "error", err)
		os.Exit(1)
	}
	port := cfg.Server.HTTPPort
	if err := singleton.Preflight(port); err != nil {
		if errors.Is(err, singleton.ErrAlreadyRunning) {
			logger.Info("Another instance is already running, exiting", "port", port)
			return
		}
		logger.Error("Port preflight failed", "port", port, "error", err)
		os.Exit(1)
	}

	// Wire 生成的初始化函数
	app, cleanup, err := wire.InitializeAll()
	if err != nil {
		logger.Error("Failed to initialize application",
			"error", err,
		)
		os.Exit(1)
	}
	defer cleanup()

	// 启动所有服务
	if err := app.Start(); err != nil {
		logger.Error("Failed to start application",
			"error", err,
		)
		os.Exit(1)
	}

	// 优雅关闭
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigChan:
	case <-app.ServeErr():
	}

	logger.Info("Shutting down application...")
	if err := app.Stop(); err != nil {
		logger.Error("Error during application shutdown",
			"error", err,
		)
	}
	logger.Info("Application stopped")
}
