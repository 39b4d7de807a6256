package log

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	slogmulti "github.com/samber/slog-multi"
)

// 全局 logger 实例
var (
	defaultLogger *slog.Logger
	debugMode     bool
	logFile       io.Closer
	mu            sync.Mutex
)

// Init 初始化日志系统
func Init(cfg *Config) {
	if cfg == nil {
		cfg = NewConfigFromEnv()
	}

	mu.Lock()
	defer mu.Unlock()

	opts := &slog.HandlerOptions{
		Level:     parseLevel(cfg.Level),
		AddSource: cfg.AddSource,
	}

	// 根据格式选择处理器
	var logHandler slog.Handler
	if strings.ToLower(cfg.Format) == "json" {
		logHandler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		logHandler = slog.NewTextHandler(os.Stdout, opts)
	}

	// file:/path 输出：stdout + 文件（JSON）
	if path, ok := fileOutputPath(cfg.Output); ok {
		fileHandler, closer, err := openFileHandler(path, opts)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to open log file %s, using stdout only: %v\n", path, err)
		} else {
			closeFileLocked()
			logFile = closer
			logHandler = slogmulti.Fanout(logHandler, fileHandler)
		}
	}

	// 添加服务标识
	defaultLogger = slog.New(logHandler.WithAttrs([]slog.Attr{
		slog.String("service", "wacana-backend"),
	}))

	debugMode = strings.ToLower(cfg.Level) == "debug"

	slog.SetDefault(defaultLogger)
}

// Close 关闭日志文件（如果有）
func Close() error {
	mu.Lock()
	defer mu.Unlock()
	return closeFileLocked()
}

func closeFileLocked() error {
	if logFile == nil {
		return nil
	}
	err := logFile.Close()
	logFile = nil
	return err
}

// fileOutputPath 解析 file:/path 形式的输出目标
func fileOutputPath(output string) (string, bool) {
	path, ok := strings.CutPrefix(output, "file:")
	if !ok || strings.TrimSpace(path) == "" {
		return "", false
	}
	return strings.TrimSpace(path), true
}

func openFileHandler(path string, opts *slog.HandlerOptions) (slog.Handler, io.Closer, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, nil, err
	}
	return slog.NewJSONHandler(f, opts), f, nil
}

// GetLogger 获取默认 logger
func GetLogger() *slog.Logger {
	mu.Lock()
	l := defaultLogger
	mu.Unlock()
	if l == nil {
		// 未初始化，使用默认配置
		Init(nil)
		mu.Lock()
		l = defaultLogger
		mu.Unlock()
	}
	return l
}

// With 创建带有额外字段的 logger
func With(args ...any) *slog.Logger {
	return GetLogger().With(args...)
}

// NewModuleLogger 为特定模块创建 logger
func NewModuleLogger(module, component string) *slog.Logger {
	return GetLogger().With(
		slog.String("module", module),
		slog.String("component", component),
	)
}

// IsDebugMode 检查是否为调试模式
func IsDebugMode() bool {
	return debugMode
}

// parseLevel 解析日志级别
func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
