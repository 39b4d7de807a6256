package log

import (
	"os"
	"strconv"
	"strings"
)

// Config 日志配置
type Config struct {
	// Level 日志级别：debug, info, warn, error
	Level string `yaml:"level"`

	// Format 日志格式：console, json
	Format string `yaml:"format"`

	// Output 输出目标：stdout, file:/path/to/log
	Output string `yaml:"output"`

	// AddSource 是否添加源文件信息
	AddSource bool `yaml:"add_source"`
}

// NewConfigFromEnv 从环境变量创建配置
func NewConfigFromEnv() *Config {
	cfg := &Config{
		Level:     envOr("LOG_LEVEL", "info"),
		Format:    envOr("LOG_FORMAT", "console"),
		Output:    envOr("LOG_OUTPUT", "stdout"),
		AddSource: envBool("LOG_ADD_SOURCE", false),
	}

	// 开发环境强制 debug + console
	if isDevelopment() {
		cfg.Level = "debug"
		cfg.Format = "console"
		cfg.AddSource = true
	}

	return cfg
}

func isDevelopment() bool {
	return strings.EqualFold(envOr("ENV", "production"), "development")
}

func envOr(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func envBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return b
}
