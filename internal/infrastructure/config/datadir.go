package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// 数据目录与其中的默认文件
const (
	EnvDataDir         = "WACANA_DATA_DIR"
	DefaultDataDirName = ".wacana"
	ConfigFileName     = "config.yaml"
	DatabaseFileName   = "wacana.db"
)

// DataDir 数据根目录
// WACANA_DATA_DIR 优先，其次 ~/.wacana，取不到用户目录时为工作目录下的 .wacana
// 每次调用都重新读取环境变量
func DataDir() string {
	if dir := os.Getenv(EnvDataDir); dir != "" {
		return dir
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, DefaultDataDirName)
	}
	return DefaultDataDirName
}

// DataPath 数据目录下的文件路径
func DataPath(name string) string {
	return filepath.Join(DataDir(), name)
}

// EnsureDataDir 创建数据目录（仅属主可读写），返回其路径
func EnsureDataDir() (string, error) {
	dir := DataDir()
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("failed to create data dir %s: %w", dir, err)
	}
	return dir, nil
}
