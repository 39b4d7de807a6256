package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/wacana/backend/internal/infrastructure/config"
	_ "modernc.org/sqlite"
)

// GetDBPath 获取数据库路径
// 未配置时使用 <dataDir>/wacana.db
func GetDBPath(cfg *config.DatabaseConfig) string {
	if cfg != nil && cfg.Path != "" {
		return cfg.Path
	}
	return config.DataPath(config.DatabaseFileName)
}

// ProvideDB 打开数据库并初始化表结构
func ProvideDB(cfg *config.DatabaseConfig) (*sql.DB, error) {
	db, err := OpenDB(GetDBPath(cfg))
	if err != nil {
		return nil, err
	}
	if err := InitSchema(db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// OpenDB 打开数据库连接
func OpenDB(dbPath string) (*sql.DB, error) {
	// 确保目录存在
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// WAL + busy_timeout，允许并发读写
	if _, err := db.Exec("PRAGMA journal_mode=WAL; PRAGMA busy_timeout=5000;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to configure database: %w", err)
	}

	return db, nil
}

// InitSchema 初始化表结构
func InitSchema(db *sql.DB) error {
	statements := []struct {
		name string
		sql  string
	}{
		{"chat_messages", `
		CREATE TABLE IF NOT EXISTS chat_messages (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			owner_type TEXT NOT NULL,
			owner_id TEXT NOT NULL,
			session_id TEXT NOT NULL,
			role TEXT NOT NULL,
			content TEXT NOT NULL,
			created_at INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_chat_messages_owner_session
			ON chat_messages(owner_type, owner_id, session_id, created_at);`},
		{"chatbot_request_metrics", `
		CREATE TABLE IF NOT EXISTS chatbot_request_metrics (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			owner_type TEXT NOT NULL,
			owner_id TEXT NOT NULL,
			session_id TEXT NOT NULL,
			mode TEXT NOT NULL,
			status TEXT NOT NULL,
			source TEXT NOT NULL,
			model_name TEXT,
			attempted_models TEXT NOT NULL DEFAULT '[]',
			fallback_used INTEGER NOT NULL DEFAULT 0,
			fallback_count INTEGER NOT NULL DEFAULT 0,
			prompt_tokens INTEGER NOT NULL DEFAULT 0,
			duration_ms INTEGER NOT NULL,
			error_code TEXT,
			error_message TEXT,
			created_at INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_metrics_created_at ON chatbot_request_metrics(created_at);
		CREATE INDEX IF NOT EXISTS idx_metrics_status ON chatbot_request_metrics(status, created_at);
		CREATE INDEX IF NOT EXISTS idx_metrics_owner ON chatbot_request_metrics(owner_type, owner_id, created_at);`},
		{"announcements", `
		CREATE TABLE IF NOT EXISTS announcements (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			category TEXT NOT NULL,
			content TEXT NOT NULL
		);`},
		{"lecturers", `
		CREATE TABLE IF NOT EXISTS lecturers (
			id TEXT PRIMARY KEY,
			fullname TEXT NOT NULL,
			expertise TEXT NOT NULL DEFAULT '[]',
			email TEXT
		);`},
		{"partners", `
		CREATE TABLE IF NOT EXISTS partners (
			id TEXT PRIMARY KEY,
			company TEXT NOT NULL,
			link TEXT
		);`},
		{"knowledge", `
		CREATE TABLE IF NOT EXISTS knowledge (
			id TEXT PRIMARY KEY,
			kind TEXT NOT NULL,
			title TEXT NOT NULL,
			content TEXT NOT NULL,
			link TEXT,
			synonyms TEXT NOT NULL DEFAULT '[]'
		);`},
	}

	for _, stmt := range statements {
		if _, err := db.Exec(stmt.sql); err != nil {
			return fmt.Errorf("failed to create %s table: %w", stmt.name, err)
		}
	}

	return nil
}

// placeholders 生成 IN 子句占位符
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	b := make([]byte, 0, n*2)
	for i := 0; i < n; i++ {
		if i > 0 {
			b = append(b, ',')
		}
		b = append(b, '?')
	}
	return string(b)
}

func stringArgs(values []string) []any {
	args := make([]any, len(values))
	for i, v := range values {
		args[i] = v
	}
	return args
}
