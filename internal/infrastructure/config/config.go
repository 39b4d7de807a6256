package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// 环境变量名
const (
	EnvConfigFile = "WACANA_CONFIG"
	EnvHTTPPort   = "PORT"
	EnvMode       = "ENV"
)

// Config 应用配置
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Auth      AuthConfig      `yaml:"auth"`
	Provider  ProviderConfig  `yaml:"provider"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Qdrant    QdrantConfig    `yaml:"qdrant"`
	Redis     RedisConfig     `yaml:"redis"`
	Chatbot   ChatbotConfig   `yaml:"chatbot"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	HTTPPort           string `yaml:"http_port"`
	Mode               string `yaml:"mode"` // development / production
	RateLimitPerMinute int    `yaml:"rate_limit_per_minute"`
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	// Path 为空时使用 <dataDir>/wacana.db
	Path string `yaml:"path"`
}

// AuthConfig 访问令牌校验配置
type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret"`
	// RefreshSecret 为空时使用 JWTSecret + "_refresh"
	RefreshSecret string `yaml:"refresh_secret"`
}

// ProviderConfig OpenRouter 兼容的 LLM 提供方配置
type ProviderConfig struct {
	BaseURL        string        `yaml:"base_url"`
	APIKey         string        `yaml:"api_key"`
	Model          string        `yaml:"model"`
	FallbackModels []string      `yaml:"fallback_models"`
	AppURL         string        `yaml:"app_url"`
	AppTitle       string        `yaml:"app_title"`
	Timeout        time.Duration `yaml:"timeout"`
	// StickyFallback 为 true 时，回退后的模型位置在同一个 Gateway 实例内保留
	StickyFallback bool `yaml:"sticky_fallback"`
}

// EmbeddingConfig 向量化服务配置
type EmbeddingConfig struct {
	BaseURL string `yaml:"base_url"`
	APIKey  string `yaml:"api_key"`
	Model   string `yaml:"model"`

	// Dimension 向量维度，写入索引时校验
	Dimension int `yaml:"dimension"`
}

// QdrantConfig 向量库配置
type QdrantConfig struct {
	Host       string `yaml:"host"`
	Port       int    `yaml:"port"`
	APIKey     string `yaml:"api_key"`
	Collection string `yaml:"collection"`

	// SyncOnStart 启动时把全部内容行重新写入向量索引
	SyncOnStart bool `yaml:"sync_on_start"`
}

// RedisConfig 缓存配置，Addr 为空表示禁用缓存
type RedisConfig struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

// ChatbotConfig 对话参数
type ChatbotConfig struct {
	HistoryLimit int `yaml:"history_limit"`
}

// NewConfig 创建配置（默认值）
func NewConfig() *Config {
	port := ":5000"
	if v := os.Getenv(EnvHTTPPort); v != "" {
		port = normalizePort(v)
	}

	return &Config{
		Server: ServerConfig{
			HTTPPort:           port,
			Mode:               "production",
			RateLimitPerMinute: 100,
		},
		Provider: ProviderConfig{
			BaseURL:        "https://openrouter.ai/api/v1",
			Model:          "google/gemma-3-27b-it:free",
			AppURL:         "http://localhost:5000",
			AppTitle:       "S1 TI Chatbot",
			Timeout:        120 * time.Second,
			StickyFallback: true,
		},
		Embedding: EmbeddingConfig{
			BaseURL:   "http://localhost:8001",
			Dimension: 384,
		},
		Qdrant: QdrantConfig{
			Host:       "localhost",
			Port:       6334,
			Collection: "campus_content",
		},
		Redis: RedisConfig{
			TTL: 15 * time.Minute,
		},
		Chatbot: ChatbotConfig{
			HistoryLimit: 12,
		},
	}
}

// Load 加载配置：默认值 -> YAML 文件（可选）-> 环境变量
func Load() (*Config, error) {
	cfg := NewConfig()

	path := os.Getenv(EnvConfigFile)
	explicit := path != ""
	if !explicit {
		path = DataPath(ConfigFileName)
	}

	if err := cfg.loadFile(path); err != nil {
		if explicit || !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadFile 读取 YAML 配置覆盖默认值
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, c)
}

// applyEnv 环境变量覆盖
func (c *Config) applyEnv() {
	setString(&c.Server.HTTPPort, EnvHTTPPort, normalizePort)
	setString(&c.Server.Mode, EnvMode, nil)
	setInt(&c.Server.RateLimitPerMinute, "RATE_LIMIT_PER_MINUTE")

	setString(&c.Database.Path, "DB_PATH", nil)

	setString(&c.Auth.JWTSecret, "JWT_SECRET", nil)
	setString(&c.Auth.RefreshSecret, "JWT_REFRESH_SECRET", nil)

	setString(&c.Provider.BaseURL, "OPENROUTER_BASE_URL", nil)
	setString(&c.Provider.APIKey, "OPENROUTER_API_KEY", nil)
	setString(&c.Provider.Model, "OPENROUTER_MODEL", nil)
	setString(&c.Provider.AppURL, "APP_URL", nil)
	if v, ok := os.LookupEnv("OPENROUTER_FALLBACK_MODELS"); ok {
		c.Provider.FallbackModels = SplitList(v)
	}
	if v := os.Getenv("GATEWAY_STICKY_FALLBACK"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Provider.StickyFallback = b
		}
	}

	setString(&c.Embedding.BaseURL, "EMBEDDING_BASE_URL", nil)
	setString(&c.Embedding.APIKey, "EMBEDDING_API_KEY", nil)
	setString(&c.Embedding.Model, "EMBEDDING_MODEL", nil)
	setInt(&c.Embedding.Dimension, "EMBEDDING_DIMENSION")

	setString(&c.Qdrant.Host, "QDRANT_HOST", nil)
	setInt(&c.Qdrant.Port, "QDRANT_PORT")
	setString(&c.Qdrant.APIKey, "QDRANT_API_KEY", nil)
	setString(&c.Qdrant.Collection, "QDRANT_COLLECTION", nil)
	if v := os.Getenv("QDRANT_SYNC_ON_START"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Qdrant.SyncOnStart = b
		}
	}

	setString(&c.Redis.Addr, "REDIS_ADDR", nil)
	setString(&c.Redis.Password, "REDIS_PASSWORD", nil)
	if v := os.Getenv("CACHE_TTL"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			c.Redis.TTL = time.Duration(secs) * time.Second
		}
	}
}

// Validate 校验必填项
func (c *Config) Validate() error {
	if c.Provider.Model == "" {
		return fmt.Errorf("provider model is required")
	}
	if c.Provider.BaseURL == "" {
		return fmt.Errorf("provider base url is required")
	}
	if c.Chatbot.HistoryLimit <= 0 {
		c.Chatbot.HistoryLimit = 12
	}
	if c.Provider.Timeout <= 0 {
		c.Provider.Timeout = 120 * time.Second
	}
	return nil
}

// IsProduction 是否生产环境
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Server.Mode, "production")
}

// CandidateModels 主模型 + 回退模型（去重、保序）
func (c *ProviderConfig) CandidateModels() []string {
	seen := make(map[string]bool)
	models := make([]string, 0, 1+len(c.FallbackModels))
	for _, m := range append([]string{c.Model}, c.FallbackModels...) {
		m = strings.TrimSpace(m)
		if m == "" || seen[m] {
			continue
		}
		seen[m] = true
		models = append(models, m)
	}
	return models
}

// SplitList 解析逗号分隔列表
func SplitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func normalizePort(v string) string {
	if strings.HasPrefix(v, ":") || strings.Contains(v, ":") {
		return v
	}
	return ":" + v
}

func setString(dst *string, key string, transform func(string) string) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	if transform != nil {
		v = transform(v)
	}
	*dst = v
}

func setInt(dst *int, key string) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	if n, err := strconv.Atoi(v); err == nil {
		*dst = n
	}
}

// NewServerConfig 创建服务器配置
func NewServerConfig(cfg *Config) *ServerConfig {
	return &cfg.Server
}

// NewDatabaseConfig 创建数据库配置
func NewDatabaseConfig(cfg *Config) *DatabaseConfig {
	return &cfg.Database
}

// NewAuthConfig 创建令牌校验配置
func NewAuthConfig(cfg *Config) *AuthConfig {
	return &cfg.Auth
}

// NewProviderConfig 创建 LLM 提供方配置
func NewProviderConfig(cfg *Config) *ProviderConfig {
	return &cfg.Provider
}

// NewEmbeddingConfig 创建向量化配置
func NewEmbeddingConfig(cfg *Config) *EmbeddingConfig {
	return &cfg.Embedding
}

// NewQdrantConfig 创建向量库配置
func NewQdrantConfig(cfg *Config) *QdrantConfig {
	return &cfg.Qdrant
}

// NewRedisConfig 创建缓存配置
func NewRedisConfig(cfg *Config) *RedisConfig {
	return &cfg.Redis
}

// NewChatbotConfig 创建对话配置
func NewChatbotConfig(cfg *Config) *ChatbotConfig {
	return &cfg.Chatbot
}
