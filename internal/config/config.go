package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config 应用配置
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Postgres PostgresConfig `yaml:"postgres"`
	Redis    RedisConfig    `yaml:"redis"`
	Gemini   GeminiConfig   `yaml:"gemini"`
	JWT      JWTConfig      `yaml:"jwt"`
	Services ServicesConfig `yaml:"services"`
	Risk     RiskConfig     `yaml:"risk"`
	Log      LogConfig      `yaml:"log"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Port int    `yaml:"port"`
	Name string `yaml:"name"`
}

// PostgresConfig 数据库配置
type PostgresConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbName"`
}

// DSN 拼接 Postgres 连接串
func (c PostgresConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s",
		c.User, c.Password, c.Host, c.Port, c.DBName)
}

// RedisConfig Redis 配置
type RedisConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// GeminiConfig Gemini 配置
type GeminiConfig struct {
	APIKey         string `yaml:"apiKey"`
	Model          string `yaml:"model"`
	EmbeddingModel string `yaml:"embeddingModel"`
}

// JWTConfig 令牌配置
type JWTConfig struct {
	Secret            string `yaml:"secret"`
	AccessTTLSeconds  int    `yaml:"accessTtlSeconds"`  // 默认 3600
	RefreshTTLSeconds int    `yaml:"refreshTtlSeconds"` // 默认 2592000（30 天）
}

// ServicesConfig 服务地址配置
type ServicesConfig struct {
	LLMGateway string `yaml:"llmGateway"`
}

// RiskConfig 风险分级策略配置
type RiskConfig struct {
	Cumulative     bool `yaml:"cumulative"`     // true 时按整个会话累计得分判级
	TimeoutSeconds int  `yaml:"timeoutSeconds"` // 生成请求超时，默认 30 秒
}

// LogConfig 日志配置
type LogConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// LoadConfig 加载配置文件
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

// applyDefaults 填充缺省值
func applyDefaults(cfg *Config) {
	if cfg.JWT.AccessTTLSeconds == 0 {
		cfg.JWT.AccessTTLSeconds = 3600
	}
	if cfg.JWT.RefreshTTLSeconds == 0 {
		cfg.JWT.RefreshTTLSeconds = 2592000
	}
	if cfg.Risk.TimeoutSeconds == 0 {
		cfg.Risk.TimeoutSeconds = 30
	}
	if cfg.Gemini.Model == "" {
		cfg.Gemini.Model = "gemini-2.5-flash"
	}
	if cfg.Gemini.EmbeddingModel == "" {
		cfg.Gemini.EmbeddingModel = "text-embedding-004"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
}
