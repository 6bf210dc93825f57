package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"resume-insight-go/internal/logger"
)

// GatewayConfig 远程简历评估服务的访问配置
type GatewayConfig struct {
	BaseURL string `yaml:"base_url"` // 例如 "http://localhost:8000"
	// 超时设置
	TimeoutSeconds int `yaml:"timeout_seconds"` // 单次请求超时(秒)
	// 请求元数据
	UserAgent string `yaml:"user_agent"` // User-Agent头，为空时使用默认值
}

// UploadConfig 上传约束配置
type UploadConfig struct {
	MaxSizeMB int `yaml:"max_size_mb"` // 上传文件大小上限(MB)，服务端建议不超过10MB
}

// Config 应用程序配置
type Config struct {
	// 远程服务配置
	Gateway GatewayConfig `yaml:"gateway"`

	// 上传约束配置
	Upload UploadConfig `yaml:"upload"`

	// 日志配置
	Logger logger.Config `yaml:"logger"`
}

const (
	defaultTimeoutSeconds = 60
	defaultMaxSizeMB      = 10
	defaultUserAgent      = "resume-insight-go/1.0"

	// EnvBaseURL 环境变量优先于配置文件中的 base_url
	EnvBaseURL = "RESUME_SERVICE_URL"
)

// LoadConfig 从YAML文件加载配置并应用默认值
func LoadConfig(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}

	applyDefaults(&config)

	// 环境变量覆盖服务地址，便于不改配置文件切换环境
	if envURL := os.Getenv(EnvBaseURL); envURL != "" {
		config.Gateway.BaseURL = envURL
	}

	if config.Gateway.BaseURL == "" {
		return nil, fmt.Errorf("未配置远程服务地址: 需要 gateway.base_url 或环境变量 %s", EnvBaseURL)
	}

	return &config, nil
}

func applyDefaults(config *Config) {
	if config.Gateway.TimeoutSeconds <= 0 {
		config.Gateway.TimeoutSeconds = defaultTimeoutSeconds
	}
	if config.Gateway.UserAgent == "" {
		config.Gateway.UserAgent = defaultUserAgent
	}
	if config.Upload.MaxSizeMB <= 0 {
		config.Upload.MaxSizeMB = defaultMaxSizeMB
	}
	if config.Logger.Level == "" {
		config.Logger.Level = "info"
	}
	if config.Logger.Format == "" {
		config.Logger.Format = "pretty"
	}
}

// Timeout 返回网关请求超时时间
func (c *GatewayConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// MaxSizeBytes 返回上传大小上限(字节)
func (c *UploadConfig) MaxSizeBytes() int64 {
	return int64(c.MaxSizeMB) * 1024 * 1024
}
