// Package config 加载 saucer 的 YAML 配置与环境变量覆盖
package config

import (
	"path/filepath"
	"time"
)

// Config saucer 配置（对外导出）
type Config struct {
	Saucer struct {
		General  GeneralConfig  `yaml:"general"`
		Bundle   BundleConfig   `yaml:"bundle"`
		Publish  PublishConfig  `yaml:"publish"`
		History  HistoryConfig  `yaml:"history"`
		Notify   NotifyConfig   `yaml:"notify"`
		Server   ServerConfig   `yaml:"server"`
		Schedule ScheduleConfig `yaml:"schedule"`
	} `yaml:"saucer"`
}

// GeneralConfig 通用配置
type GeneralConfig struct {
	LogLevel string `yaml:"log_level"`
	Env      string `yaml:"env"`
}

// BundleConfig 前端构建配置
type BundleConfig struct {
	WorkDir      string `yaml:"work_dir"`
	NpmBin       string `yaml:"npm_bin"`
	NpmDir       string `yaml:"npm_dir"`
	CSSScript    string `yaml:"css_script"`
	JSScript     string `yaml:"js_script"`
	SkipNodeDeps bool   `yaml:"skip_node_deps"`
	VerifyAssets bool   `yaml:"verify_assets"`
	HTML         struct {
		AwcConfig    string `yaml:"awc_config"`
		TemplateFile string `yaml:"template_file"`
		PublicFile   string `yaml:"public_file"`
	} `yaml:"html"`
	Bucket struct {
		BucketDir string `yaml:"bucket_dir"`
		PublicDir string `yaml:"public_dir"`
	} `yaml:"bucket"`
}

// PublishConfig S3 兼容对象存储发布配置
type PublishConfig struct {
	Enabled      bool   `yaml:"enabled"`
	Endpoint     string `yaml:"endpoint"`
	AccessKey    string `yaml:"access_key"`
	SecretKey    string `yaml:"secret_key"`
	UseSSL       bool   `yaml:"use_ssl"`
	Bucket       string `yaml:"bucket"`
	ObjectPrefix string `yaml:"object_prefix"`
	MaxRetries   uint64 `yaml:"max_retries"`
}

// HistoryConfig 运行历史存储配置
type HistoryConfig struct {
	Enabled bool   `yaml:"enabled"`
	Type    string `yaml:"type"`
	DSN     string `yaml:"dsn"`
}

// NotifyConfig 运行结果通知配置
type NotifyConfig struct {
	Log bool `yaml:"log"`
	// Timeout 单个通知插件的执行上限
	Timeout time.Duration `yaml:"timeout"`
	Kafka   struct {
		Enabled bool     `yaml:"enabled"`
		Brokers []string `yaml:"brokers"`
		Topic   string   `yaml:"topic"`
	} `yaml:"kafka"`
	Email struct {
		Enabled  bool   `yaml:"enabled"`
		SMTPHost string `yaml:"smtp_host"`
		SMTPPort string `yaml:"smtp_port"`
		Username string `yaml:"username"`
		Password string `yaml:"password"`
		From     string `yaml:"from"`
		To       string `yaml:"to"`
	} `yaml:"email"`
}

// ServerConfig HTTP 状态接口配置
type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// ScheduleConfig 定时构建配置
type ScheduleConfig struct {
	Cron string `yaml:"cron"`
}

const (
	defaultWorkDir      = "awc-web"
	defaultTemplateFile = "src/browser/template.html"
	defaultPublicFile   = "public/index.html"
	defaultBucketDir    = "src/browser/bucket"
	defaultPublicDir    = "src/server/public"
)

// Default 返回填充了默认值的配置
func Default() *Config {
	cfg := &Config{}
	cfg.ApplyDefaults()
	return cfg
}

// ApplyDefaults 应用默认值
func (c *Config) ApplyDefaults() {
	s := &c.Saucer

	// General默认值
	if s.General.LogLevel == "" {
		s.General.LogLevel = "info"
	}
	if s.General.Env == "" {
		s.General.Env = "dev"
	}

	// Bundle默认值，相对路径基于 work_dir
	if s.Bundle.WorkDir == "" {
		s.Bundle.WorkDir = defaultWorkDir
	}
	if s.Bundle.NpmBin == "" {
		s.Bundle.NpmBin = "npm"
	}
	if s.Bundle.CSSScript == "" {
		s.Bundle.CSSScript = "build:css"
	}
	if s.Bundle.JSScript == "" {
		s.Bundle.JSScript = "build:js"
	}
	if s.Bundle.HTML.TemplateFile == "" {
		s.Bundle.HTML.TemplateFile = filepath.Join(s.Bundle.WorkDir, defaultTemplateFile)
	}
	if s.Bundle.HTML.PublicFile == "" {
		s.Bundle.HTML.PublicFile = filepath.Join(s.Bundle.WorkDir, defaultPublicFile)
	}
	if s.Bundle.Bucket.BucketDir == "" {
		s.Bundle.Bucket.BucketDir = filepath.Join(s.Bundle.WorkDir, defaultBucketDir)
	}
	if s.Bundle.Bucket.PublicDir == "" {
		s.Bundle.Bucket.PublicDir = filepath.Join(s.Bundle.WorkDir, defaultPublicDir)
	}

	// Publish默认值
	if s.Publish.MaxRetries == 0 {
		s.Publish.MaxRetries = 3
	}

	// History默认值
	if s.History.Type == "" {
		s.History.Type = "sqlite"
	}
	if s.History.DSN == "" && s.History.Type == "sqlite" {
		s.History.DSN = "saucer_history.db"
	}

	// Notify默认值
	if s.Notify.Kafka.Topic == "" {
		s.Notify.Kafka.Topic = "saucer.runs"
	}
	if s.Notify.Timeout <= 0 {
		s.Notify.Timeout = 30 * time.Second
	}

	// Server默认值
	if s.Server.Host == "" {
		s.Server.Host = "0.0.0.0"
	}
	if s.Server.Port <= 0 {
		s.Server.Port = 8080
	}
	if s.Server.ShutdownTimeout <= 0 {
		s.Server.ShutdownTimeout = 30 * time.Second
	}
}

// AwcConfigPath 返回 awc 配置文件路径
// 未显式配置时按环境选择：production 使用 awc.prod.json，其余使用 awc.dev.json
func (c *Config) AwcConfigPath() string {
	if c.Saucer.Bundle.HTML.AwcConfig != "" {
		return c.Saucer.Bundle.HTML.AwcConfig
	}
	name := "awc.dev.json"
	if c.Saucer.General.Env == "production" {
		name = "awc.prod.json"
	}
	return filepath.Join(c.Saucer.Bundle.WorkDir, name)
}

// IsDebug 是否为 debug 日志级别
func (c *Config) IsDebug() bool {
	return c.Saucer.General.LogLevel == "debug"
}
