package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Load 加载配置文件，依次应用环境变量覆盖、默认值与校验
// 文件不存在时使用默认配置
func Load(path string) (*Config, error) {
	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			// 使用默认配置
		case err != nil:
			return nil, fmt.Errorf("读取配置文件失败 %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("解析配置文件失败 %s: %w", path, err)
			}
		}
	}

	if err := ApplyEnv(&cfg, os.LookupEnv); err != nil {
		return nil, err
	}
	cfg.ApplyDefaults()
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LookupFunc 环境变量查询函数，签名与 os.LookupEnv 一致
type LookupFunc func(key string) (string, bool)

// ApplyEnv 应用环境变量覆盖
func ApplyEnv(cfg *Config, lookup LookupFunc) error {
	s := &cfg.Saucer

	if v, ok := lookup("AWC_SKIP_NODE_DEPS"); ok && v != "" {
		b, err := parseBool(v)
		if err != nil {
			return fmt.Errorf("AWC_SKIP_NODE_DEPS: %w", err)
		}
		s.Bundle.SkipNodeDeps = b
	}
	if v, ok := lookup("AWC_CONFIG"); ok && v != "" {
		s.Bundle.HTML.AwcConfig = v
	}
	if v, ok := lookup("AWC_ENV"); ok && v != "" {
		s.General.Env = v
	}
	if v, ok := lookup("MINIO_ENDPOINT"); ok && v != "" {
		s.Publish.Endpoint = v
	}
	if v, ok := lookup("MINIO_ACCESS_KEY"); ok && v != "" {
		s.Publish.AccessKey = v
	}
	if v, ok := lookup("MINIO_SECRET_KEY"); ok && v != "" {
		s.Publish.SecretKey = v
	}
	if v, ok := lookup("MINIO_USE_SSL"); ok && v != "" {
		b, err := parseBool(v)
		if err != nil {
			return fmt.Errorf("MINIO_USE_SSL: %w", err)
		}
		s.Publish.UseSSL = b
	}
	if v, ok := lookup("MINIO_BUCKET"); ok && v != "" {
		s.Publish.Bucket = v
	}
	if v, ok := lookup("SAUCER_HISTORY_DSN"); ok && v != "" {
		s.History.DSN = v
	}
	return nil
}

// parseBool 空字符串视为 false，其余按 strconv.ParseBool 解析
func parseBool(v string) (bool, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return false, nil
	}
	return strconv.ParseBool(v)
}
