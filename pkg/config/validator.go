package config

import "fmt"

// Validate 校验配置合法性
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("配置不能为空")
	}
	s := cfg.Saucer

	// 校验General
	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[s.General.LogLevel] {
		return fmt.Errorf("log_level必须是debug/info/warn/error之一")
	}

	// 校验Bundle
	if s.Bundle.NpmBin == "" {
		return fmt.Errorf("bundle.npm_bin不能为空")
	}
	if s.Bundle.HTML.TemplateFile == "" || s.Bundle.HTML.PublicFile == "" {
		return fmt.Errorf("bundle.html.template_file与public_file不能为空")
	}
	if s.Bundle.Bucket.BucketDir == "" || s.Bundle.Bucket.PublicDir == "" {
		return fmt.Errorf("bundle.bucket.bucket_dir与public_dir不能为空")
	}

	// 校验Publish
	if s.Publish.Enabled {
		if s.Publish.Endpoint == "" {
			return fmt.Errorf("publish.endpoint不能为空")
		}
		if s.Publish.Bucket == "" {
			return fmt.Errorf("publish.bucket不能为空")
		}
	}

	// 校验History
	if s.History.Enabled {
		validDBTypes := map[string]bool{
			"sqlite":     true,
			"postgres":   true,
			"postgresql": true,
			"mysql":      true,
		}
		if !validDBTypes[s.History.Type] {
			return fmt.Errorf("history.type必须是sqlite/postgres/mysql之一")
		}
		if s.History.DSN == "" {
			return fmt.Errorf("history.dsn不能为空")
		}
	}

	// 校验Notify
	if s.Notify.Kafka.Enabled {
		if len(s.Notify.Kafka.Brokers) == 0 {
			return fmt.Errorf("notify.kafka.brokers不能为空")
		}
		if s.Notify.Kafka.Topic == "" {
			return fmt.Errorf("notify.kafka.topic不能为空")
		}
	}
	if s.Notify.Email.Enabled {
		if s.Notify.Email.SMTPHost == "" || s.Notify.Email.To == "" {
			return fmt.Errorf("notify.email.smtp_host与to不能为空")
		}
	}

	// 校验Server
	if s.Server.Port <= 0 || s.Server.Port > 65535 {
		return fmt.Errorf("server.port必须在1-65535之间")
	}

	return nil
}
