package bundle

import (
	"encoding/json"
	"fmt"

	"github.com/LENAX/saucer/pkg/core/task"
	"github.com/LENAX/saucer/pkg/fsutil"
)

// AwcConfig awc.json 内容
type AwcConfig struct {
	BaseURL               string `json:"base_url"`
	PlaceholderSchemaPath string `json:"placeholder_schema_path"`
}

// ReadAwcConfig 从磁盘读取 awc.json
func ReadAwcConfig(path, prefix string) (*AwcConfig, error) {
	contents, err := fsutil.ReadFile(path, prefix)
	if err != nil {
		return nil, fmt.Errorf("could not read awc config: %w", err)
	}
	var cfg AwcConfig
	if err := json.Unmarshal([]byte(contents), &cfg); err != nil {
		return nil, fmt.Errorf("%sinvalid config at %s: %w", prefix, path, err)
	}
	return &cfg, nil
}

// TemplateData 返回模板渲染数据，会读取 placeholder schema 文件
func (c *AwcConfig) TemplateData(prefix string) (map[string]interface{}, error) {
	schema, err := fsutil.ReadFile(c.PlaceholderSchemaPath, prefix)
	if err != nil {
		return nil, fmt.Errorf("could not read schema file designated in placeholder_schema_path: %w", err)
	}
	data := map[string]interface{}{
		"BASE_URL":           c.BaseURL,
		"PLACEHOLDER_SCHEMA": schema,
	}
	task.Logf("%stemplate data: BASE_URL=%s, PLACEHOLDER_SCHEMA=%d bytes", prefix, c.BaseURL, len(schema))
	return data, nil
}
