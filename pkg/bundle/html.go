package bundle

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/LENAX/saucer/pkg/core/task"
	"github.com/LENAX/saucer/pkg/fsutil"
	"github.com/aymerick/raymond"
)

const HTMLPrefix = "🛵 "

// HTMLTask 用 awc 配置渲染 handlebars 模板并写入 public 目录（对外导出）
type HTMLTask struct {
	awcConfig    string
	templateFile string
	publicFile   string
}

// NewHTMLTask 创建 HTML 模板任务
func NewHTMLTask(awcConfig, templateFile, publicFile string) *HTMLTask {
	return &HTMLTask{
		awcConfig:    awcConfig,
		templateFile: templateFile,
		publicFile:   publicFile,
	}
}

func (t *HTMLTask) Description() string { return "handlebars" }

func (t *HTMLTask) Prefix() string { return HTMLPrefix }

// Run 读取配置与模板，渲染后写出
func (t *HTMLTask) Run(ctx context.Context) error {
	cfg, err := ReadAwcConfig(t.awcConfig, HTMLPrefix)
	if err != nil {
		return err
	}

	task.Logf("%stemplate file: %s", HTMLPrefix, t.templateFile)
	template, err := fsutil.ReadFile(t.templateFile, HTMLPrefix)
	if err != nil {
		return fmt.Errorf("could not read template HTML: %w", err)
	}

	data, err := cfg.TemplateData(HTMLPrefix)
	if err != nil {
		return err
	}

	task.Logf("%stemplatizing...", HTMLPrefix)
	output, err := raymond.Render(template, data)
	if err != nil {
		return fmt.Errorf("could not render %s: %w", t.templateFile, err)
	}

	if err := fsutil.CreateDir(filepath.Dir(t.publicFile), HTMLPrefix); err != nil {
		return err
	}
	if err := fsutil.WriteFile(t.publicFile, []byte(output), HTMLPrefix); err != nil {
		return fmt.Errorf("could not write templatized HTML: %w", err)
	}
	return nil
}
