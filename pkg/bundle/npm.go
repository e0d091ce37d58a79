// Package bundle 组装前端构建流水线：npm 依赖、CSS、JS、HTML 模板、静态资源复制、校验与发布
package bundle

import (
	"context"

	"github.com/LENAX/saucer/pkg/process"
)

const (
	DepsPrefix = "⬇️  "
	CSSPrefix  = "💅 "
	JSPrefix   = "⚡ "
)

// NpmTask 运行一条 npm 命令的任务（对外导出）
type NpmTask struct {
	description string
	prefix      string
	bin         string
	args        []string
	dir         string
}

// NewNpmTask 创建 npm 任务
func NewNpmTask(description, prefix, bin, dir string, args ...string) *NpmTask {
	return &NpmTask{
		description: description,
		prefix:      prefix,
		bin:         bin,
		args:        args,
		dir:         dir,
	}
}

// NewDepsTask 安装 npm 依赖
func NewDepsTask(bin, dir string) *NpmTask {
	return NewNpmTask("installing npm dependencies", DepsPrefix, bin, dir, "install")
}

// NewCSSTask 构建 CSS（tailwindcss）
func NewCSSTask(bin, dir, script string) *NpmTask {
	return NewNpmTask("tailwindcss", CSSPrefix, bin, dir, "run", script)
}

// NewJSTask 构建 JS（webpack/swc）
func NewJSTask(bin, dir, script string) *NpmTask {
	return NewNpmTask("webpack/swc", JSPrefix, bin, dir, "run", script)
}

func (t *NpmTask) Description() string { return t.description }

func (t *NpmTask) Prefix() string { return t.prefix }

// Command 返回命令描述，如 "$ npm run build:css"
func (t *NpmTask) Command() string {
	return process.Describe(t.bin, t.args...)
}

// Run 查找可执行文件并运行命令
func (t *NpmTask) Run(ctx context.Context) error {
	p, err := process.New(t.bin, t.args...)
	if err != nil {
		return err
	}
	return p.Run(ctx, process.RunOptions{Prefix: t.prefix, Dir: t.dir})
}
