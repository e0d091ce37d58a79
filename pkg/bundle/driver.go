package bundle

import (
	"fmt"
	"sort"

	"github.com/LENAX/saucer/pkg/config"
	"github.com/LENAX/saucer/pkg/core/parallel"
	"github.com/LENAX/saucer/pkg/core/pipeline"
	"github.com/LENAX/saucer/pkg/core/stage"
	"github.com/LENAX/saucer/pkg/core/task"
)

const (
	// StagePrefix 并行组的父级前缀
	StagePrefix = "🛸 stage "
	// PipelineName 完整构建流水线名称
	PipelineName = "saucer bundle all"
	// PipelinePrefix 流水线前缀
	PipelinePrefix = "🛸 "
)

// Driver 根据配置组装构建流水线（对外导出）
// 配置只在构造时读取一次
type Driver struct {
	bundle      config.BundleConfig
	publish     config.PublishConfig
	awcConfig   string
	publishOpts []PublishOption
}

// DriverOption Driver 选项
type DriverOption func(*Driver)

// WithPublishOptions 传递给发布任务的选项
func WithPublishOptions(opts ...PublishOption) DriverOption {
	return func(d *Driver) {
		d.publishOpts = append(d.publishOpts, opts...)
	}
}

// NewDriver 创建 Driver
func NewDriver(cfg *config.Config, opts ...DriverOption) *Driver {
	d := &Driver{
		bundle:    cfg.Saucer.Bundle,
		publish:   cfg.Saucer.Publish,
		awcConfig: cfg.AwcConfigPath(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Deps 安装依赖任务
func (d *Driver) Deps() task.Task {
	return NewDepsTask(d.bundle.NpmBin, d.bundle.NpmDir)
}

// CSS 构建 CSS 任务
func (d *Driver) CSS() task.Task {
	return NewCSSTask(d.bundle.NpmBin, d.bundle.NpmDir, d.bundle.CSSScript)
}

// JS 构建 JS 任务
func (d *Driver) JS() task.Task {
	return NewJSTask(d.bundle.NpmBin, d.bundle.NpmDir, d.bundle.JSScript)
}

// HTML 模板渲染任务
func (d *Driver) HTML() task.Task {
	return NewHTMLTask(d.awcConfig, d.bundle.HTML.TemplateFile, d.bundle.HTML.PublicFile)
}

// Bucket 静态资源复制任务
func (d *Driver) Bucket() task.Task {
	return NewBucketTask(d.bundle.Bucket.BucketDir, d.bundle.Bucket.PublicDir)
}

// Verify 资源校验任务
func (d *Driver) Verify() task.Task {
	return NewVerifyTask(d.bundle.HTML.PublicFile, d.bundle.Bucket.PublicDir)
}

// Publish 发布任务
func (d *Driver) Publish() task.Task {
	return NewPublishTask(d.publish, d.bundle.Bucket.PublicDir, d.publishOpts...)
}

// Steps 返回可单独运行的步骤
func (d *Driver) Steps() map[string]task.Task {
	return map[string]task.Task{
		"deps":    d.Deps(),
		"css":     d.CSS(),
		"js":      d.JS(),
		"html":    d.HTML(),
		"bucket":  d.Bucket(),
		"verify":  d.Verify(),
		"publish": d.Publish(),
	}
}

// StepNames 按字母序返回步骤名
func (d *Driver) StepNames() []string {
	steps := d.Steps()
	names := make([]string, 0, len(steps))
	for name := range steps {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Step 按名称返回单个步骤
func (d *Driver) Step(name string) (task.Task, error) {
	t, ok := d.Steps()[name]
	if !ok {
		return nil, fmt.Errorf("unknown bundle step %q", name)
	}
	return t, nil
}

// TotalStages 根据启用的阶段计算总数
func (d *Driver) TotalStages() int {
	total := 2
	if d.bundle.VerifyAssets {
		total++
	}
	if d.publish.Enabled {
		total++
	}
	return total
}

// Pipeline 组装完整流水线
// 阶段1: (html & bucket) & deps，跳过依赖时只有 html & bucket；阶段2: css & js；
// 之后按配置追加校验与发布阶段
func (d *Driver) Pipeline() (*pipeline.Pipeline, error) {
	total := d.TotalStages()

	bodies := []task.Task{d.firstStage(total)}
	bodies = append(bodies, parallel.New(d.CSS(), d.JS(), StagePrefix, len(bodies)+1, total))
	if d.bundle.VerifyAssets {
		bodies = append(bodies, parallel.New(d.Verify(), task.NewEmptyTask(), StagePrefix, len(bodies)+1, total))
	}
	if d.publish.Enabled {
		bodies = append(bodies, d.Publish())
	}

	stages := make([]task.Task, 0, len(bodies))
	for i, body := range bodies {
		st, err := stage.New(i+1, total, body)
		if err != nil {
			return nil, err
		}
		stages = append(stages, st)
	}
	return pipeline.New(PipelineName, PipelinePrefix, stages...), nil
}

func (d *Driver) firstStage(total int) task.Task {
	htmlAndBucket := parallel.New(d.HTML(), d.Bucket(), StagePrefix, 1, total)
	if d.bundle.SkipNodeDeps {
		return htmlAndBucket
	}
	return parallel.New(htmlAndBucket, d.Deps(), StagePrefix, 1, total)
}
