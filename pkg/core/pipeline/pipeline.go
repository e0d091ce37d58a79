// Package pipeline 按顺序执行阶段，第一个失败的阶段终止整个流水线
package pipeline

import (
	"context"
	"time"

	"github.com/LENAX/saucer/pkg/core/task"
	"github.com/google/uuid"
)

// Pipeline 阶段序列，本身也是一个 Task（对外导出）
type Pipeline struct {
	name   string
	prefix string
	stages []task.Task
}

// New 创建流水线（对外导出）
func New(name, prefix string, stages ...task.Task) *Pipeline {
	return &Pipeline{
		name:   name,
		prefix: prefix,
		stages: stages,
	}
}

// Description 返回流水线名称
func (p *Pipeline) Description() string {
	return p.name
}

// Prefix 返回前缀
func (p *Pipeline) Prefix() string {
	return p.prefix
}

// Stages 返回阶段列表
func (p *Pipeline) Stages() []task.Task {
	return p.stages
}

// Children 返回阶段列表
func (p *Pipeline) Children() []task.Task {
	return p.stages
}

// Run 顺序执行所有阶段，返回第一个失败阶段的错误
func (p *Pipeline) Run(ctx context.Context) error {
	return p.Execute(ctx).Err
}

// StageReport 单个阶段的执行记录（对外导出）
type StageReport struct {
	Number      int
	Description string
	Prefix      string
	Skipped     bool
	Outcome     task.Outcome
}

// Status 阶段状态：success / failed / skipped
func (s StageReport) Status() string {
	switch {
	case s.Skipped:
		return StatusSkipped
	case s.Outcome.Success():
		return StatusSuccess
	default:
		return StatusFailed
	}
}

const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
	StatusSkipped = "skipped"
)

// Report 一次流水线执行的完整记录（对外导出）
type Report struct {
	RunID     string
	Name      string
	StartedAt time.Time
	Elapsed   time.Duration
	Stages    []StageReport
	Err       error
}

// Success 是否全部阶段成功
func (r *Report) Success() bool {
	return r.Err == nil
}

// Status 整体状态
func (r *Report) Status() string {
	if r.Success() {
		return StatusSuccess
	}
	return StatusFailed
}

// Execute 执行流水线并返回报告
// context 中没有运行ID时生成一个新的 uuid
func (p *Pipeline) Execute(ctx context.Context) *Report {
	runID := task.GetRunID(ctx)
	if runID == "" {
		runID = uuid.NewString()
		ctx = task.WithRunID(ctx, runID)
	}

	report := &Report{
		RunID:     runID,
		Name:      p.name,
		StartedAt: time.Now(),
		Stages:    make([]StageReport, 0, len(p.stages)),
	}
	task.Notify(ctx, task.Event{Kind: task.EventRunStarted, Node: p.name, Prefix: p.prefix})

	timer := task.StartTimer()
	for i, st := range p.stages {
		sr := StageReport{
			Number:      i + 1,
			Description: st.Description(),
			Prefix:      st.Prefix(),
		}
		if report.Err != nil {
			sr.Skipped = true
			report.Stages = append(report.Stages, sr)
			continue
		}
		sr.Outcome = task.Execute(ctx, st)
		if !sr.Outcome.Success() {
			report.Err = sr.Outcome.Err
		}
		report.Stages = append(report.Stages, sr)
	}
	report.Elapsed = timer.Stop()

	event := task.Event{Kind: task.EventRunCompleted, Node: p.name, Prefix: p.prefix, Elapsed: report.Elapsed}
	if report.Err != nil {
		event.Kind = task.EventRunFailed
		event.Err = report.Err
	}
	task.Notify(ctx, event)
	return report
}
