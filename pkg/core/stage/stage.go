// Package stage 提供带编号的阶段包装
package stage

import (
	"context"
	"fmt"
	"time"

	"github.com/LENAX/saucer/pkg/core/task"
)

// DefaultPrefix 阶段默认日志前缀
const DefaultPrefix = "🪩 "

// Stage 带编号的阶段，包装一个任务体并记录耗时（对外导出）
type Stage struct {
	stageNum    int
	totalStages int
	body        task.Task
	prefix      string
}

// Option 阶段配置选项
type Option func(*Stage)

// WithPrefix 覆盖默认前缀
func WithPrefix(prefix string) Option {
	return func(s *Stage) {
		s.prefix = prefix
	}
}

// New 创建阶段（对外导出）
// 要求 1 <= stageNum <= totalStages
func New(stageNum, totalStages int, body task.Task, opts ...Option) (*Stage, error) {
	if totalStages < 1 || stageNum < 1 || stageNum > totalStages {
		return nil, fmt.Errorf("invalid stage number %d/%d", stageNum, totalStages)
	}
	if body == nil {
		return nil, fmt.Errorf("stage %d/%d has no body", stageNum, totalStages)
	}
	s := &Stage{
		stageNum:    stageNum,
		totalStages: totalStages,
		body:        body,
		prefix:      DefaultPrefix,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Description 固定为 "stage [n/total]"
func (s *Stage) Description() string {
	return fmt.Sprintf("stage [%d/%d]", s.stageNum, s.totalStages)
}

// Prefix 返回前缀
func (s *Stage) Prefix() string {
	return s.prefix
}

// Number 阶段编号
func (s *Stage) Number() int {
	return s.stageNum
}

// Total 阶段总数
func (s *Stage) Total() int {
	return s.totalStages
}

// Body 返回任务体
func (s *Stage) Body() task.Task {
	return s.body
}

// Children 返回任务体
func (s *Stage) Children() []task.Task {
	return []task.Task{s.body}
}

// Run 执行任务体，失败时返回 *StageError
func (s *Stage) Run(ctx context.Context) error {
	task.Notify(ctx, task.Event{Kind: task.EventStageStarted, Node: s.Description(), Prefix: s.prefix})

	timer := task.StartTimer()
	err := s.body.Run(ctx)
	elapsed := timer.Stop()

	if err != nil {
		task.Logf("%s%s failed in %s", s.prefix, s.Description(), task.FormatElapsed(elapsed))
		stageErr := &StageError{
			Label:   s.Description(),
			Prefix:  s.prefix,
			Elapsed: elapsed,
			Err:     err,
		}
		task.Notify(ctx, task.Event{
			Kind:    task.EventStageFailed,
			Node:    s.Description(),
			Prefix:  s.prefix,
			Elapsed: elapsed,
			Err:     stageErr,
		})
		return stageErr
	}

	task.Logf("%s%s completed in %s", s.prefix, s.Description(), task.FormatElapsed(elapsed))
	task.Notify(ctx, task.Event{
		Kind:    task.EventStageCompleted,
		Node:    s.Description(),
		Prefix:  s.prefix,
		Elapsed: elapsed,
	})
	return nil
}

// StageError 阶段失败，包装任务体的错误（对外导出）
type StageError struct {
	Label   string
	Prefix  string
	Elapsed time.Duration
	Err     error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s%s failed in %s: %v", e.Prefix, e.Label, task.FormatElapsed(e.Elapsed), e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}
