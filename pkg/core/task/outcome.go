package task

import (
	"context"
	"fmt"
	"time"
)

// Cause 一个失败原因：失败节点的描述与底层错误（对外导出）
type Cause struct {
	Description string
	Err         error
}

// String 渲染为 "description: err"
func (c Cause) String() string {
	if c.Description == "" {
		return c.Err.Error()
	}
	return fmt.Sprintf("%s: %v", c.Description, c.Err)
}

// MultiCause 由组合错误实现，直接暴露子节点的失败原因（对外导出）
type MultiCause interface {
	error
	Causes() []Cause
}

// Outcome 一次执行的结果（对外导出）
// Causes 为空表示成功
type Outcome struct {
	Elapsed time.Duration
	Causes  []Cause
	Err     error
}

// Success 是否成功
func (o Outcome) Success() bool {
	return len(o.Causes) == 0
}

// NewOutcome 根据任务与其返回的错误构造结果
// 错误本身实现 MultiCause 时（并行组）保留其 1 或 2 个原因，其余错误归为一个原因
func NewOutcome(t Task, err error, elapsed time.Duration) Outcome {
	o := Outcome{Elapsed: elapsed, Err: err}
	if err == nil {
		return o
	}
	if mc, ok := err.(MultiCause); ok {
		o.Causes = mc.Causes()
		return o
	}
	o.Causes = []Cause{{Description: t.Description(), Err: err}}
	return o
}

// Execute 计时执行任务并返回结果
func Execute(ctx context.Context, t Task) Outcome {
	timer := StartTimer()
	err := t.Run(ctx)
	return NewOutcome(t, err, timer.Stop())
}
