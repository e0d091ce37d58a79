package parallel

import (
	"fmt"
	"strings"
	"time"

	"github.com/LENAX/saucer/pkg/core/task"
)

// GroupError 并行组的失败结果，携带 1 或 2 个原因（对外导出）
type GroupError struct {
	Header  string
	Elapsed time.Duration
	causes  []task.Cause
}

// Error 单个原因时为 "header: err"，两个原因时逐行列出
func (e *GroupError) Error() string {
	if len(e.causes) == 1 {
		return e.Header + ": " + e.causes[0].Err.Error()
	}
	var b strings.Builder
	b.WriteString(e.Header)
	for i, c := range e.causes {
		fmt.Fprintf(&b, "\n  [%d] %s", i+1, indent(c.Err.Error()))
	}
	return b.String()
}

// Causes 按子任务顺序返回失败原因
func (e *GroupError) Causes() []task.Cause {
	out := make([]task.Cause, len(e.causes))
	copy(out, e.causes)
	return out
}

// Unwrap 支持 errors.Is / errors.As 穿透到每个原因
func (e *GroupError) Unwrap() []error {
	errs := make([]error, 0, len(e.causes))
	for _, c := range e.causes {
		errs = append(errs, c.Err)
	}
	return errs
}

// singleFailure 头部用组的位置标签代替组合描述，失败的子任务描述只出现一次
func (g *Group) singleFailure(child task.Task, err error, elapsed time.Duration) *GroupError {
	label := g.contribution(child)
	header := fmt.Sprintf("%s❌ failed with 1 error in %s", g.Prefix(), task.FormatElapsed(elapsed))
	if label != "" {
		header = fmt.Sprintf("%s%s❌ %s failed with 1 error in %s",
			g.Prefix(), child.Prefix(), child.Description(), task.FormatElapsed(elapsed))
	}
	return &GroupError{
		Header:  header,
		Elapsed: elapsed,
		causes:  []task.Cause{{Description: child.Description(), Err: err}},
	}
}

func (g *Group) doubleFailure(firstErr, secondErr error, elapsed time.Duration) *GroupError {
	header := fmt.Sprintf("%s%s%s❌ '%s' failed with 2 errors in %s",
		g.Prefix(), g.first.Prefix(), g.second.Prefix(), g.Description(), task.FormatElapsed(elapsed))
	return &GroupError{
		Header:  header,
		Elapsed: elapsed,
		causes: []task.Cause{
			{Description: g.first.Description(), Err: firstErr},
			{Description: g.second.Description(), Err: secondErr},
		},
	}
}

func indent(s string) string {
	return strings.ReplaceAll(s, "\n", "\n    ")
}
