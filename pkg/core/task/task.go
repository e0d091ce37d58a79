// Package task 定义构建步骤的基础契约：Task 接口、叶子适配器、执行结果与计时
package task

import "context"

// Task 构建步骤接口（对外导出）
// Description 与 Prefix 只依赖构造时的配置，在 Run 之前、之中、之后都可以调用
type Task interface {
	// Description 稳定的人类可读描述
	Description() string
	// Prefix 日志前缀（emoji 或阶段标记），可以为空
	Prefix() string
	// Run 执行一次任务，只在不可恢复时返回错误，不做内部重试
	Run(ctx context.Context) error
}

// Parent 组合节点实现此接口，用于遍历执行树（对外导出）
type Parent interface {
	Children() []Task
}

// Rendered 返回任务在日志中的完整显示：prefix + description
func Rendered(t Task) string {
	return t.Prefix() + t.Description()
}

// FuncTask 用函数包装的叶子任务（对外导出）
type FuncTask struct {
	description string
	prefix      string
	fn          func(ctx context.Context) error
}

// NewFuncTask 创建函数任务（对外导出）
func NewFuncTask(description, prefix string, fn func(ctx context.Context) error) *FuncTask {
	return &FuncTask{
		description: description,
		prefix:      prefix,
		fn:          fn,
	}
}

// Description 返回描述
func (t *FuncTask) Description() string {
	return t.description
}

// Prefix 返回前缀
func (t *FuncTask) Prefix() string {
	return t.prefix
}

// Run 执行包装的函数，fn 为 nil 时视为成功
func (t *FuncTask) Run(ctx context.Context) error {
	if t.fn == nil {
		return nil
	}
	return t.fn(ctx)
}

// EmptyTask 空任务，用于凑齐只有一个有效分支的并行组（对外导出）
type EmptyTask struct{}

// NewEmptyTask 创建空任务
func NewEmptyTask() EmptyTask {
	return EmptyTask{}
}

// Description 空描述
func (EmptyTask) Description() string { return "" }

// Prefix 空前缀
func (EmptyTask) Prefix() string { return "" }

// Run 立即成功
func (EmptyTask) Run(context.Context) error { return nil }
