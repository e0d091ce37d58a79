// Package parallel 提供二叉 fork-join 并行组
package parallel

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/LENAX/saucer/pkg/core/task"
)

// Group 并行组：同时运行两个子任务，并且总是等待两者都结束（对外导出）
// 任何一个子任务失败都不会取消另一个
type Group struct {
	first       task.Task
	second      task.Task
	prefix      string
	stageNum    int
	totalStages int
}

// New 创建并行组（对外导出）
// prefix 是父级前缀（如 "🛸 stage "），stageNum/totalStages 用于生成位置标签
func New(first, second task.Task, prefix string, stageNum, totalStages int) *Group {
	return &Group{
		first:       first,
		second:      second,
		prefix:      prefix,
		stageNum:    stageNum,
		totalStages: totalStages,
	}
}

// Prefix 返回 "{prefix}[{n}/{total}] "
func (g *Group) Prefix() string {
	return fmt.Sprintf("%s[%d/%d] ", g.prefix, g.stageNum, g.totalStages)
}

// Description 组合两个子任务的显示文本
// 已经带有父级前缀的子任务（嵌套组）不再重复显示，两者都为空时返回位置标签
func (g *Group) Description() string {
	first := g.contribution(g.first)
	second := g.contribution(g.second)
	switch {
	case first == "" && second == "":
		return g.Prefix()
	case first == "":
		return second
	case second == "":
		return first
	default:
		return first + " & " + second
	}
}

// Children 返回两个子任务
func (g *Group) Children() []task.Task {
	return []task.Task{g.first, g.second}
}

func (g *Group) contribution(child task.Task) string {
	rendered := task.Rendered(child)
	if g.prefix != "" && strings.Contains(rendered, g.prefix) {
		return ""
	}
	return rendered
}

// Run 并发执行两个子任务并汇总错误
func (g *Group) Run(ctx context.Context) error {
	timer := task.StartTimer()

	var wg sync.WaitGroup
	var firstErr, secondErr error
	wg.Add(2)
	go func() {
		defer wg.Done()
		firstErr = runChild(ctx, g.first)
	}()
	go func() {
		defer wg.Done()
		secondErr = runChild(ctx, g.second)
	}()
	wg.Wait()

	elapsed := timer.Stop()

	switch {
	case firstErr == nil && secondErr == nil:
		task.Logf("%s%s completed in %s", g.Prefix(), g.Description(), task.FormatElapsed(elapsed))
		return nil
	case secondErr == nil:
		return g.singleFailure(g.first, firstErr, elapsed)
	case firstErr == nil:
		return g.singleFailure(g.second, secondErr, elapsed)
	default:
		return g.doubleFailure(firstErr, secondErr, elapsed)
	}
}

// runChild 执行一个子任务，panic 被转换为错误，结束时发送节点事件
func runChild(ctx context.Context, child task.Task) (err error) {
	timer := task.StartTimer()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("task panicked: %v", r)
		}
		event := task.Event{
			Kind:    task.EventNodeCompleted,
			Node:    child.Description(),
			Prefix:  child.Prefix(),
			Elapsed: timer.Stop(),
		}
		if err != nil {
			event.Kind = task.EventNodeFailed
			event.Err = err
		}
		if _, empty := child.(task.EmptyTask); !empty {
			task.Notify(ctx, event)
		}
	}()
	return child.Run(ctx)
}
