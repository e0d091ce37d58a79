package task

import (
	"context"
	"time"
)

// context key类型，用于类型安全的context.Value访问
type contextKey string

const (
	// RunIDKey 运行ID在context中的key
	RunIDKey contextKey = "saucer.run.id"
	// ObserverKey 观察者在context中的key
	ObserverKey contextKey = "saucer.observer"
)

// EventKind 执行事件类型（对外导出）
type EventKind string

const (
	EventRunStarted     EventKind = "run.started"
	EventRunCompleted   EventKind = "run.completed"
	EventRunFailed      EventKind = "run.failed"
	EventStageStarted   EventKind = "stage.started"
	EventStageCompleted EventKind = "stage.completed"
	EventStageFailed    EventKind = "stage.failed"
	EventNodeCompleted  EventKind = "node.completed"
	EventNodeFailed     EventKind = "node.failed"
)

// AllEventKinds 返回全部事件类型
func AllEventKinds() []EventKind {
	return []EventKind{
		EventRunStarted, EventRunCompleted, EventRunFailed,
		EventStageStarted, EventStageCompleted, EventStageFailed,
		EventNodeCompleted, EventNodeFailed,
	}
}

// Event 执行过程中产生的事件（对外导出）
type Event struct {
	Kind    EventKind
	RunID   string
	Node    string
	Prefix  string
	Elapsed time.Duration
	Err     error
	Time    time.Time
}

// Observer 事件观察者（对外导出）
// 并行组会从多个goroutine调用 Notify，实现必须是并发安全的
type Observer interface {
	Notify(event Event)
}

// ObserverFunc 函数形式的观察者
type ObserverFunc func(event Event)

// Notify 调用函数本身
func (f ObserverFunc) Notify(event Event) {
	f(event)
}

// WithObserver 将观察者添加到context中（对外导出）
func WithObserver(ctx context.Context, obs Observer) context.Context {
	return context.WithValue(ctx, ObserverKey, obs)
}

// GetObserver 从context中获取观察者（对外导出）
func GetObserver(ctx context.Context) Observer {
	if obs, ok := ctx.Value(ObserverKey).(Observer); ok {
		return obs
	}
	return nil
}

// WithRunID 将运行ID添加到context中（对外导出）
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, RunIDKey, runID)
}

// GetRunID 从context中获取运行ID（对外导出）
func GetRunID(ctx context.Context) string {
	if id, ok := ctx.Value(RunIDKey).(string); ok {
		return id
	}
	return ""
}

// Notify 向context中的观察者发送事件，没有观察者时什么也不做
func Notify(ctx context.Context, event Event) {
	obs := GetObserver(ctx)
	if obs == nil {
		return
	}
	if event.RunID == "" {
		event.RunID = GetRunID(ctx)
	}
	if event.Time.IsZero() {
		event.Time = time.Now()
	}
	obs.Notify(event)
}
