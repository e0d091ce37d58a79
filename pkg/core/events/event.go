// Package events 基于 watermill 的执行进度事件总线
package events

import (
	"time"

	"github.com/LENAX/saucer/pkg/core/task"
	"github.com/google/uuid"
)

// Message 事件的序列化形式（对外导出）
type Message struct {
	ID        string         `json:"id"`     // 事件ID（UUID）
	Kind      task.EventKind `json:"kind"`   // 事件类型
	RunID     string         `json:"run_id"` // 运行ID
	Node      string         `json:"node"`   // 节点描述
	Prefix    string         `json:"prefix"` // 节点前缀
	ElapsedMs int64          `json:"elapsed_ms"`
	Elapsed   string         `json:"elapsed,omitempty"`
	Error     string         `json:"error,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// FromEvent 将执行事件转换为消息
func FromEvent(event task.Event) *Message {
	msg := &Message{
		ID:        uuid.NewString(),
		Kind:      event.Kind,
		RunID:     event.RunID,
		Node:      event.Node,
		Prefix:    event.Prefix,
		ElapsedMs: event.Elapsed.Milliseconds(),
		Timestamp: event.Time,
	}
	if event.Elapsed > 0 {
		msg.Elapsed = task.FormatElapsed(event.Elapsed)
	}
	if event.Err != nil {
		msg.Error = event.Err.Error()
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}
	return msg
}

// Failed 是否为失败事件
func (m *Message) Failed() bool {
	switch m.Kind {
	case task.EventRunFailed, task.EventStageFailed, task.EventNodeFailed:
		return true
	}
	return false
}
