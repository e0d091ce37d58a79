package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/LENAX/saucer/pkg/core/task"
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// Handler 事件处理函数
type Handler func(msg *Message) error

// Bus 进度事件总线，实现 task.Observer（对外导出）
// 每种事件类型对应一个 topic
type Bus struct {
	pubsub *gochannel.GoChannel
	router *message.Router
	logger watermill.LoggerAdapter

	mu      sync.Mutex
	ctx     context.Context
	cancel  context.CancelFunc
	running bool
	wg      sync.WaitGroup
}

// Option 总线选项
type Option func(*busOptions)

type busOptions struct {
	debug bool
	trace bool
}

// WithDebug 打开 watermill 调试日志
func WithDebug(debug bool) Option {
	return func(o *busOptions) {
		o.debug = debug
	}
}

// WithTrace 打开 watermill trace 日志
func WithTrace(trace bool) Option {
	return func(o *busOptions) {
		o.trace = trace
	}
}

// NewBus 创建事件总线
func NewBus(opts ...Option) (*Bus, error) {
	options := &busOptions{}
	for _, opt := range opts {
		opt(options)
	}

	// 创建 Watermill logger
	logger := watermill.NewStdLogger(options.debug, options.trace)

	// 创建 Pub/Sub
	pubsub := gochannel.NewGoChannel(
		gochannel.Config{
			Persistent:                     false,
			BlockPublishUntilSubscriberAck: false,
		},
		logger,
	)

	// 创建消息路由器
	router, err := message.NewRouter(message.RouterConfig{}, logger)
	if err != nil {
		return nil, fmt.Errorf("创建消息路由器失败: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Bus{
		pubsub: pubsub,
		router: router,
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
	}, nil
}

// Subscribe 订阅事件，kinds 为空时订阅全部类型
// 总线启动后订阅的处理器会立即运行
func (b *Bus) Subscribe(name string, handler Handler, kinds ...task.EventKind) error {
	if handler == nil {
		return fmt.Errorf("处理函数不能为空")
	}
	if len(kinds) == 0 {
		kinds = task.AllEventKinds()
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	for _, kind := range kinds {
		b.router.AddNoPublisherHandler(
			fmt.Sprintf("%s_%s", name, kind),
			string(kind),
			b.pubsub,
			func(msg *message.Message) error {
				var m Message
				if err := json.Unmarshal(msg.Payload, &m); err != nil {
					return err
				}
				return handler(&m)
			},
		)
	}

	if b.running {
		if err := b.router.RunHandlers(b.ctx); err != nil {
			return fmt.Errorf("启动处理器失败: %w", err)
		}
	}
	return nil
}

// Start 启动消息路由器并等待其就绪
func (b *Bus) Start() error {
	b.mu.Lock()
	if b.running {
		b.mu.Unlock()
		return nil
	}
	b.running = true
	b.mu.Unlock()

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		if err := b.router.Run(b.ctx); err != nil {
			log.Printf("消息路由器退出: %v", err)
		}
	}()

	select {
	case <-b.router.Running():
		return nil
	case <-time.After(5 * time.Second):
		return fmt.Errorf("消息路由器启动超时")
	}
}

// Publish 发布执行事件
func (b *Bus) Publish(event task.Event) error {
	m := FromEvent(event)
	payload, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("序列化事件失败: %w", err)
	}

	msg := message.NewMessage(m.ID, payload)
	msg.Metadata.Set("event_kind", string(m.Kind))
	msg.Metadata.Set("run_id", m.RunID)
	msg.Metadata.Set("timestamp", m.Timestamp.Format(time.RFC3339Nano))

	if err := b.pubsub.Publish(string(m.Kind), msg); err != nil {
		return fmt.Errorf("发布事件失败: %w", err)
	}
	return nil
}

// Notify 实现 task.Observer，发布失败只记录日志
func (b *Bus) Notify(event task.Event) {
	if err := b.Publish(event); err != nil {
		log.Printf("⚠️ %v", err)
	}
}

// Close 关闭路由器与 Pub/Sub
func (b *Bus) Close() error {
	b.cancel()
	var firstErr error
	if err := b.router.Close(); err != nil {
		firstErr = fmt.Errorf("关闭消息路由器失败: %w", err)
	}
	b.wg.Wait()
	if err := b.pubsub.Close(); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("关闭Pub/Sub失败: %w", err)
	}
	return firstErr
}
