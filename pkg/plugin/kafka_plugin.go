package plugin

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/segmentio/kafka-go"
)

// MessageWriter Kafka 写入接口，*kafka.Writer 满足此接口
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// RunNotification 发送到 Kafka 的运行通知
type RunNotification struct {
	Event     TriggerEvent `json:"event"`
	RunID     string       `json:"run_id"`
	Name      string       `json:"name"`
	Stage     string       `json:"stage,omitempty"`
	Status    string       `json:"status"`
	ElapsedMs int64        `json:"elapsed_ms"`
	Error     string       `json:"error,omitempty"`
	Timestamp time.Time    `json:"timestamp"`
}

// KafkaPlugin 将运行结果写入 Kafka topic（对外导出）
type KafkaPlugin struct {
	name       string
	writer     MessageWriter
	topic      string
	maxRetries uint64
	timeout    time.Duration
}

// NewKafkaPlugin 创建 Kafka 插件，writer 为 nil 时在 Init 中按参数创建
func NewKafkaPlugin(writer MessageWriter) *KafkaPlugin {
	return &KafkaPlugin{
		name:       "kafka",
		writer:     writer,
		maxRetries: 3,
		timeout:    10 * time.Second,
	}
}

// Name 插件名称（实现Plugin接口）
func (k *KafkaPlugin) Name() string {
	return k.name
}

// Init 初始化插件（实现Plugin接口）
// 参数: brokers（逗号分隔）、topic、max_retries
func (k *KafkaPlugin) Init(params map[string]string) error {
	k.topic = params["topic"]
	if k.topic == "" {
		return fmt.Errorf("topic参数不能为空")
	}
	if v := params["max_retries"]; v != "" {
		if _, err := fmt.Sscanf(v, "%d", &k.maxRetries); err != nil {
			return fmt.Errorf("max_retries参数格式错误: %w", err)
		}
	}

	if k.writer == nil {
		brokers := splitList(params["brokers"])
		if len(brokers) == 0 {
			return fmt.Errorf("brokers参数不能为空")
		}
		k.writer = &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  k.topic,
			Balancer:               &kafka.LeastBytes{},
			AllowAutoTopicCreation: true,
		}
	}

	log.Printf("✅ [KafkaPlugin] 初始化完成: Topic=%s", k.topic)
	return nil
}

// Execute 发送运行通知（实现Plugin接口），失败时按指数退避重试
func (k *KafkaPlugin) Execute(ctx context.Context, data PluginData) error {
	if k.writer == nil {
		return fmt.Errorf("Kafka插件未初始化")
	}

	notification := RunNotification{
		Event:     data.Event,
		RunID:     data.RunID,
		Name:      data.Name,
		Stage:     data.Stage,
		Status:    data.Status,
		ElapsedMs: data.Elapsed.Milliseconds(),
		Timestamp: time.Now(),
	}
	if data.Error != nil {
		notification.Error = data.Error.Error()
	}
	payload, err := json.Marshal(notification)
	if err != nil {
		return fmt.Errorf("序列化通知失败: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, k.timeout)
	defer cancel()

	msg := kafka.Message{Key: []byte(data.RunID), Value: payload}
	b := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), k.maxRetries), ctx)
	if err := backoff.Retry(func() error { return k.writer.WriteMessages(ctx, msg) }, b); err != nil {
		log.Printf("❌ [KafkaPlugin] 发送通知失败: %v", err)
		return err
	}

	log.Printf("✅ [KafkaPlugin] 通知已发送: Event=%s, RunID=%s", data.Event, data.RunID)
	return nil
}

// Close 关闭 writer
func (k *KafkaPlugin) Close() error {
	if k.writer == nil {
		return nil
	}
	return k.writer.Close()
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
