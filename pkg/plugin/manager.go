package plugin

import (
	"context"
	"errors"
	"fmt"
	"log"
	"slices"
	"sort"
	"sync"
	"time"
)

// TriggerEvent 插件触发事件类型（对外导出）
type TriggerEvent string

const (
	EventRunCompleted TriggerEvent = "run.completed" // 运行成功
	EventRunFailed    TriggerEvent = "run.failed"    // 运行失败
	EventStageFailed  TriggerEvent = "stage.failed"  // 阶段失败
)

// DefaultPluginTimeout 单个插件执行的默认超时
const DefaultPluginTimeout = 30 * time.Second

// PluginBinding 事件与插件的绑定（对外导出）
type PluginBinding struct {
	PluginName string
	Event      TriggerEvent
	Params     map[string]string
	// Condition 为 nil 时总是触发
	Condition func(data PluginData) bool
}

// PluginData 传递给插件的数据（对外导出）
type PluginData struct {
	Event   TriggerEvent
	RunID   string
	Name    string // 流水线名称
	Stage   string // 阶段描述，仅阶段事件
	Status  string
	Elapsed time.Duration
	Error   error
	Data    map[string]interface{}
}

// PluginManager 插件管理器接口（对外导出）
type PluginManager interface {
	Register(plugin Plugin) error
	RegisterWithInit(plugin Plugin, params map[string]string) error
	Bind(binding PluginBinding) error
	// Trigger 依次执行绑定到 event 的插件，返回所有失败的合并错误
	Trigger(ctx context.Context, event TriggerEvent, data PluginData) error
	GetPlugin(name string) (Plugin, bool)
	ListPlugins() []string
	Unregister(name string) error
}

// ManagerOption 插件管理器选项
type ManagerOption func(*manager)

// WithTimeout 设置单个插件执行的超时，<=0 表示不限制
func WithTimeout(d time.Duration) ManagerOption {
	return func(m *manager) {
		m.timeout = d
	}
}

type manager struct {
	mu       sync.RWMutex
	plugins  map[string]Plugin
	bindings map[TriggerEvent][]PluginBinding
	timeout  time.Duration
}

// NewPluginManager 创建插件管理器（对外导出）
func NewPluginManager(opts ...ManagerOption) PluginManager {
	m := &manager{
		plugins:  make(map[string]Plugin),
		bindings: make(map[TriggerEvent][]PluginBinding),
		timeout:  DefaultPluginTimeout,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *manager) Register(p Plugin) error {
	if p == nil {
		return errors.New("插件不能为空")
	}
	name := p.Name()
	if name == "" {
		return errors.New("插件名称不能为空")
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.plugins[name]; ok {
		return fmt.Errorf("插件 %s 已注册", name)
	}
	m.plugins[name] = p
	return nil
}

func (m *manager) RegisterWithInit(p Plugin, params map[string]string) error {
	if err := m.Register(p); err != nil {
		return err
	}
	if err := p.Init(params); err != nil {
		m.mu.Lock()
		delete(m.plugins, p.Name())
		m.mu.Unlock()
		return fmt.Errorf("插件 %s 初始化失败: %w", p.Name(), err)
	}
	return nil
}

func (m *manager) Bind(b PluginBinding) error {
	switch {
	case b.PluginName == "":
		return errors.New("插件名称不能为空")
	case b.Event == "":
		return errors.New("触发事件不能为空")
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.plugins[b.PluginName]; !ok {
		return fmt.Errorf("插件 %s 未注册", b.PluginName)
	}
	m.bindings[b.Event] = append(m.bindings[b.Event], b)
	return nil
}

// targets 在读锁下取出本次要执行的插件，执行期间不持锁
func (m *manager) targets(event TriggerEvent, data PluginData) []Plugin {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Plugin
	for _, b := range m.bindings[event] {
		if b.Condition != nil && !b.Condition(data) {
			continue
		}
		if p, ok := m.plugins[b.PluginName]; ok {
			out = append(out, p)
		}
	}
	return out
}

func (m *manager) Trigger(ctx context.Context, event TriggerEvent, data PluginData) error {
	if data.Event == "" {
		data.Event = event
	}

	var errs []error
	for _, p := range m.targets(event, data) {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		if err := m.run(ctx, p, data); err != nil {
			log.Printf("❌ [PluginManager] %s 处理 %s 失败: %v", p.Name(), event, err)
			errs = append(errs, fmt.Errorf("插件 %s 执行失败: %w", p.Name(), err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("触发插件失败: %w", errors.Join(errs...))
	}
	return nil
}

func (m *manager) run(ctx context.Context, p Plugin, data PluginData) error {
	if m.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.timeout)
		defer cancel()
	}
	return p.Execute(ctx, data)
}

func (m *manager) GetPlugin(name string) (Plugin, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.plugins[name]
	return p, ok
}

func (m *manager) ListPlugins() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.plugins))
	for name := range m.plugins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (m *manager) Unregister(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.plugins[name]; !ok {
		return fmt.Errorf("插件 %s 未注册", name)
	}
	delete(m.plugins, name)
	for event, bs := range m.bindings {
		m.bindings[event] = slices.DeleteFunc(bs, func(b PluginBinding) bool {
			return b.PluginName == name
		})
	}
	return nil
}
