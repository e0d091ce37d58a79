// Package app 按配置组装 saucer 的运行时组件：构建驱动、引擎、历史存储、事件总线与通知插件
package app

import (
	"errors"
	"fmt"
	"log"
	"strings"

	internalstorage "github.com/LENAX/saucer/internal/storage"
	"github.com/LENAX/saucer/pkg/bundle"
	"github.com/LENAX/saucer/pkg/config"
	"github.com/LENAX/saucer/pkg/core/engine"
	"github.com/LENAX/saucer/pkg/core/events"
	"github.com/LENAX/saucer/pkg/core/task"
	"github.com/LENAX/saucer/pkg/plugin"
	"github.com/LENAX/saucer/pkg/storage"
)

// App 运行时组件集合（内部使用）
type App struct {
	Config  *config.Config
	Driver  *bundle.Driver
	Engine  *engine.Engine
	History storage.RunRepository // 未启用时为nil
	Bus     *events.Bus
	Plugins plugin.PluginManager

	closers []func() error
}

// Option App 选项
type Option func(*options)

type options struct {
	history    bool
	driverOpts []bundle.DriverOption
}

// WithoutHistory 即使配置启用也不打开历史存储
func WithoutHistory() Option {
	return func(o *options) { o.history = false }
}

// WithDriverOptions 传递给构建驱动的选项
func WithDriverOptions(opts ...bundle.DriverOption) Option {
	return func(o *options) { o.driverOpts = append(o.driverOpts, opts...) }
}

// New 按配置组装组件，事件总线需调用 Start 后才开始投递
func New(cfg *config.Config, opts ...Option) (*App, error) {
	o := &options{history: true}
	for _, opt := range opts {
		opt(o)
	}

	a := &App{
		Config: cfg,
		Driver: bundle.NewDriver(cfg, o.driverOpts...),
	}

	bus, err := events.NewBus(events.WithDebug(cfg.IsDebug()))
	if err != nil {
		return nil, err
	}
	a.Bus = bus
	a.closers = append(a.closers, bus.Close)

	if cfg.IsDebug() {
		if err := bus.Subscribe("debug-log", logEvent); err != nil {
			a.Close()
			return nil, err
		}
	}

	if o.history && cfg.Saucer.History.Enabled {
		repo, err := internalstorage.NewRunRepository(cfg.Saucer.History.Type, cfg.Saucer.History.DSN)
		if err != nil {
			a.Close()
			return nil, err
		}
		cached := storage.NewCachedRunRepository(repo, 0)
		a.History = cached
		a.closers = append(a.closers, cached.Close)
	}

	pm, closers, err := NewPluginManager(cfg)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Plugins = pm
	a.closers = append(a.closers, closers...)

	engineOpts := []engine.Option{
		engine.WithObserver(bus),
		engine.WithPluginManager(pm),
	}
	if a.History != nil {
		engineOpts = append(engineOpts, engine.WithHistory(a.History))
	}
	eng, err := engine.NewEngine(a.Driver.Pipeline, engineOpts...)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Engine = eng
	return a, nil
}

// Start 启动事件总线
func (a *App) Start() error {
	return a.Bus.Start()
}

// Close 按创建的逆序关闭组件
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

// newKafkaPlugin writer 在 Init 中按 brokers 创建
var newKafkaPlugin = func() *plugin.KafkaPlugin { return plugin.NewKafkaPlugin(nil) }

// NewPluginManager 按 notify 配置注册并绑定通知插件，返回需要在退出时关闭的资源
func NewPluginManager(cfg *config.Config) (plugin.PluginManager, []func() error, error) {
	n := cfg.Saucer.Notify
	pm := plugin.NewPluginManager(plugin.WithTimeout(n.Timeout))
	var closers []func() error
	// 出错时释放已创建的资源
	fail := func(err error) (plugin.PluginManager, []func() error, error) {
		errs := []error{err}
		for i := len(closers) - 1; i >= 0; i-- {
			errs = append(errs, closers[i]())
		}
		return nil, nil, errors.Join(errs...)
	}

	if n.Log {
		if err := register(pm, plugin.NewLogPlugin(), nil,
			plugin.EventRunCompleted, plugin.EventRunFailed); err != nil {
			return fail(err)
		}
	}

	if n.Kafka.Enabled {
		kp := newKafkaPlugin()
		params := map[string]string{
			"topic":   n.Kafka.Topic,
			"brokers": strings.Join(n.Kafka.Brokers, ","),
		}
		if err := register(pm, kp, params,
			plugin.EventRunCompleted, plugin.EventRunFailed, plugin.EventStageFailed); err != nil {
			return fail(err)
		}
		closers = append(closers, kp.Close)
	}

	if n.Email.Enabled {
		params := map[string]string{
			"smtp_host": n.Email.SMTPHost,
			"smtp_port": n.Email.SMTPPort,
			"username":  n.Email.Username,
			"password":  n.Email.Password,
			"from":      n.Email.From,
			"to":        n.Email.To,
		}
		if err := register(pm, plugin.NewEmailPlugin(), params, plugin.EventRunFailed); err != nil {
			return fail(err)
		}
	}

	return pm, closers, nil
}

func register(pm plugin.PluginManager, p plugin.Plugin, params map[string]string, bindTo ...plugin.TriggerEvent) error {
	if err := pm.RegisterWithInit(p, params); err != nil {
		return err
	}
	for _, ev := range bindTo {
		if err := pm.Bind(plugin.PluginBinding{PluginName: p.Name(), Event: ev}); err != nil {
			return fmt.Errorf("绑定插件 %s 失败: %w", p.Name(), err)
		}
	}
	return nil
}

// logEvent debug 级别下逐条输出进度事件
func logEvent(msg *events.Message) error {
	line := fmt.Sprintf("🔬 [%s] %s%s", msg.Kind, msg.Prefix, msg.Node)
	if msg.Elapsed != "" {
		line += " (" + msg.Elapsed + ")"
	}
	if msg.Error != "" {
		line += ": " + strings.ReplaceAll(msg.Error, "\n", " | ")
	}
	log.Println(line)
	return nil
}

var _ task.Observer = (*events.Bus)(nil)
