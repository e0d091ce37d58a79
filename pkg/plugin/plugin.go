// Package plugin 在运行结束时按事件触发通知插件
package plugin

import "context"

// Plugin 插件接口（对外导出）
type Plugin interface {
	// Name 插件名称
	Name() string
	// Init 用参数初始化插件
	Init(params map[string]string) error
	// Execute 处理一次事件，ctx 携带管理器设置的超时
	Execute(ctx context.Context, data PluginData) error
}
