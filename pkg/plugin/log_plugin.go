package plugin

import (
	"context"
	"fmt"
	"log"
)

// LogPlugin 把运行结果写入日志（对外导出）
type LogPlugin struct {
	prefix string
}

// NewLogPlugin 创建日志插件
func NewLogPlugin() *LogPlugin {
	return &LogPlugin{prefix: "📣 "}
}

// Name 插件名称（实现Plugin接口）
func (l *LogPlugin) Name() string {
	return "log"
}

// Init 可选参数 prefix（实现Plugin接口）
func (l *LogPlugin) Init(params map[string]string) error {
	if p, ok := params["prefix"]; ok {
		l.prefix = p
	}
	return nil
}

// Execute 输出一行运行摘要（实现Plugin接口）
func (l *LogPlugin) Execute(ctx context.Context, data PluginData) error {
	line := fmt.Sprintf("%s%s %s %s (run %s, %s)", l.prefix, data.Event, data.Name, data.Status, data.RunID, data.Elapsed)
	if data.Error != nil {
		line += ": " + data.Error.Error()
	}
	log.Print(line)
	return nil
}
