// Package output 命令行的彩色输出、表格与JSON输出
package output

import (
	"encoding/json"
	"io"
	"time"

	"github.com/LENAX/saucer/pkg/core/task"
	"github.com/fatih/color"
)

// PrintJSON 缩进输出 data 到 color.Output
func PrintJSON(data any) error {
	enc := json.NewEncoder(color.Output)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

// message 一类提示行的标记与样式，stderr 为 true 时写 color.Error
type message struct {
	mark   string
	style  *color.Color
	stderr bool
}

var (
	successMsg = message{"✅ ", color.New(color.FgGreen, color.Bold), false}
	infoMsg    = message{"ℹ️  ", color.New(color.FgCyan), false}
	warningMsg = message{"⚠️  ", color.New(color.FgYellow), false}
	errorMsg   = message{"❌ ", color.New(color.FgRed, color.Bold), true}
)

func (m message) print(format string, args []any) {
	var w io.Writer = color.Output
	if m.stderr {
		w = color.Error
	}
	m.style.Fprintf(w, m.mark+format+"\n", args...)
}

func Success(format string, args ...any) { successMsg.print(format, args) }
func Info(format string, args ...any)    { infoMsg.print(format, args) }
func Warning(format string, args ...any) { warningMsg.print(format, args) }
func Error(format string, args ...any)   { errorMsg.print(format, args) }

// Celebrate 整条流水线成功后的最后一行
func Celebrate(elapsed time.Duration) {
	successMsg.style.Fprintf(color.Output, "🎉 Success in %s!\n", task.FormatElapsed(elapsed))
}

// Failure 原样输出聚合后的错误链，错误本身已带有位置标记
func Failure(err error) {
	color.New(color.FgRed).Fprintln(color.Error, err.Error())
}

var statusColors = map[string]func(format string, a ...any) string{
	"success": color.GreenString,
	"failed":  color.RedString,
	"skipped": color.YellowString,
}

// Status 按运行状态着色，未知状态原样返回
func Status(status string) string {
	if paint, ok := statusColors[status]; ok {
		return paint("%s", status)
	}
	return status
}
