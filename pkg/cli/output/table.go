package output

import (
	"io"
	"strings"
	"unicode/utf8"

	"github.com/fatih/color"
)

const columnGap = "  "

var headerStyle = color.New(color.FgCyan, color.Bold)

// Table 按列左对齐的纯文本表格，宽度以 rune 计
type Table struct {
	headers []string
	rows    [][]string
}

// NewTable 创建表格
func NewTable(headers ...string) *Table {
	return &Table{headers: headers}
}

// AddRow 追加一行，多余的单元格被忽略
func (t *Table) AddRow(cells ...string) {
	if len(cells) > len(t.headers) {
		cells = cells[:len(t.headers)]
	}
	t.rows = append(t.rows, cells)
}

// Len 数据行数
func (t *Table) Len() int {
	return len(t.rows)
}

// Render 输出到 color.Output
func (t *Table) Render() {
	t.RenderTo(color.Output)
}

// RenderTo 输出到 w，表头着色，末列不补空格
func (t *Table) RenderTo(w io.Writer) {
	widths := t.widths()
	last := len(widths) - 1

	var b strings.Builder
	line := func(cells []string, style func(string) string) {
		for i, cell := range cells {
			if i < last {
				cell = pad(cell, widths[i]) + columnGap
			}
			b.WriteString(style(cell))
		}
		b.WriteByte('\n')
	}

	line(t.headers, func(s string) string { return headerStyle.Sprint(s) })
	rules := make([]string, len(widths))
	for i, n := range widths {
		rules[i] = strings.Repeat("-", n)
	}
	plain := func(s string) string { return s }
	line(rules, plain)
	for _, row := range t.rows {
		line(row, plain)
	}
	io.WriteString(w, b.String())
}

func (t *Table) widths() []int {
	widths := make([]int, len(t.headers))
	for i, h := range t.headers {
		widths[i] = utf8.RuneCountInString(h)
	}
	for _, row := range t.rows {
		for i, cell := range row {
			widths[i] = max(widths[i], utf8.RuneCountInString(cell))
		}
	}
	return widths
}

func pad(s string, width int) string {
	if n := utf8.RuneCountInString(s); n < width {
		return s + strings.Repeat(" ", width-n)
	}
	return s
}
