package storage

import "strings"

// Upsert 描述一次按主键写入或覆盖，值使用 :column 命名参数
type Upsert struct {
	Table   string
	Columns []string
	Key     []string // 冲突判断列
	Update  []string // 冲突时覆盖的列
}

// Into 返回 "table (a, b) VALUES (:a, :b)"，供各方言拼接前缀与冲突子句
func (u Upsert) Into() string {
	named := make([]string, len(u.Columns))
	for i, col := range u.Columns {
		named[i] = ":" + col
	}
	return u.Table + " (" + strings.Join(u.Columns, ", ") + ") VALUES (" + strings.Join(named, ", ") + ")"
}

// Assignments 按 format 生成 "col = ..." 列表，format 中的 %[1]s 为列名
func (u Upsert) Assignments(format string) string {
	parts := make([]string, len(u.Update))
	for i, col := range u.Update {
		parts[i] = col + " = " + strings.ReplaceAll(format, "%[1]s", col)
	}
	return strings.Join(parts, ", ")
}

// Dialect 屏蔽 sqlite、mysql、postgres 之间的语法差异（对外导出）
type Dialect interface {
	Name() string
	// UpsertSQL 渲染 u 为该数据库的写入语句
	UpsertSQL(u Upsert) string
	// AdaptDDL 把以 sqlite 语法书写的建表语句改写为本方言
	AdaptDDL(ddl string) string
	// SessionSetup 连接建立后依次执行的语句
	SessionSetup() []string
}
