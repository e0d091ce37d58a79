// Package sqlite 运行历史的SQLite后端（默认）
package sqlite

import (
	"fmt"
	"strings"

	"github.com/LENAX/saucer/pkg/storage"
	"github.com/LENAX/saucer/pkg/storage/sqlstore"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

// Dialect SQLite方言，DDL 本身即按 SQLite 书写
type Dialect struct{}

func (Dialect) Name() string { return "sqlite" }

// UpsertSQL 冲突由表主键决定，整行替换
func (Dialect) UpsertSQL(u storage.Upsert) string {
	return "INSERT OR REPLACE INTO " + u.Into()
}

func (Dialect) AdaptDDL(ddl string) string { return ddl }

// SessionSetup 开启 WAL，让 API 读取与构建写入互不阻塞
func (Dialect) SessionSetup() []string {
	return []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=30000",
		"PRAGMA synchronous=NORMAL",
	}
}

// NewRunRepoFromDSN 打开 SQLite 运行历史（对外导出）
func NewRunRepoFromDSN(dsn string) (*sqlstore.RunRepo, error) {
	db, err := sqlx.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("打开数据库失败: %w", err)
	}
	// 内存库每个连接是独立的数据库
	if strings.Contains(dsn, ":memory:") {
		db.SetMaxOpenConns(1)
	}
	return sqlstore.Prepare(db, Dialect{})
}

var _ storage.Dialect = Dialect{}
