// Package mysql 运行历史的MySQL后端
package mysql

import (
	"net/url"
	"strings"

	"github.com/LENAX/saucer/pkg/storage"
	"github.com/LENAX/saucer/pkg/storage/sqlstore"
	_ "github.com/go-sql-driver/mysql"
)

const tableOptions = " ENGINE=InnoDB DEFAULT CHARSET=utf8mb4"

// Dialect MySQL方言，冲突列由主键或唯一键隐式决定
type Dialect struct{}

func (Dialect) Name() string { return "mysql" }

func (Dialect) UpsertSQL(u storage.Upsert) string {
	return "INSERT INTO " + u.Into() + " ON DUPLICATE KEY UPDATE " + u.Assignments("VALUES(%[1]s)")
}

// AdaptDDL 改写自增关键字并为 CREATE TABLE 追加引擎与字符集
func (Dialect) AdaptDDL(ddl string) string {
	out := strings.ReplaceAll(ddl, "AUTOINCREMENT", "AUTO_INCREMENT")
	if strings.Contains(out, "CREATE TABLE") && !strings.Contains(out, "ENGINE=") {
		out = strings.TrimRight(strings.TrimSpace(out), ";") + tableOptions
	}
	return out
}

func (Dialect) SessionSetup() []string {
	return []string{"SET SESSION sql_mode='STRICT_TRANS_TABLES,NO_ZERO_DATE,NO_ENGINE_SUBSTITUTION'"}
}

// EnsureParseTime 保证 DSN 带 parseTime=true，否则 DATETIME 无法扫描为 time.Time
func EnsureParseTime(dsn string) string {
	base, query, _ := strings.Cut(dsn, "?")
	values, err := url.ParseQuery(query)
	if err != nil || values.Get("parseTime") == "true" {
		return dsn
	}
	if query == "" {
		return base + "?parseTime=true"
	}
	return dsn + "&parseTime=true"
}

// NewRunRepoFromDSN 打开 MySQL 运行历史（对外导出）
func NewRunRepoFromDSN(dsn string) (*sqlstore.RunRepo, error) {
	return sqlstore.Open("mysql", EnsureParseTime(dsn), Dialect{})
}

var _ storage.Dialect = Dialect{}
