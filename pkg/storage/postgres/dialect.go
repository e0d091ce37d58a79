// Package postgres 运行历史的PostgreSQL后端
package postgres

import (
	"strings"

	"github.com/LENAX/saucer/pkg/storage"
	"github.com/LENAX/saucer/pkg/storage/sqlstore"
	_ "github.com/lib/pq"
)

// ddlRewriter sqlite 类型到 postgres 类型
var ddlRewriter = strings.NewReplacer(
	"INTEGER PRIMARY KEY AUTOINCREMENT", "SERIAL PRIMARY KEY",
	"DATETIME", "TIMESTAMP",
)

// Dialect PostgreSQL方言，sqlx 负责把 :name 绑定为 $n
type Dialect struct{}

func (Dialect) Name() string { return "postgres" }

func (Dialect) UpsertSQL(u storage.Upsert) string {
	return "INSERT INTO " + u.Into() +
		" ON CONFLICT (" + strings.Join(u.Key, ", ") + ") DO UPDATE SET " + u.Assignments("EXCLUDED.%[1]s")
}

func (Dialect) AdaptDDL(ddl string) string { return ddlRewriter.Replace(ddl) }

func (Dialect) SessionSetup() []string { return nil }

// NewRunRepoFromDSN 打开 PostgreSQL 运行历史（对外导出）
func NewRunRepoFromDSN(dsn string) (*sqlstore.RunRepo, error) {
	return sqlstore.Open("postgres", dsn, Dialect{})
}

var _ storage.Dialect = Dialect{}
