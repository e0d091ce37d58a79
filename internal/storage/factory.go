// Package storage 按配置选择运行历史后端
package storage

import (
	"fmt"
	"sort"
	"strings"

	"github.com/LENAX/saucer/pkg/storage"
	"github.com/LENAX/saucer/pkg/storage/mysql"
	"github.com/LENAX/saucer/pkg/storage/postgres"
	"github.com/LENAX/saucer/pkg/storage/sqlite"
	"github.com/LENAX/saucer/pkg/storage/sqlstore"
)

type opener func(dsn string) (*sqlstore.RunRepo, error)

// backends 后端名称到打开函数，别名指向同一实现
var backends = map[string]opener{
	"sqlite":     sqlite.NewRunRepoFromDSN,
	"sqlite3":    sqlite.NewRunRepoFromDSN,
	"mysql":      mysql.NewRunRepoFromDSN,
	"postgres":   postgres.NewRunRepoFromDSN,
	"postgresql": postgres.NewRunRepoFromDSN,
}

// Backends 返回支持的类型名
func Backends() []string {
	names := make([]string, 0, len(backends))
	for name := range backends {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NewRunRepository 按 dbType 打开运行历史
func NewRunRepository(dbType, dsn string) (storage.RunRepository, error) {
	open, ok := backends[strings.ToLower(dbType)]
	if !ok {
		return nil, fmt.Errorf("unsupported database type: %s (supported: %s)", dbType, strings.Join(Backends(), ", "))
	}
	repo, err := open(dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s history: %w", dbType, err)
	}
	return repo, nil
}
