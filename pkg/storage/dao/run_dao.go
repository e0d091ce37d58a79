package dao

import (
	"database/sql"
	"time"
)

// RunDAO saucer_run表的数据访问对象（内部使用）
type RunDAO struct {
	ID           string         `db:"id"`
	Name         string         `db:"name"`
	Status       string         `db:"status"`
	StartedAt    time.Time      `db:"started_at"`
	ElapsedMs    int64          `db:"elapsed_ms"`
	ErrorMessage sql.NullString `db:"error_msg"`
}

// RunStageDAO saucer_run_stage表的数据访问对象（内部使用）
type RunStageDAO struct {
	RunID       string         `db:"run_id"`
	Seq         int            `db:"seq"`
	Description string         `db:"description"`
	Prefix      string         `db:"prefix"`
	Status      string         `db:"status"`
	ElapsedMs   int64          `db:"elapsed_ms"`
	Causes      sql.NullString `db:"causes"` // JSON数组
}
