// Package sqlstore 基于 sqlx 的运行历史存储，SQL差异由 storage.Dialect 处理
package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/LENAX/saucer/pkg/core/pipeline"
	"github.com/LENAX/saucer/pkg/storage"
	"github.com/LENAX/saucer/pkg/storage/dao"
	"github.com/jmoiron/sqlx"
)

const (
	runTable   = "saucer_run"
	stageTable = "saucer_run_stage"

	defaultPageSize = 20
)

var runColumns = []string{"id", "name", "status", "started_at", "elapsed_ms", "error_msg"}

var stageColumns = []string{"run_id", "seq", "description", "prefix", "status", "elapsed_ms", "causes"}

// RunRepo 运行历史Repository（对外导出）
type RunRepo struct {
	db      *sqlx.DB
	dialect storage.Dialect
}

// NewRunRepo 创建运行历史Repository并初始化表结构（对外导出）
func NewRunRepo(db *sqlx.DB, dialect storage.Dialect) (*RunRepo, error) {
	repo := &RunRepo{db: db, dialect: dialect}
	if err := repo.initSchema(); err != nil {
		return nil, fmt.Errorf("初始化表结构失败: %w", err)
	}
	return repo, nil
}

// Open 打开连接并通过 Prepare 创建Repository（对外导出）
func Open(driverName, dsn string, dialect storage.Dialect) (*RunRepo, error) {
	db, err := sqlx.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("打开数据库失败: %w", err)
	}
	return Prepare(db, dialect)
}

// Prepare 检查连接、执行方言配置并创建Repository，失败时关闭连接（对外导出）
func Prepare(db *sqlx.DB, dialect storage.Dialect) (*RunRepo, error) {
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("数据库连接失败: %w", err)
	}
	for _, stmt := range dialect.SessionSetup() {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("配置%s失败: %w", dialect.Name(), err)
		}
	}
	repo, err := NewRunRepo(db, dialect)
	if err != nil {
		db.Close()
		return nil, err
	}
	return repo, nil
}

func (r *RunRepo) initSchema() error {
	createRunSQL := `
	CREATE TABLE IF NOT EXISTS saucer_run (
		id VARCHAR(64) PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		status VARCHAR(32) NOT NULL,
		started_at DATETIME NOT NULL,
		elapsed_ms BIGINT NOT NULL,
		error_msg TEXT
	)`

	createStageSQL := `
	CREATE TABLE IF NOT EXISTS saucer_run_stage (
		run_id VARCHAR(64) NOT NULL,
		seq INTEGER NOT NULL,
		description VARCHAR(255) NOT NULL,
		prefix VARCHAR(64) NOT NULL,
		status VARCHAR(32) NOT NULL,
		elapsed_ms BIGINT NOT NULL,
		causes TEXT,
		PRIMARY KEY (run_id, seq)
	)`

	for _, schema := range []string{createRunSQL, createStageSQL} {
		if _, err := r.db.Exec(r.dialect.AdaptDDL(schema)); err != nil {
			return err
		}
	}
	return nil
}

// GetDB 获取底层数据库连接（对外导出）
func (r *RunRepo) GetDB() *sqlx.DB {
	return r.db
}

// Close 关闭数据库连接（对外导出）
func (r *RunRepo) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// SaveReport 在一个事务中写入运行记录并替换其阶段明细
func (r *RunRepo) SaveReport(ctx context.Context, report *pipeline.Report) error {
	if report == nil || report.RunID == "" {
		return fmt.Errorf("报告缺少运行ID")
	}
	rec := storage.RecordFromReport(report)
	runDAO, stageDAOs, err := recordToDAO(rec)
	if err != nil {
		return err
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("开启事务失败: %w", err)
	}
	defer tx.Rollback()

	upsert := r.dialect.UpsertSQL(storage.Upsert{
		Table:   runTable,
		Columns: runColumns,
		Key:     []string{"id"},
		Update:  runColumns[1:],
	})
	if _, err := tx.NamedExecContext(ctx, upsert, runDAO); err != nil {
		return fmt.Errorf("保存运行记录失败: %w", err)
	}

	if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM saucer_run_stage WHERE run_id = ?`), rec.ID); err != nil {
		return fmt.Errorf("清理阶段记录失败: %w", err)
	}
	insertStage := insertSQL(stageTable, stageColumns)
	for _, s := range stageDAOs {
		if _, err := tx.NamedExecContext(ctx, insertStage, s); err != nil {
			return fmt.Errorf("保存阶段记录失败: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("提交事务失败: %w", err)
	}
	return nil
}

// ListRuns 按开始时间倒序分页查询，limit<=0 时使用默认页大小
func (r *RunRepo) ListRuns(ctx context.Context, limit, offset int) ([]*storage.RunRecord, int, error) {
	if limit <= 0 {
		limit = defaultPageSize
	}
	if offset < 0 {
		offset = 0
	}

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM saucer_run`); err != nil {
		return nil, 0, fmt.Errorf("统计运行记录失败: %w", err)
	}

	var runDAOs []dao.RunDAO
	query := r.db.Rebind(`SELECT id, name, status, started_at, elapsed_ms, error_msg FROM saucer_run
	          ORDER BY started_at DESC, id DESC LIMIT ? OFFSET ?`)
	if err := r.db.SelectContext(ctx, &runDAOs, query, limit, offset); err != nil {
		return nil, 0, fmt.Errorf("查询运行记录失败: %w", err)
	}

	records := make([]*storage.RunRecord, 0, len(runDAOs))
	for i := range runDAOs {
		records = append(records, daoToRecord(&runDAOs[i]))
	}
	return records, total, nil
}

// GetRun 查询单次运行及其阶段明细
func (r *RunRepo) GetRun(ctx context.Context, id string) (*storage.RunRecord, error) {
	var runDAO dao.RunDAO
	query := r.db.Rebind(`SELECT id, name, status, started_at, elapsed_ms, error_msg FROM saucer_run WHERE id = ?`)
	if err := r.db.GetContext(ctx, &runDAO, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrRunNotFound
		}
		return nil, fmt.Errorf("查询运行记录失败: %w", err)
	}

	var stageDAOs []dao.RunStageDAO
	query = r.db.Rebind(`SELECT run_id, seq, description, prefix, status, elapsed_ms, causes FROM saucer_run_stage
	          WHERE run_id = ? ORDER BY seq`)
	if err := r.db.SelectContext(ctx, &stageDAOs, query, id); err != nil {
		return nil, fmt.Errorf("查询阶段记录失败: %w", err)
	}

	rec := daoToRecord(&runDAO)
	for i := range stageDAOs {
		stage, err := daoToStage(&stageDAOs[i])
		if err != nil {
			return nil, err
		}
		rec.Stages = append(rec.Stages, stage)
	}
	return rec, nil
}

func insertSQL(tableName string, columns []string) string {
	named := make([]string, len(columns))
	for i, col := range columns {
		named[i] = ":" + col
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", tableName, strings.Join(columns, ", "), strings.Join(named, ", "))
}

func recordToDAO(rec *storage.RunRecord) (*dao.RunDAO, []*dao.RunStageDAO, error) {
	runDAO := &dao.RunDAO{
		ID:        rec.ID,
		Name:      rec.Name,
		Status:    rec.Status,
		StartedAt: rec.StartedAt,
		ElapsedMs: rec.Elapsed.Milliseconds(),
	}
	if rec.Error != "" {
		runDAO.ErrorMessage = sql.NullString{String: rec.Error, Valid: true}
	}

	stages := make([]*dao.RunStageDAO, 0, len(rec.Stages))
	for _, s := range rec.Stages {
		d := &dao.RunStageDAO{
			RunID:       rec.ID,
			Seq:         s.Seq,
			Description: s.Description,
			Prefix:      s.Prefix,
			Status:      s.Status,
			ElapsedMs:   s.Elapsed.Milliseconds(),
		}
		if len(s.Causes) > 0 {
			causes, err := json.Marshal(s.Causes)
			if err != nil {
				return nil, nil, fmt.Errorf("序列化失败原因失败: %w", err)
			}
			d.Causes = sql.NullString{String: string(causes), Valid: true}
		}
		stages = append(stages, d)
	}
	return runDAO, stages, nil
}

func daoToRecord(d *dao.RunDAO) *storage.RunRecord {
	return &storage.RunRecord{
		ID:        d.ID,
		Name:      d.Name,
		Status:    d.Status,
		StartedAt: d.StartedAt,
		Elapsed:   time.Duration(d.ElapsedMs) * time.Millisecond,
		Error:     d.ErrorMessage.String,
	}
}

func daoToStage(d *dao.RunStageDAO) (*storage.StageRecord, error) {
	stage := &storage.StageRecord{
		Seq:         d.Seq,
		Description: d.Description,
		Prefix:      d.Prefix,
		Status:      d.Status,
		Elapsed:     time.Duration(d.ElapsedMs) * time.Millisecond,
	}
	if d.Causes.Valid && d.Causes.String != "" {
		if err := json.Unmarshal([]byte(d.Causes.String), &stage.Causes); err != nil {
			return nil, fmt.Errorf("解析失败原因失败: %w", err)
		}
	}
	return stage, nil
}

var _ storage.RunRepository = (*RunRepo)(nil)
