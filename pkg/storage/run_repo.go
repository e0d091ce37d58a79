package storage

import (
	"context"
	"errors"
	"time"

	"github.com/LENAX/saucer/pkg/core/pipeline"
)

// ErrRunNotFound 运行记录不存在
var ErrRunNotFound = errors.New("run not found")

// RunRecord 一次流水线运行的持久化记录（对外导出）
type RunRecord struct {
	ID        string
	Name      string
	Status    string
	StartedAt time.Time
	Elapsed   time.Duration
	Error     string
	Stages    []*StageRecord // ListRuns 返回的记录不含阶段明细
}

// StageRecord 阶段执行记录（对外导出）
type StageRecord struct {
	Seq         int
	Description string
	Prefix      string
	Status      string
	Elapsed     time.Duration
	Causes      []string
}

// RunRepository 运行历史存储接口（对外导出）
type RunRepository interface {
	// SaveReport 保存（或覆盖）一次运行的报告及其阶段明细
	SaveReport(ctx context.Context, report *pipeline.Report) error
	// ListRuns 按开始时间倒序分页查询，返回当前页记录与总数
	ListRuns(ctx context.Context, limit, offset int) ([]*RunRecord, int, error)
	// GetRun 根据ID查询运行及阶段明细，不存在时返回 ErrRunNotFound
	GetRun(ctx context.Context, id string) (*RunRecord, error)
	// Close 关闭底层连接
	Close() error
}

// RecordFromReport 将流水线报告转换为持久化记录
func RecordFromReport(report *pipeline.Report) *RunRecord {
	rec := &RunRecord{
		ID:        report.RunID,
		Name:      report.Name,
		Status:    report.Status(),
		StartedAt: report.StartedAt.UTC(),
		Elapsed:   report.Elapsed,
		Stages:    make([]*StageRecord, 0, len(report.Stages)),
	}
	if report.Err != nil {
		rec.Error = report.Err.Error()
	}
	for _, sr := range report.Stages {
		stage := &StageRecord{
			Seq:         sr.Number,
			Description: sr.Description,
			Prefix:      sr.Prefix,
			Status:      sr.Status(),
			Elapsed:     sr.Outcome.Elapsed,
		}
		for _, c := range sr.Outcome.Causes {
			stage.Causes = append(stage.Causes, c.String())
		}
		rec.Stages = append(rec.Stages, stage)
	}
	return rec
}
