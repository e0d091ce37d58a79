package dto

import (
	"github.com/LENAX/saucer/pkg/core/dag"
	"github.com/LENAX/saucer/pkg/core/pipeline"
	"github.com/LENAX/saucer/pkg/core/task"
	"github.com/LENAX/saucer/pkg/storage"
)

// SummaryFromRecord 运行记录转换为摘要
func SummaryFromRecord(rec *storage.RunRecord) RunSummary {
	return RunSummary{
		ID:           rec.ID,
		Name:         rec.Name,
		Status:       rec.Status,
		StartedAt:    rec.StartedAt,
		ElapsedMs:    rec.Elapsed.Milliseconds(),
		Duration:     task.FormatElapsed(rec.Elapsed),
		ErrorMessage: rec.Error,
	}
}

// DetailFromRecord 运行记录转换为带阶段明细的详情
func DetailFromRecord(rec *storage.RunRecord) RunDetail {
	detail := RunDetail{
		RunSummary: SummaryFromRecord(rec),
		Stages:     make([]StageDetail, 0, len(rec.Stages)),
	}
	for _, s := range rec.Stages {
		detail.Stages = append(detail.Stages, StageDetail{
			Seq:         s.Seq,
			Description: s.Description,
			Prefix:      s.Prefix,
			Status:      s.Status,
			ElapsedMs:   s.Elapsed.Milliseconds(),
			Causes:      s.Causes,
		})
	}
	return detail
}

// DetailFromReport 流水线报告转换为详情
func DetailFromReport(report *pipeline.Report) RunDetail {
	return DetailFromRecord(storage.RecordFromReport(report))
}

// PlanFromPipeline 构建流水线的执行计划，不会执行
func PlanFromPipeline(p *pipeline.Pipeline) (PlanResponse, error) {
	plan, err := dag.BuildPlan(p)
	if err != nil {
		return PlanResponse{}, err
	}
	resp := PlanResponse{
		Name:     p.Description(),
		Stages:   len(p.Stages()),
		Rendered: plan.Render(),
		Nodes:    make([]PlanNode, 0, plan.Len()),
	}
	for _, n := range plan.Nodes() {
		resp.Nodes = append(resp.Nodes, PlanNode{
			ID:       n.NodeID,
			ParentID: n.ParentID,
			Label:    n.Label,
			Kind:     n.Kind,
			Depth:    n.Depth,
		})
	}
	return resp, nil
}
