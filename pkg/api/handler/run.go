package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/LENAX/saucer/pkg/api/dto"
	"github.com/LENAX/saucer/pkg/core/engine"
	"github.com/LENAX/saucer/pkg/core/pipeline"
	"github.com/LENAX/saucer/pkg/storage"
	"github.com/gin-gonic/gin"
)

// Runner 处理器依赖的引擎能力，由 *engine.Engine 实现
type Runner interface {
	Submit(ctx context.Context) (string, error)
	Running() (string, bool)
	LastReport() *pipeline.Report
	Plan() (*pipeline.Pipeline, error)
}

// RunHandler 运行API处理器
type RunHandler struct {
	runner  Runner
	history storage.RunRepository
}

// NewRunHandler 创建RunHandler，history 可以为nil
func NewRunHandler(runner Runner, history storage.RunRepository) *RunHandler {
	return &RunHandler{runner: runner, history: history}
}

// List 分页列出运行历史
// GET /api/v1/runs
func (h *RunHandler) List(c *gin.Context) {
	var query dto.RunListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, dto.NewErrorResponse(400, fmt.Sprintf("查询参数错误: %v", err)))
		return
	}
	if h.history == nil {
		c.JSON(http.StatusServiceUnavailable, dto.NewErrorResponse(503, "运行历史未启用"))
		return
	}

	limit, offset := query.Page()
	records, total, err := h.history.ListRuns(c.Request.Context(), limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.NewErrorResponse(500, fmt.Sprintf("查询运行历史失败: %v", err)))
		return
	}

	items := make([]dto.RunSummary, 0, len(records))
	for _, rec := range records {
		items = append(items, dto.SummaryFromRecord(rec))
	}
	c.JSON(http.StatusOK, dto.NewSuccessResponse(dto.ListResponse[dto.RunSummary]{
		Total:   total,
		Items:   items,
		HasMore: offset+limit < total,
	}))
}

// Get 获取单次运行详情
// GET /api/v1/runs/:id
func (h *RunHandler) Get(c *gin.Context) {
	if h.history == nil {
		c.JSON(http.StatusServiceUnavailable, dto.NewErrorResponse(503, "运行历史未启用"))
		return
	}

	id := c.Param("id")
	rec, err := h.history.GetRun(c.Request.Context(), id)
	if errors.Is(err, storage.ErrRunNotFound) {
		c.JSON(http.StatusNotFound, dto.NewErrorResponse(404, fmt.Sprintf("运行 %s 不存在", id)))
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.NewErrorResponse(500, fmt.Sprintf("查询运行失败: %v", err)))
		return
	}
	c.JSON(http.StatusOK, dto.NewSuccessResponse(dto.DetailFromRecord(rec)))
}

// Trigger 异步触发一次运行
// POST /api/v1/runs
func (h *RunHandler) Trigger(c *gin.Context) {
	runID, err := h.runner.Submit(c.Request.Context())
	if errors.Is(err, engine.ErrRunInProgress) {
		current, _ := h.runner.Running()
		c.JSON(http.StatusConflict, dto.NewErrorResponse(409, fmt.Sprintf("运行 %s 尚未结束", current)))
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.NewErrorResponse(500, fmt.Sprintf("触发运行失败: %v", err)))
		return
	}
	c.JSON(http.StatusAccepted, dto.NewSuccessResponse(dto.TriggerResponse{
		RunID:   runID,
		Message: "运行已提交",
	}))
}

// Status 当前运行状态与最近一次结果
// GET /api/v1/status
func (h *RunHandler) Status(c *gin.Context) {
	current, running := h.runner.Running()
	resp := dto.StatusResponse{Running: running, CurrentRunID: current}
	if last := h.runner.LastReport(); last != nil {
		summary := dto.DetailFromReport(last).RunSummary
		resp.LastRun = &summary
	}
	c.JSON(http.StatusOK, dto.NewSuccessResponse(resp))
}
