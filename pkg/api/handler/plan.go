package handler

import (
	"fmt"
	"net/http"

	"github.com/LENAX/saucer/pkg/api/dto"
	"github.com/gin-gonic/gin"
)

// PlanHandler 执行计划处理器
type PlanHandler struct {
	runner Runner
}

// NewPlanHandler 创建PlanHandler
func NewPlanHandler(runner Runner) *PlanHandler {
	return &PlanHandler{runner: runner}
}

// Get 组装流水线并返回其执行计划，不会执行
// GET /api/v1/plan
func (h *PlanHandler) Get(c *gin.Context) {
	p, err := h.runner.Plan()
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.NewErrorResponse(500, fmt.Sprintf("组装流水线失败: %v", err)))
		return
	}
	resp, err := dto.PlanFromPipeline(p)
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.NewErrorResponse(500, fmt.Sprintf("构建执行计划失败: %v", err)))
		return
	}
	c.JSON(http.StatusOK, dto.NewSuccessResponse(resp))
}
