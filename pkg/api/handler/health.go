package handler

import (
	"net/http"
	"time"

	"github.com/LENAX/saucer/pkg/api/dto"
	"github.com/LENAX/saucer/pkg/storage"
	"github.com/gin-gonic/gin"
)

// HealthHandler 健康与就绪检查处理器
type HealthHandler struct {
	runner    Runner
	history   storage.RunRepository
	version   string
	startTime time.Time
}

// NewHealthHandler 创建HealthHandler，history 可以为nil
func NewHealthHandler(runner Runner, history storage.RunRepository, version string) *HealthHandler {
	return &HealthHandler{
		runner:    runner,
		history:   history,
		version:   version,
		startTime: time.Now(),
	}
}

// Health 进程存活与当前运行
// GET /health
func (h *HealthHandler) Health(c *gin.Context) {
	current, running := h.runner.Running()
	c.JSON(http.StatusOK, dto.NewSuccessResponse(dto.HealthResponse{
		Status:       "healthy",
		Version:      h.version,
		Uptime:       time.Since(h.startTime).Round(time.Second).String(),
		Timestamp:    time.Now().Format(time.RFC3339),
		Running:      running,
		CurrentRunID: current,
		History:      h.history != nil,
	}))
}

// Ready 流水线可以组装且运行历史可读时就绪
// GET /ready
func (h *HealthHandler) Ready(c *gin.Context) {
	resp := dto.ReadyResponse{Status: "ready", Checks: map[string]string{}}

	if _, err := h.runner.Plan(); err != nil {
		resp.Checks["pipeline"] = err.Error()
	} else {
		resp.Checks["pipeline"] = "ok"
	}
	if h.history != nil {
		if _, _, err := h.history.ListRuns(c.Request.Context(), 1, 0); err != nil {
			resp.Checks["history"] = err.Error()
		} else {
			resp.Checks["history"] = "ok"
		}
	}

	for _, v := range resp.Checks {
		if v != "ok" {
			resp.Status = "not ready"
			c.JSON(http.StatusServiceUnavailable, dto.APIResponse[dto.ReadyResponse]{
				Code:    503,
				Message: "not ready",
				Data:    resp,
			})
			return
		}
	}
	c.JSON(http.StatusOK, dto.NewSuccessResponse(resp))
}
