package dto

import "time"

// APIResponse 通用API响应结构
type APIResponse[T any] struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    T      `json:"data,omitempty"`
}

// NewSuccessResponse 创建成功响应
func NewSuccessResponse[T any](data T) APIResponse[T] {
	return APIResponse[T]{
		Code:    0,
		Message: "success",
		Data:    data,
	}
}

// NewErrorResponse 创建错误响应
func NewErrorResponse(code int, message string) APIResponse[any] {
	return APIResponse[any]{
		Code:    code,
		Message: message,
	}
}

// RunSummary 运行摘要信息
type RunSummary struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Status       string    `json:"status"`
	StartedAt    time.Time `json:"started_at"`
	ElapsedMs    int64     `json:"elapsed_ms"`
	Duration     string    `json:"duration"`
	ErrorMessage string    `json:"error_message,omitempty"`
}

// RunDetail 运行详细信息
type RunDetail struct {
	RunSummary
	Stages []StageDetail `json:"stages"`
}

// StageDetail 阶段执行信息
type StageDetail struct {
	Seq         int      `json:"seq"`
	Description string   `json:"description"`
	Prefix      string   `json:"prefix"`
	Status      string   `json:"status"`
	ElapsedMs   int64    `json:"elapsed_ms"`
	Causes      []string `json:"causes,omitempty"`
}

// TriggerResponse 触发运行响应
type TriggerResponse struct {
	RunID   string `json:"run_id"`
	Message string `json:"message"`
}

// StatusResponse 引擎当前状态
type StatusResponse struct {
	Running      bool        `json:"running"`
	CurrentRunID string      `json:"current_run_id,omitempty"`
	LastRun      *RunSummary `json:"last_run,omitempty"`
}

// PlanResponse 执行计划
type PlanResponse struct {
	Name     string     `json:"name"`
	Stages   int        `json:"stages"`
	Rendered string     `json:"rendered"`
	Nodes    []PlanNode `json:"nodes"`
}

// PlanNode 执行计划节点
type PlanNode struct {
	ID       string `json:"id"`
	ParentID string `json:"parent_id,omitempty"`
	Label    string `json:"label"`
	Kind     string `json:"kind"`
	Depth    int    `json:"depth"`
}

// HealthResponse 健康检查响应
type HealthResponse struct {
	Status       string `json:"status"`
	Version      string `json:"version"`
	Uptime       string `json:"uptime"`
	Timestamp    string `json:"timestamp"`
	Running      bool   `json:"running"`
	CurrentRunID string `json:"current_run_id,omitempty"`
	History      bool   `json:"history"`
}

// ReadyResponse 就绪检查响应，Checks 中非 "ok" 的值为失败原因
type ReadyResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// ListResponse 列表响应
type ListResponse[T any] struct {
	Total   int  `json:"total"`
	Items   []T  `json:"items"`
	HasMore bool `json:"has_more"`
}
