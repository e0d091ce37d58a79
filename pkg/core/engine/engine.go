// Package engine 负责一次次地组装并执行流水线：互斥运行、历史记录、事件与插件通知、定时触发
package engine

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/LENAX/saucer/pkg/core/pipeline"
	"github.com/LENAX/saucer/pkg/core/task"
	"github.com/LENAX/saucer/pkg/plugin"
	"github.com/LENAX/saucer/pkg/storage"
	"github.com/google/uuid"
)

// ErrRunInProgress 已有流水线在运行
var ErrRunInProgress = errors.New("a pipeline run is already in progress")

// PipelineFactory 每次运行前组装一棵新的任务树（对外导出）
type PipelineFactory func() (*pipeline.Pipeline, error)

// Engine 流水线运行引擎（对外导出）
type Engine struct {
	factory  PipelineFactory
	history  storage.RunRepository
	observer task.Observer
	plugins  plugin.PluginManager
	cron     *CronScheduler

	runMu   sync.Mutex // 保护 running
	running bool
	current string

	lastMu sync.RWMutex
	last   *pipeline.Report

	wg sync.WaitGroup
}

// Option Engine配置项
type Option func(*Engine)

// WithHistory 运行结束后把报告写入历史存储
func WithHistory(repo storage.RunRepository) Option {
	return func(e *Engine) { e.history = repo }
}

// WithObserver 运行期间的进度事件发送给观察者（通常是事件总线）
func WithObserver(obs task.Observer) Option {
	return func(e *Engine) { e.observer = obs }
}

// WithPluginManager 运行结束后触发插件
func WithPluginManager(pm plugin.PluginManager) Option {
	return func(e *Engine) { e.plugins = pm }
}

// NewEngine 创建Engine实例（对外导出的工厂方法）
func NewEngine(factory PipelineFactory, opts ...Option) (*Engine, error) {
	if factory == nil {
		return nil, fmt.Errorf("PipelineFactory不能为空")
	}
	e := &Engine{
		factory: factory,
		cron:    NewCronScheduler(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// History 返回历史存储（可能为nil）
func (e *Engine) History() storage.RunRepository {
	return e.history
}

// Plan 组装但不执行流水线
func (e *Engine) Plan() (*pipeline.Pipeline, error) {
	return e.factory()
}

// Running 返回是否有运行在进行以及其运行ID
func (e *Engine) Running() (string, bool) {
	e.runMu.Lock()
	defer e.runMu.Unlock()
	return e.current, e.running
}

// LastReport 返回最近一次完成的运行报告
func (e *Engine) LastReport() *pipeline.Report {
	e.lastMu.RLock()
	defer e.lastMu.RUnlock()
	return e.last
}

func (e *Engine) acquire(runID string) bool {
	e.runMu.Lock()
	defer e.runMu.Unlock()
	if e.running {
		return false
	}
	e.running = true
	e.current = runID
	return true
}

func (e *Engine) release() {
	e.runMu.Lock()
	e.running = false
	e.current = ""
	e.runMu.Unlock()
}

// RunOnce 同步执行一次流水线，返回报告与流水线错误
// 已有运行时立即返回 ErrRunInProgress
func (e *Engine) RunOnce(ctx context.Context) (*pipeline.Report, error) {
	runID := task.GetRunID(ctx)
	if runID == "" {
		runID = uuid.NewString()
	}
	if !e.acquire(runID) {
		return nil, ErrRunInProgress
	}
	defer e.release()

	report, err := e.execute(ctx, runID)
	if err != nil {
		return nil, err
	}
	return report, report.Err
}

// Submit 异步执行一次流水线，立即返回运行ID
// 运行使用脱离调用方取消的context，调用方返回后运行继续
func (e *Engine) Submit(ctx context.Context) (string, error) {
	runID := uuid.NewString()
	if !e.acquire(runID) {
		return "", ErrRunInProgress
	}

	runCtx := context.WithoutCancel(ctx)
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		defer e.release()
		if _, err := e.execute(runCtx, runID); err != nil {
			log.Printf("❌ [Engine] 运行 %s 无法开始: %v", runID, err)
		}
	}()
	return runID, nil
}

// Wait 等待所有异步运行结束
func (e *Engine) Wait() {
	e.wg.Wait()
}

func (e *Engine) execute(ctx context.Context, runID string) (*pipeline.Report, error) {
	p, err := e.factory()
	if err != nil {
		return nil, fmt.Errorf("组装流水线失败: %w", err)
	}

	ctx = task.WithRunID(ctx, runID)
	if e.observer != nil {
		ctx = task.WithObserver(ctx, e.observer)
	}

	report := p.Execute(ctx)

	e.lastMu.Lock()
	e.last = report
	e.lastMu.Unlock()

	// 被中断的运行同样要记录和通知
	after := context.WithoutCancel(ctx)
	if e.history != nil {
		if err := e.history.SaveReport(after, report); err != nil {
			log.Printf("⚠️ [Engine] 保存运行记录失败: RunID=%s, Error=%v", runID, err)
		}
	}
	e.notifyPlugins(after, report)
	return report, nil
}

// notifyPlugins 先为失败阶段触发 stage.failed，再触发运行结束事件
func (e *Engine) notifyPlugins(ctx context.Context, report *pipeline.Report) {
	if e.plugins == nil {
		return
	}
	for _, sr := range report.Stages {
		if sr.Skipped || sr.Outcome.Success() {
			continue
		}
		data := plugin.PluginData{
			RunID:   report.RunID,
			Name:    report.Name,
			Stage:   sr.Prefix + sr.Description,
			Status:  sr.Status(),
			Elapsed: sr.Outcome.Elapsed,
			Error:   sr.Outcome.Err,
			Data:    map[string]interface{}{"causes": len(sr.Outcome.Causes)},
		}
		if err := e.plugins.Trigger(ctx, plugin.EventStageFailed, data); err != nil {
			log.Printf("⚠️ [Engine] %v", err)
		}
	}

	event := plugin.EventRunCompleted
	if !report.Success() {
		event = plugin.EventRunFailed
	}
	data := plugin.PluginData{
		RunID:   report.RunID,
		Name:    report.Name,
		Status:  report.Status(),
		Elapsed: report.Elapsed,
		Error:   report.Err,
		Data:    map[string]interface{}{"stages": len(report.Stages)},
	}
	if err := e.plugins.Trigger(ctx, event, data); err != nil {
		log.Printf("⚠️ [Engine] %v", err)
	}
}

// Schedule 按Cron表达式定时运行流水线，到点时已有运行则跳过本次
func (e *Engine) Schedule(name, expr string) error {
	return e.cron.Register(name, expr, func() {
		report, err := e.RunOnce(context.Background())
		switch {
		case errors.Is(err, ErrRunInProgress):
			log.Printf("⏭️  [Engine] 定时任务 %s 跳过: 上一次运行尚未结束", name)
		case err != nil && report == nil:
			log.Printf("❌ [Engine] 定时任务 %s 失败: %v", name, err)
		}
	})
}

// Unschedule 取消定时运行
func (e *Engine) Unschedule(name string) error {
	return e.cron.Unregister(name)
}

// Scheduler 返回定时调度器
func (e *Engine) Scheduler() *CronScheduler {
	return e.cron
}

// Start 启动定时调度器（对外导出）
func (e *Engine) Start() {
	e.cron.Start()
	log.Println("✅ 流水线引擎已启动")
}

// Stop 停止定时调度器并等待进行中的运行结束（对外导出）
func (e *Engine) Stop() {
	e.cron.Stop()
	e.wg.Wait()
	log.Println("✅ 流水线引擎已停止")
}
