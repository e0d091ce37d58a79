package engine

import (
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// cronParser 支持可选秒字段的Cron解析器，5段与6段表达式均可
var cronParser = cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// ParseCron 校验Cron表达式（对外导出）
func ParseCron(expr string) (cron.Schedule, error) {
	if expr == "" {
		return nil, fmt.Errorf("Cron表达式不能为空")
	}
	return cronParser.Parse(expr)
}

// CronScheduler 定时调度器（对外导出）
type CronScheduler struct {
	cron    *cron.Cron
	entries map[string]cron.EntryID // 任务名 -> cron.EntryID映射
	exprs   map[string]string       // 任务名 -> Cron表达式
	mu      sync.RWMutex
}

// NewCronScheduler 创建定时调度器（对外导出）
func NewCronScheduler() *CronScheduler {
	return &CronScheduler{
		cron:    cron.New(cron.WithParser(cronParser)),
		entries: make(map[string]cron.EntryID),
		exprs:   make(map[string]string),
	}
}

// Register 注册定时任务（对外导出）
func (cs *CronScheduler) Register(name, expr string, fn func()) error {
	if fn == nil {
		return fmt.Errorf("定时任务 %s 的执行函数不能为空", name)
	}
	if _, err := ParseCron(expr); err != nil {
		return fmt.Errorf("定时任务 %s 的Cron表达式无效: %w", name, err)
	}

	cs.mu.Lock()
	defer cs.mu.Unlock()

	if _, exists := cs.entries[name]; exists {
		return fmt.Errorf("定时任务 %s 已注册到定时调度器", name)
	}

	entryID, err := cs.cron.AddFunc(expr, func() {
		log.Printf("🕐 [Cron调度器] 触发定时任务: %s", name)
		fn()
	})
	if err != nil {
		return fmt.Errorf("添加Cron任务失败: %w", err)
	}

	cs.entries[name] = entryID
	cs.exprs[name] = expr
	log.Printf("✅ [Cron调度器] 已注册定时任务: Name=%s, CronExpr=%s", name, expr)
	return nil
}

// Unregister 取消注册定时任务（对外导出）
func (cs *CronScheduler) Unregister(name string) error {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	entryID, exists := cs.entries[name]
	if !exists {
		return fmt.Errorf("定时任务 %s 未注册到定时调度器", name)
	}

	cs.cron.Remove(entryID)
	delete(cs.entries, name)
	delete(cs.exprs, name)

	log.Printf("✅ [Cron调度器] 已取消注册定时任务: %s", name)
	return nil
}

// Next 返回定时任务的下一次触发时间
func (cs *CronScheduler) Next(name string) (time.Time, bool) {
	cs.mu.RLock()
	entryID, exists := cs.entries[name]
	cs.mu.RUnlock()
	if !exists {
		return time.Time{}, false
	}
	entry := cs.cron.Entry(entryID)
	// 调度循环尚未计算下一次时间
	if entry.Next.IsZero() && entry.Schedule != nil {
		return entry.Schedule.Next(time.Now()), true
	}
	return entry.Next, true
}

// Start 启动定时调度器（对外导出）
func (cs *CronScheduler) Start() {
	cs.cron.Start()
	log.Println("✅ [Cron调度器] 已启动")
}

// Stop 停止定时调度器并等待正在执行的任务结束（对外导出）
func (cs *CronScheduler) Stop() {
	<-cs.cron.Stop().Done()
	log.Println("✅ [Cron调度器] 已停止")
}

// Registered 获取已注册的定时任务名称（按名称排序）
func (cs *CronScheduler) Registered() []string {
	cs.mu.RLock()
	defer cs.mu.RUnlock()

	names := make([]string, 0, len(cs.entries))
	for name := range cs.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Expr 返回定时任务的Cron表达式
func (cs *CronScheduler) Expr(name string) string {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	return cs.exprs[name]
}
