package storage

import (
	"context"
	"sync"
	"time"

	"github.com/LENAX/saucer/pkg/core/pipeline"
)

// cacheEntry 缓存条目（内部使用）
type cacheEntry struct {
	record     *RunRecord
	expireTime time.Time
}

// CachedRunRepository 缓存 GetRun 结果的运行历史装饰器（对外导出）
// 已结束的运行不会再变化，SaveReport 覆盖同一ID时使缓存失效；ListRuns 不缓存
type CachedRunRepository struct {
	RunRepository
	ttl  time.Duration
	mu   sync.RWMutex
	runs map[string]*cacheEntry
	stop chan struct{}
	once sync.Once
}

// NewCachedRunRepository 创建缓存装饰器，ttl<=0 时默认5分钟
func NewCachedRunRepository(repo RunRepository, ttl time.Duration) *CachedRunRepository {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	c := &CachedRunRepository{
		RunRepository: repo,
		ttl:           ttl,
		runs:          make(map[string]*cacheEntry),
		stop:          make(chan struct{}),
	}
	// 启动清理协程，定期清理过期缓存
	go c.cleanupExpired()
	return c
}

// SaveReport 保存并使该运行的缓存失效
func (c *CachedRunRepository) SaveReport(ctx context.Context, report *pipeline.Report) error {
	err := c.RunRepository.SaveReport(ctx, report)
	if report != nil {
		c.mu.Lock()
		delete(c.runs, report.RunID)
		c.mu.Unlock()
	}
	return err
}

// GetRun 优先读取缓存，未命中时查询底层存储
func (c *CachedRunRepository) GetRun(ctx context.Context, id string) (*RunRecord, error) {
	c.mu.RLock()
	entry, ok := c.runs[id]
	c.mu.RUnlock()
	if ok && time.Now().Before(entry.expireTime) {
		return entry.record, nil
	}

	rec, err := c.RunRepository.GetRun(ctx, id)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.runs[id] = &cacheEntry{record: rec, expireTime: time.Now().Add(c.ttl)}
	c.mu.Unlock()
	return rec, nil
}

// Len 当前缓存条目数
func (c *CachedRunRepository) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.runs)
}

// Close 停止清理协程并关闭底层存储
func (c *CachedRunRepository) Close() error {
	c.once.Do(func() { close(c.stop) })
	return c.RunRepository.Close()
}

// cleanupExpired 清理过期缓存（内部方法）
func (c *CachedRunRepository) cleanupExpired() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case now := <-ticker.C:
			c.mu.Lock()
			for id, entry := range c.runs {
				if now.After(entry.expireTime) {
					delete(c.runs, id)
				}
			}
			c.mu.Unlock()
		}
	}
}
