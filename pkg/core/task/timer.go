package task

import (
	"fmt"
	"time"
)

// Timer 单调时钟计时器（对外导出）
type Timer struct {
	start time.Time
}

// StartTimer 开始计时
func StartTimer() *Timer {
	return &Timer{start: time.Now()}
}

// Stop 返回自开始以来经过的时间，可多次调用
func (t *Timer) Stop() time.Duration {
	return time.Since(t.start)
}

// FormatElapsed 格式化耗时：不超过一秒时为 "N ms"，否则为 "S seconds, M ms"
func FormatElapsed(d time.Duration) string {
	millis := d.Milliseconds()
	if millis > 1000 {
		secs := millis / 1000
		return fmt.Sprintf("%d seconds, %d ms", secs, millis-secs*1000)
	}
	return fmt.Sprintf("%d ms", millis)
}
