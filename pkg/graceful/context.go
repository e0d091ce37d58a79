// Package graceful 把 SIGINT/SIGTERM 转换为 context 取消
package graceful

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
)

// Context 返回收到中断信号时取消的 context
// 调用 cancel 后停止监听信号
func Context(ctx context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(ctx)
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigChan)
		select {
		case <-sigChan:
			log.Println("🛑 收到终止信号，开始优雅关闭...")
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}
