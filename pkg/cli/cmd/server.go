package cmd

import (
	"context"
	"fmt"
	"log"

	"github.com/LENAX/saucer/internal/app"
	"github.com/LENAX/saucer/pkg/api"
	"github.com/LENAX/saucer/pkg/cli/output"
	"github.com/LENAX/saucer/pkg/graceful"
	"github.com/spf13/cobra"
)

var (
	serverHost string
	serverPort int
)

// serverCmd server子命令
var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "服务管理命令",
	Long:  `管理 saucer HTTP 状态服务。`,
}

// serverStartCmd 启动服务
var serverStartCmd = &cobra.Command{
	Use:   "start",
	Short: "启动HTTP状态服务",
	Long: `启动 saucer HTTP 状态服务，提供运行触发、运行历史、执行计划与实时进度推送。
配置了 saucer.schedule.cron 时同时按计划定时构建。

示例：
  # 使用默认配置启动
  saucer server start

  # 指定端口启动
  saucer server start --port 9090`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("host") {
			cfg.Saucer.Server.Host = serverHost
		}
		if cmd.Flags().Changed("port") {
			cfg.Saucer.Server.Port = serverPort
		}

		a, err := app.New(cfg)
		if err != nil {
			return err
		}
		defer a.Close()

		serverCfg := api.DefaultServerConfig()
		serverCfg.Host = cfg.Saucer.Server.Host
		serverCfg.Port = cfg.Saucer.Server.Port
		apiServer := api.NewAPIServer(a.Engine, a.History, a.Bus, serverCfg, Version)

		// 事件流需在总线启动前订阅
		if _, err := apiServer.Handler(); err != nil {
			return err
		}
		if err := a.Start(); err != nil {
			return err
		}

		if expr := cfg.Saucer.Schedule.Cron; expr != "" {
			if err := a.Engine.Schedule(scheduleName, expr); err != nil {
				return err
			}
			a.Engine.Start()
			defer a.Engine.Stop()
			output.Info("定时构建: %s", expr)
		}

		ctx, cancel := graceful.Context(cmd.Context())
		defer cancel()

		errCh := make(chan error, 1)
		go func() {
			errCh <- apiServer.Start()
		}()

		output.Success("saucer server started on %s", apiServer.Addr())

		select {
		case err := <-errCh:
			if err != nil {
				return err
			}
			return nil
		case <-ctx.Done():
		}

		output.Info("正在关闭服务...")

		// 优雅关闭
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Saucer.Server.ShutdownTimeout)
		defer shutdownCancel()

		if err := apiServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("关闭API服务器失败: %w", err)
		}
		// 等待已提交的运行结束
		a.Engine.Wait()
		if err := <-errCh; err != nil {
			log.Printf("⚠️ API服务器错误: %v", err)
		}

		output.Success("服务已停止")
		return nil
	},
}

func init() {
	serverStartCmd.Flags().StringVar(&serverHost, "host", "0.0.0.0", "监听地址")
	serverStartCmd.Flags().IntVarP(&serverPort, "port", "p", 8080, "监听端口")

	serverCmd.AddCommand(serverStartCmd)
}
