package cmd

import (
	"fmt"

	"github.com/LENAX/saucer/internal/app"
	"github.com/LENAX/saucer/pkg/cli/output"
	"github.com/LENAX/saucer/pkg/graceful"
	"github.com/spf13/cobra"
)

// scheduleName 定时构建在调度器中的名称
const scheduleName = "bundle"

var scheduleCron string

// scheduleCmd 定时构建
var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "按 cron 表达式定时执行完整构建",
	Long: `按 cron 表达式定时执行完整构建，直到收到 SIGINT/SIGTERM。
支持5段或6段（含秒）表达式以及 @every 30m、@hourly 等描述符；
上一次构建未结束时跳过本次触发。

示例：
  saucer schedule --cron "*/10 * * * *"
  saucer schedule --cron "@every 1h"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		expr := cfg.Saucer.Schedule.Cron
		if cmd.Flags().Changed("cron") {
			expr = scheduleCron
		}
		if expr == "" {
			return fmt.Errorf("未指定 cron 表达式，请使用 --cron 或 saucer.schedule.cron")
		}

		a, err := app.New(cfg)
		if err != nil {
			return err
		}
		defer a.Close()
		if err := a.Start(); err != nil {
			return err
		}

		if err := a.Engine.Schedule(scheduleName, expr); err != nil {
			return err
		}
		a.Engine.Start()

		if next, ok := a.Engine.Scheduler().Next(scheduleName); ok {
			output.Success("定时构建已启动: %s，下一次: %s", expr, next.Format("2006-01-02 15:04:05"))
		}

		ctx, cancel := graceful.Context(cmd.Context())
		defer cancel()
		<-ctx.Done()

		output.Info("正在停止定时构建...")
		a.Engine.Stop()
		output.Success("定时构建已停止")
		return nil
	},
}

func init() {
	scheduleCmd.Flags().StringVar(&scheduleCron, "cron", "", "cron 表达式，默认读取 saucer.schedule.cron")
}
