// Package cmd saucer 命令行
package cmd

import (
	"log"
	"os"

	"github.com/LENAX/saucer/pkg/cli/output"
	"github.com/LENAX/saucer/pkg/config"
	"github.com/spf13/cobra"
)

var (
	// 全局变量
	configPath string
	outputJSON bool
)

// rootCmd 根命令
var rootCmd = &cobra.Command{
	Use:   "saucer",
	Short: "saucer - 前端构建流水线",
	Long: `saucer 把前端构建步骤组合为分阶段的并行流水线。

支持的功能：
  - 执行完整构建或单个构建步骤
  - 查看执行计划
  - 查询运行历史
  - 启动HTTP状态服务与定时构建

使用示例：
  # 执行完整构建
  saucer bundle

  # 只构建CSS
  saucer bundle css

  # 查看最近的运行
  saucer history list

  # 每10分钟重新构建
  saucer schedule --cron "*/10 * * * *"`,
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// 进度日志只输出消息本身
		log.SetFlags(0)
	},
}

// Execute 执行根命令，失败时输出错误链并以非零状态退出
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		output.Failure(err)
		os.Exit(1)
	}
}

func init() {
	// 全局参数
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "saucer.yaml", "配置文件路径，不存在时使用默认配置")
	rootCmd.PersistentFlags().BoolVarP(&outputJSON, "json", "j", false, "使用JSON格式输出")

	// 添加子命令
	rootCmd.AddCommand(bundleCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(serverCmd)
	rootCmd.AddCommand(scheduleCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig 加载全局 --config 指定的配置
func loadConfig() (*config.Config, error) {
	return config.Load(configPath)
}
