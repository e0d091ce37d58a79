package cmd

import (
	"fmt"
	"strconv"
	"strings"

	internalstorage "github.com/LENAX/saucer/internal/storage"
	"github.com/LENAX/saucer/pkg/api/dto"
	"github.com/LENAX/saucer/pkg/cli/output"
	"github.com/LENAX/saucer/pkg/config"
	"github.com/LENAX/saucer/pkg/core/pipeline"
	"github.com/LENAX/saucer/pkg/core/task"
	"github.com/LENAX/saucer/pkg/storage"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	historyLimit  int
	historyOffset int
)

// historyCmd history子命令
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "运行历史查询命令",
	Long:  `查询 saucer.history 中记录的流水线运行。`,
}

// historyListCmd 列出运行
var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "按时间倒序列出运行",
	RunE: func(cmd *cobra.Command, args []string) error {
		repo, err := openHistory()
		if err != nil {
			return err
		}
		defer repo.Close()

		records, total, err := repo.ListRuns(cmd.Context(), historyLimit, historyOffset)
		if err != nil {
			return fmt.Errorf("查询运行历史失败: %w", err)
		}

		if outputJSON {
			items := make([]dto.RunSummary, 0, len(records))
			for _, rec := range records {
				items = append(items, dto.SummaryFromRecord(rec))
			}
			return output.PrintJSON(dto.ListResponse[dto.RunSummary]{
				Total:   total,
				Items:   items,
				HasMore: historyOffset+len(records) < total,
			})
		}

		if len(records) == 0 {
			output.Info("暂无运行记录")
			return nil
		}
		renderRuns(records)
		if historyOffset+len(records) < total {
			output.Info("共 %d 条，使用 --offset %d 查看更多", total, historyOffset+len(records))
		}
		return nil
	},
}

// historyShowCmd 查看运行详情
var historyShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "查看一次运行的阶段明细",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		repo, err := openHistory()
		if err != nil {
			return err
		}
		defer repo.Close()

		rec, err := repo.GetRun(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("查询运行 %s 失败: %w", args[0], err)
		}

		if outputJSON {
			return output.PrintJSON(dto.DetailFromRecord(rec))
		}
		renderRun(rec)
		return nil
	},
}

func init() {
	historyListCmd.Flags().IntVar(&historyLimit, "limit", dto.DefaultPageSize, "返回数量")
	historyListCmd.Flags().IntVar(&historyOffset, "offset", 0, "跳过数量")

	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyShowCmd)
}

// openHistory 按配置打开运行历史存储
func openHistory() (storage.RunRepository, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return openHistoryFrom(cfg)
}

func openHistoryFrom(cfg *config.Config) (storage.RunRepository, error) {
	h := cfg.Saucer.History
	if !h.Enabled {
		return nil, fmt.Errorf("运行历史未启用，请设置 saucer.history.enabled")
	}
	return internalstorage.NewRunRepository(h.Type, h.DSN)
}

const timeLayout = "2006-01-02 15:04:05"

// renderRuns 表格输出运行列表
func renderRuns(records []*storage.RunRecord) {
	table := output.NewTable("RUN_ID", "STATUS", "STARTED", "DURATION")
	for _, rec := range records {
		table.AddRow(rec.ID, rec.Status, rec.StartedAt.Local().Format(timeLayout), task.FormatElapsed(rec.Elapsed))
	}
	table.Render()
}

// renderRun 输出运行详情与阶段表格
func renderRun(rec *storage.RunRecord) {
	w := color.Output
	fmt.Fprintf(w, "Run:      %s\n", rec.ID)
	fmt.Fprintf(w, "Pipeline: %s\n", rec.Name)
	fmt.Fprintf(w, "Status:   %s\n", output.Status(rec.Status))
	fmt.Fprintf(w, "Started:  %s\n", rec.StartedAt.Local().Format(timeLayout))
	fmt.Fprintf(w, "Duration: %s\n\n", task.FormatElapsed(rec.Elapsed))

	table := output.NewTable("SEQ", "STAGE", "STATUS", "DURATION")
	for _, s := range rec.Stages {
		duration := "-"
		if s.Status != pipeline.StatusSkipped {
			duration = task.FormatElapsed(s.Elapsed)
		}
		table.AddRow(strconv.Itoa(s.Seq), s.Prefix+s.Description, s.Status, duration)
	}
	table.Render()

	for _, s := range rec.Stages {
		if len(s.Causes) == 0 {
			continue
		}
		fmt.Fprintln(w)
		color.New(color.FgRed).Fprintf(w, "%s%s:\n", s.Prefix, s.Description)
		for _, c := range s.Causes {
			fmt.Fprintf(w, "  - %s\n", strings.ReplaceAll(c, "\n", "\n    "))
		}
	}
}
