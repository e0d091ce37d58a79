package cmd

import (
	"fmt"
	"strings"

	"github.com/LENAX/saucer/internal/app"
	"github.com/LENAX/saucer/pkg/api/dto"
	"github.com/LENAX/saucer/pkg/bundle"
	"github.com/LENAX/saucer/pkg/cli/output"
	"github.com/LENAX/saucer/pkg/config"
	"github.com/LENAX/saucer/pkg/core/task"
	"github.com/LENAX/saucer/pkg/graceful"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

const (
	stepAll  = "all"
	stepPlan = "plan"
)

// bundleOptions bundle 命令行参数，只有显式指定的参数会覆盖配置
type bundleOptions struct {
	skipNodeDeps bool
	awcConfig    string
	templateFile string
	publicFile   string
	bucketDir    string
	publicDir    string
	verifyAssets bool
	publish      bool
	noHistory    bool
}

var bundleOpts bundleOptions

// bundleCmd bundle命令
var bundleCmd = &cobra.Command{
	Use:   "bundle [all|deps|css|js|html|bucket|verify|publish|plan]",
	Short: "执行前端构建",
	Long: `执行完整的分阶段构建流水线，或只执行其中一个步骤。

  all      完整流水线（默认）
  plan     只输出执行计划，不执行

示例：
  # 完整构建，跳过 npm 依赖安装
  saucer bundle --skip-node-deps

  # 只渲染 HTML 模板
  saucer bundle html --awc-config ./awc-web/awc.prod.json`,
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: []string{stepAll, "deps", "css", "js", "html", "bucket", "verify", "publish", stepPlan},
	RunE: func(cmd *cobra.Command, args []string) error {
		step := stepAll
		if len(args) == 1 {
			step = args[0]
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if err := applyBundleFlags(cmd, cfg, bundleOpts); err != nil {
			return err
		}

		switch step {
		case stepPlan:
			return printPlan(bundle.NewDriver(cfg))
		case stepAll:
			return runAll(cmd, cfg)
		default:
			return runStep(cmd, cfg, step)
		}
	},
}

func init() {
	addBundleFlags(bundleCmd, &bundleOpts)
}

func addBundleFlags(cmd *cobra.Command, opts *bundleOptions) {
	f := cmd.Flags()
	f.BoolVar(&opts.skipNodeDeps, "skip-node-deps", false, "跳过 npm 依赖安装")
	f.StringVar(&opts.awcConfig, "awc-config", "", "awc 配置文件路径")
	f.StringVar(&opts.templateFile, "template-file", "", "HTML 模板路径")
	f.StringVar(&opts.publicFile, "public-file", "", "HTML 输出路径")
	f.StringVar(&opts.bucketDir, "bucket-dir", "", "静态资源源目录")
	f.StringVar(&opts.publicDir, "public-dir", "", "静态资源输出目录")
	f.BoolVar(&opts.verifyAssets, "verify-assets", false, "校验 HTML 引用的资源是否存在")
	f.BoolVar(&opts.publish, "publish", false, "构建完成后发布到对象存储")
	f.BoolVar(&opts.noHistory, "no-history", false, "不记录本次运行")
}

// applyBundleFlags 把显式指定的参数写入配置并重新校验
func applyBundleFlags(cmd *cobra.Command, cfg *config.Config, opts bundleOptions) error {
	f := cmd.Flags()
	b := &cfg.Saucer.Bundle
	if f.Changed("skip-node-deps") {
		b.SkipNodeDeps = opts.skipNodeDeps
	}
	if f.Changed("awc-config") {
		b.HTML.AwcConfig = opts.awcConfig
	}
	if f.Changed("template-file") {
		b.HTML.TemplateFile = opts.templateFile
	}
	if f.Changed("public-file") {
		b.HTML.PublicFile = opts.publicFile
	}
	if f.Changed("bucket-dir") {
		b.Bucket.BucketDir = opts.bucketDir
	}
	if f.Changed("public-dir") {
		b.Bucket.PublicDir = opts.publicDir
	}
	if f.Changed("verify-assets") {
		b.VerifyAssets = opts.verifyAssets
	}
	if f.Changed("publish") {
		cfg.Saucer.Publish.Enabled = opts.publish
	}
	return config.Validate(cfg)
}

// runAll 执行完整流水线
func runAll(cmd *cobra.Command, cfg *config.Config) error {
	var appOpts []app.Option
	if bundleOpts.noHistory {
		appOpts = append(appOpts, app.WithoutHistory())
	}
	a, err := app.New(cfg, appOpts...)
	if err != nil {
		return err
	}
	defer a.Close()
	if err := a.Start(); err != nil {
		return err
	}

	ctx, cancel := graceful.Context(cmd.Context())
	defer cancel()

	report, err := a.Engine.RunOnce(ctx)
	if report != nil && outputJSON {
		if jsonErr := output.PrintJSON(dto.DetailFromReport(report)); jsonErr != nil {
			return jsonErr
		}
	}
	if err != nil {
		return err
	}
	if !outputJSON {
		output.Celebrate(report.Elapsed)
	}
	return nil
}

// runStep 单独执行一个构建步骤
func runStep(cmd *cobra.Command, cfg *config.Config, name string) error {
	d := bundle.NewDriver(cfg)
	t, err := d.Step(name)
	if err != nil {
		return fmt.Errorf("%w (可选: %s, %s, %s)", err, stepAll, stepPlan, strings.Join(d.StepNames(), ", "))
	}

	ctx, cancel := graceful.Context(cmd.Context())
	defer cancel()

	outcome := task.Execute(ctx, t)
	if outcome.Err != nil {
		return outcome.Err
	}
	output.Celebrate(outcome.Elapsed)
	return nil
}

// printPlan 输出执行计划
func printPlan(d *bundle.Driver) error {
	p, err := d.Pipeline()
	if err != nil {
		return err
	}
	plan, err := dto.PlanFromPipeline(p)
	if err != nil {
		return err
	}
	if outputJSON {
		return output.PrintJSON(plan)
	}
	fmt.Fprint(color.Output, plan.Rendered)
	return nil
}
