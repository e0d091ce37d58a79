package cmd

import (
	"fmt"
	"runtime"
	"runtime/debug"

	"github.com/LENAX/saucer/pkg/cli/output"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// 构建时通过 -ldflags "-X" 注入
var (
	Version   = "0.1.0"
	GitCommit = ""
	BuildTime = ""
)

type versionInfo struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit,omitempty"`
	BuildTime string `json:"build_time,omitempty"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

// currentVersion 未注入提交信息时回退到 go build 记录的 vcs 信息
func currentVersion() versionInfo {
	v := versionInfo{
		Version:   Version,
		GitCommit: GitCommit,
		BuildTime: BuildTime,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, s := range info.Settings {
			switch {
			case s.Key == "vcs.revision" && v.GitCommit == "":
				v.GitCommit = s.Value
			case s.Key == "vcs.time" && v.BuildTime == "":
				v.BuildTime = s.Value
			}
		}
	}
	return v
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "显示版本信息",
	RunE: func(cmd *cobra.Command, args []string) error {
		v := currentVersion()
		if outputJSON {
			return output.PrintJSON(v)
		}
		fmt.Fprintf(color.Output, "saucer %s (%s, %s)\n", v.Version, v.GoVersion, v.Platform)
		if v.GitCommit != "" {
			fmt.Fprintf(color.Output, "commit %s %s\n", v.GitCommit, v.BuildTime)
		}
		return nil
	},
}
