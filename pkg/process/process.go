// Package process 运行外部命令并按行转发其输出
package process

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"os/exec"
	"strings"

	"github.com/LENAX/saucer/pkg/core/task"
)

// Process 待执行的外部命令（对外导出）
type Process struct {
	bin         string
	path        string
	args        []string
	description string
}

// New 查找可执行文件并创建命令
// 找不到可执行文件时返回 "Could not find <bin>"
func New(bin string, args ...string) (*Process, error) {
	path, err := exec.LookPath(bin)
	if err != nil {
		return nil, fmt.Errorf("Could not find %s: %w", bin, err)
	}
	return &Process{
		bin:         bin,
		path:        path,
		args:        args,
		description: Describe(bin, args...),
	}, nil
}

// Describe 返回 "$ bin arg1 arg2"
func Describe(bin string, args ...string) string {
	return strings.Join(append([]string{"$ " + bin}, args...), " ")
}

// Description 命令描述
func (p *Process) Description() string {
	return p.description
}

// RunOptions 执行选项
type RunOptions struct {
	Prefix         string
	Dir            string
	SuppressStdout bool
	SuppressStderr bool
}

// Run 执行命令并等待结束
// stderr 与 stdout 按行加上前缀转发到日志，非零退出码返回错误
func (p *Process) Run(ctx context.Context, opts RunOptions) error {
	if msg := opts.Prefix + p.description; msg != "" {
		task.Logf("%s", msg)
	}

	cmd := exec.CommandContext(ctx, p.path, p.args...)
	cmd.Dir = opts.Dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()

	if !opts.SuppressStderr {
		relay(&stderr, opts.Prefix)
	}
	if !opts.SuppressStdout {
		relay(&stdout, opts.Prefix)
	}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return fmt.Errorf("%s%s failed with %s", opts.Prefix, p.description, exitErr.ProcessState.String())
		}
		return fmt.Errorf("%s%s could not be started: %w", opts.Prefix, p.description, err)
	}
	return nil
}

func relay(buf *bytes.Buffer, prefix string) {
	scanner := bufio.NewScanner(buf)
	for scanner.Scan() {
		log.Printf("%s%s", prefix, scanner.Text())
	}
}
