// Package fsutil 提供构建任务使用的文件系统辅助函数，每个操作都带日志前缀
package fsutil

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/LENAX/saucer/pkg/core/task"
)

// SkippedFileName 复制目录时跳过的文件名
const SkippedFileName = "README.md"

// ReadFile 读取文件内容
// 文件不存在、不是普通文件或内容为空时返回错误
func ReadFile(path, prefix string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("could not find '%s': %w", path, err)
	}
	if !info.Mode().IsRegular() {
		return "", fmt.Errorf("'%s' is not a file", path)
	}
	task.Logf("%sreading %s from disk", prefix, path)
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("%scould not read %s: %w", prefix, path, err)
	}
	if len(data) == 0 {
		return "", fmt.Errorf("'%s' was empty", path)
	}
	return string(data), nil
}

// WriteFile 写入文件
func WriteFile(path string, contents []byte, prefix string) error {
	task.Logf("%swriting %s to disk", prefix, path)
	if err := os.WriteFile(path, contents, 0644); err != nil {
		return fmt.Errorf("%scould not write %s: %w", prefix, path, err)
	}
	return nil
}

// CreateDir 递归创建目录
func CreateDir(path, prefix string) error {
	task.Logf("%screating %s directory", prefix, path)
	if err := os.MkdirAll(path, 0755); err != nil {
		return fmt.Errorf("%scould not create %s: %w", prefix, path, err)
	}
	return nil
}

// CopyDir 递归复制目录内容，跳过 README.md
func CopyDir(inDir, outDir, prefix string) error {
	task.Logf("%scopying contents of %s to %s", prefix, inDir, outDir)
	entries, err := os.ReadDir(inDir)
	if err != nil {
		return fmt.Errorf("%scannot read %s: %w", prefix, inDir, err)
	}
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return fmt.Errorf("%scould not create %s: %w", prefix, outDir, err)
	}

	for _, entry := range entries {
		src := filepath.Join(inDir, entry.Name())
		dst := filepath.Join(outDir, entry.Name())
		switch {
		case entry.IsDir():
			if err := CopyDir(src, dst, prefix); err != nil {
				return err
			}
		case entry.Type().IsRegular():
			if strings.Contains(entry.Name(), SkippedFileName) {
				continue
			}
			task.Logf("%scopying %s to %s", prefix, src, dst)
			if err := copyFile(src, dst); err != nil {
				return fmt.Errorf("%scould not copy %s to %s: %w", prefix, src, dst, err)
			}
		}
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, info.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
