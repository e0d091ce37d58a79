package main

import (
	"errors"
	"io/fs"
	"log"

	"github.com/LENAX/saucer/pkg/cli/cmd"
	"github.com/joho/godotenv"
)

func main() {
	// .env 中的变量不会覆盖已设置的环境变量
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Printf("⚠️ 加载 .env 失败: %v", err)
	}
	cmd.Execute()
}
