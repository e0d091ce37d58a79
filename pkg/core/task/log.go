package task

import (
	"fmt"
	"log"
	"strings"
)

const logFrame = "------------------------------------------------"

// Logf 输出进度日志，多行消息加上分隔框便于在并发输出中辨认
func Logf(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if strings.Contains(msg, "\n") {
		log.Printf("%s\n%s\n%s", logFrame, msg, logFrame)
		return
	}
	log.Print(msg)
}
