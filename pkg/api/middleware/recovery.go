package middleware

import (
	"log"
	"net/http"

	"github.com/LENAX/saucer/pkg/api/dto"
	"github.com/gin-gonic/gin"
)

// Recovery 处理器 panic 时返回统一的错误响应，堆栈由 gin 输出到 log 的输出位置
func Recovery() gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(log.Writer(), func(c *gin.Context, recovered any) {
		log.Printf("💥 [API] %s %s panic: %v", c.Request.Method, c.Request.URL.Path, recovered)
		c.AbortWithStatusJSON(http.StatusInternalServerError, dto.NewErrorResponse(500, "Internal Server Error"))
	})
}
