package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"filedock-go/pkg/log"
)

// RequestLogger 是一个 Gin 中间件，用于记录请求日志。
// 不捕获请求体与响应体：文件接口的负载是任意字节，进日志既贵又没有意义。
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()

		c.Next()

		latency := time.Since(startTime)
		log.Infow("HTTP Request Log",
			"statusCode", c.Writer.Status(),
			"latency", latency.String(),
			"clientIP", c.ClientIP(),
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
		)
	}
}
