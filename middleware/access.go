package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"RZProject/logger"
)

// AccessLog 访问日志（zap）
func AccessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debugf("[http] %s %s status=%d cost=%s",
			c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start))
	}
}
