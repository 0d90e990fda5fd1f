// internal/delivery/http/middleware.go
package httpapi

import (
	"time"

	"crypto-exchange-web/pkg/logger"

	"github.com/gin-gonic/gin"
)

// requestLogger пишет строку лога на каждый запрос и отдает итог в observer
func requestLogger(observer RequestObserver) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := c.Writer.Status()

		if observer != nil {
			observer.ObserveHTTP(c.Request.Method, path, status)
		}

		if status >= 500 {
			logger.Warn("🌐 %s %s -> %d (%v) %s", c.Request.Method, c.Request.URL.Path, status, time.Since(start), c.ClientIP())
			return
		}
		logger.Debug("🌐 %s %s -> %d (%v) %s", c.Request.Method, c.Request.URL.Path, status, time.Since(start), c.ClientIP())
	}
}
