package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/rafabene/carelink-accounts/internal/infrastructure/metrics"
)

// Metrics registra contagem e duração das requisições por rota
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		method := c.Request.Method

		metrics.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(c.Writer.Status())).Inc()
		metrics.HTTPRequestDurationSeconds.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
	}
}
