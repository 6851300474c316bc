package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"hanami/internal/logger"
	"hanami/internal/metrics"
)

// RequestLogger logs one line per request.
func RequestLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		kv := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"took", time.Since(start).String(),
			"remote", c.ClientIP(),
		}
		switch {
		case status >= 500:
			log.Error("api: request", kv...)
		case status >= 400:
			log.Warn("api: request", kv...)
		default:
			log.Info("api: request", kv...)
		}
	}
}

// RecordMetrics counts requests per route template, not per raw path.
func RecordMetrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.RecordRequest(route, c.Request.Method, c.Writer.Status(), time.Since(start))
	}
}

// RateLimit rejects requests beyond the limiter's budget with 429.
func RateLimit(l *rate.Limiter, log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !l.Allow() {
			log.Warn("api: rate limit exceeded", "path", c.Request.URL.Path, "remote", c.ClientIP())
			respond(c, http.StatusTooManyRequests, CodeRateLimited, http.StatusText(http.StatusTooManyRequests))
			return
		}
		c.Next()
	}
}
