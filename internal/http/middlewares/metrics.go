package middlewares

import (
	gohttp "net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/hxuan190/clmm-core/internal/metrics"
)

// Resource names the API resource a route template belongs to: the first segment
// after the version prefix ("pools", "quote"), or the bare path for top-level routes.
// Unmatched requests collapse into "unmatched".
func Resource(route string) string {
	if route == "" {
		return "unmatched"
	}
	segments := strings.Split(strings.Trim(route, "/"), "/")
	if len(segments) >= 3 && segments[0] == "api" {
		return segments[2]
	}
	return segments[0]
}

// Outcome buckets a status code for the request counter.
func Outcome(status int) string {
	switch {
	case status == gohttp.StatusTooManyRequests:
		return "rate_limited"
	case status >= 500:
		return "server_error"
	case status >= 400:
		return "client_error"
	default:
		return "ok"
	}
}

// MetricsMiddleware records request counts and latency per resource. Scrapes of
// /metrics are not counted.
func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		route := c.FullPath()
		if route == "/metrics" {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()

		resource := Resource(route)
		metrics.HTTPRequests.WithLabelValues(c.Request.Method, resource, Outcome(c.Writer.Status())).Inc()
		metrics.HTTPDuration.WithLabelValues(resource).Observe(time.Since(start).Seconds())
	}
}
