package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/shiftworks/vacation-api/internal/service"
)

// Metrics records duration and status per route template. Unmatched
// routes fall back to the raw URL path.
func Metrics(m *service.MetricsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if m == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		m.ObserveHTTPRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
