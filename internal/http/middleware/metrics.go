package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/edubot-backend/internal/observability"
)

// unmatchedRoute labels requests that hit no registered route, so scanners
// probing random paths share one series.
const unmatchedRoute = "unmatched"

// Metrics records per-route request counts, latency and in-flight requests.
// Prometheus scrapes of /metrics are not counted.
func Metrics(m *observability.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		if m == nil || c.FullPath() == "/metrics" {
			c.Next()
			return
		}
		m.ApiInflightInc()
		begun := time.Now()
		defer func() {
			m.ApiInflightDec()
			m.ObserveAPI(c.Request.Method, routeLabel(c), strconv.Itoa(c.Writer.Status()), time.Since(begun))
		}()
		c.Next()
	}
}

func routeLabel(c *gin.Context) string {
	if route := c.FullPath(); route != "" {
		return route
	}
	return unmatchedRoute
}
