package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/edubot-backend/internal/platform/ctxutil"
	"github.com/yungbote/edubot-backend/internal/platform/logger"
)

// quietPaths are probed constantly by infrastructure; successes log at debug.
var quietPaths = map[string]bool{
	"/healthcheck": true,
	"/metrics":     true,
}

// RequestLogger writes one access line per request, after the handler ran.
func RequestLogger(log *logger.Logger) gin.HandlerFunc {
	if log == nil {
		return func(c *gin.Context) { c.Next() }
	}
	log = log.With("middleware", "RequestLogger")
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		status := c.Writer.Status()
		ctx := c.Request.Context()

		fields := append([]interface{}{
			"method", strings.ToUpper(c.Request.Method),
			"route", route,
			"status", status,
			"bytes", c.Writer.Size(),
			"duration_ms", time.Since(start).Milliseconds(),
		}, ctxutil.LogFields(ctx)...)
		if rd := ctxutil.GetRequestData(ctx); rd != nil && rd.UserID != uuid.Nil {
			fields = append(fields, "user_id", rd.UserID.String(), "role", rd.Role)
		}
		if errs := c.Errors.ByType(gin.ErrorTypeAny); len(errs) > 0 {
			fields = append(fields, "error", errs.String())
		}

		switch {
		case status >= 500:
			log.Error("HTTP request failed", fields...)
		case status >= 400:
			log.Warn("HTTP request rejected", fields...)
		case quietPaths[route]:
			log.Debug("HTTP request", fields...)
		default:
			log.Info("HTTP request", fields...)
		}
	}
}
