package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/yungbote/edubot-backend/internal/platform/ctxutil"
)

const (
	headerTraceID   = "X-Trace-Id"
	headerRequestID = "X-Request-Id"

	maxRequestIDLen = 128
)

// AttachTraceContext echoes X-Request-Id (or mints one) and X-Trace-Id. The
// trace id comes from the active otel span when there is one, so log lines
// and exported spans share it.
func AttachTraceContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		reqID := sanitizeRequestID(c.GetHeader(headerRequestID))
		if reqID == "" {
			reqID = uuid.NewString()
		}

		span := trace.SpanFromContext(c.Request.Context())
		traceID := ""
		if sc := span.SpanContext(); sc.HasTraceID() {
			traceID = sc.TraceID().String()
		} else {
			traceID = strings.ReplaceAll(uuid.NewString(), "-", "")
		}
		span.SetAttributes(attribute.String("http.request_id", reqID))

		c.Request = c.Request.WithContext(ctxutil.WithTraceData(c.Request.Context(), &ctxutil.TraceData{
			TraceID:   traceID,
			RequestID: reqID,
		}))
		c.Writer.Header().Set(headerTraceID, traceID)
		c.Writer.Header().Set(headerRequestID, reqID)
		c.Next()
	}
}

// sanitizeRequestID drops client ids that are too long or carry characters
// unsafe for headers and logs.
func sanitizeRequestID(raw string) string {
	id := strings.TrimSpace(raw)
	if id == "" || len(id) > maxRequestIDLen {
		return ""
	}
	for _, r := range id {
		ok := r == '-' || r == '_' || r == '.' ||
			(r >= '0' && r <= '9') || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
		if !ok {
			return ""
		}
	}
	return id
}
