package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/edubot-backend/internal/platform/ctxutil"
)

func TestAttachTraceContext(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(AttachTraceContext())
	var seen *ctxutil.TraceData
	r.GET("/x", func(c *gin.Context) {
		seen = ctxutil.GetTraceData(c.Request.Context())
		c.Status(http.StatusNoContent)
	})

	cases := map[string]struct {
		header string
		keep   bool
	}{
		"client id kept":  {"req-123_abc", true},
		"unsafe replaced": {"bad id\r\nx: y", false},
		"too long":        {strings.Repeat("a", maxRequestIDLen+1), false},
		"missing":         {"", false},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/x", nil)
			if tc.header != "" {
				req.Header.Set(headerRequestID, tc.header)
			}
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)

			got := rec.Header().Get(headerRequestID)
			if tc.keep && got != tc.header {
				t.Fatalf("request id: want=%q got=%q", tc.header, got)
			}
			if !tc.keep && (got == "" || got == tc.header) {
				t.Fatalf("request id not replaced: got=%q", got)
			}
			if seen == nil || seen.RequestID != got || seen.TraceID == "" {
				t.Fatalf("trace data: got=%+v", seen)
			}
		})
	}
}
