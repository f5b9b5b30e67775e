package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/edubot-backend/internal/observability"
)

func TestMetricsLabelsByRouteTemplate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := observability.NewMetrics()
	r := gin.New()
	r.Use(Metrics(m))
	r.GET("/api/reading/history/:id", func(c *gin.Context) { c.Status(http.StatusNotFound) })
	r.GET("/metrics", gin.WrapH(m.Handler()))

	for _, path := range []string{"/api/reading/history/1", "/api/reading/history/2", "/wp-admin", "/metrics"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := rec.Body.String()
	for _, want := range []string{
		`edubot_api_requests_total{method="GET",route="/api/reading/history/:id",status="404"} 2`,
		`edubot_api_requests_total{method="GET",route="unmatched",status="404"} 1`,
		`edubot_api_inflight_requests 0`,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("metrics missing %q:\n%s", want, body)
		}
	}
	if strings.Contains(body, `route="/metrics"`) {
		t.Fatalf("scrapes should not be counted:\n%s", body)
	}
}

func TestMetricsNilIsPassThrough(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Metrics(nil))
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "pong" {
		t.Fatalf("want=200 pong got=%d %q", rec.Code, rec.Body.String())
	}
}
