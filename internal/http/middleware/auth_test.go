package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/edubot-backend/internal/data/repos"
	"github.com/yungbote/edubot-backend/internal/data/repos/testutil"
	"github.com/yungbote/edubot-backend/internal/domain"
	"github.com/yungbote/edubot-backend/internal/platform/ctxutil"
	"github.com/yungbote/edubot-backend/internal/services"
)

func TestRequireAuthAndRole(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := testutil.DB(t)
	log := testutil.Logger(t)
	auth := services.NewAuthService(db, log, repos.NewUserRepo(db, log), "secret", time.Hour)
	am := NewAuthMiddleware(log, auth)

	r := gin.New()
	r.GET("/me", am.RequireAuth(), func(c *gin.Context) {
		c.String(http.StatusOK, ctxutil.GetRequestData(c.Request.Context()).Email)
	})
	r.GET("/admin", am.RequireAuth(), am.RequireRole(domain.RoleAdmin), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	student := testutil.SeedUser(t, t.Context(), db, "s@school.edu", domain.RoleStudent)
	tok, err := auth.TokenForClaims(services.Claims{Subject: student.ID, Email: student.Email, Role: student.Role})
	if err != nil {
		t.Fatalf("TokenForClaims: %v", err)
	}

	cases := []struct {
		name   string
		path   string
		header string
		want   int
	}{
		{"no token", "/me", "", http.StatusUnauthorized},
		{"garbage token", "/me", "Bearer nope", http.StatusUnauthorized},
		{"valid token", "/me", "Bearer " + tok, http.StatusOK},
		{"student on admin route", "/admin", "Bearer " + tok, http.StatusForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tc.path, nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)
			if rec.Code != tc.want {
				t.Fatalf("status: want=%d got=%d body=%s", tc.want, rec.Code, rec.Body.String())
			}
		})
	}
}
