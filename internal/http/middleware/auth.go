package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/edubot-backend/internal/domain"
	"github.com/yungbote/edubot-backend/internal/http/response"
	"github.com/yungbote/edubot-backend/internal/platform/ctxutil"
	"github.com/yungbote/edubot-backend/internal/platform/logger"
	"github.com/yungbote/edubot-backend/internal/services"
)

type AuthMiddleware struct {
	log         *logger.Logger
	authService services.AuthService
}

func NewAuthMiddleware(log *logger.Logger, authService services.AuthService) *AuthMiddleware {
	return &AuthMiddleware{log: log.With("middleware", "AuthMiddleware"), authService: authService}
}

func (am *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := extractBearer(c)
		if tokenString == "" {
			c.Abort()
			response.RespondError(c, http.StatusUnauthorized, "unauthorized", errors.New("missing or invalid token"))
			return
		}
		ctx, err := am.authService.SetContextFromToken(c.Request.Context(), tokenString)
		if err != nil {
			am.log.Debug("Rejected token", "error", err)
			c.Abort()
			response.RespondError(c, http.StatusUnauthorized, "unauthorized", errors.New("could not validate credentials"))
			return
		}
		rd := ctxutil.GetRequestData(ctx)
		if rd == nil || rd.UserID == uuid.Nil {
			c.Abort()
			response.RespondError(c, http.StatusUnauthorized, "unauthorized", errors.New("could not validate credentials"))
			return
		}
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// RequireRole must run after RequireAuth.
func (am *AuthMiddleware) RequireRole(roles ...domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		rd := ctxutil.GetRequestData(c.Request.Context())
		if rd != nil {
			role, _ := domain.ParseRole(rd.Role)
			for _, want := range roles {
				if role == want {
					c.Next()
					return
				}
			}
		}
		c.Abort()
		response.RespondError(c, http.StatusForbidden, "forbidden", errors.New("insufficient permissions"))
	}
}

func extractBearer(c *gin.Context) string {
	authHeader := strings.TrimSpace(c.GetHeader("Authorization"))
	if len(authHeader) > 7 && strings.EqualFold(authHeader[:7], "Bearer ") {
		return strings.TrimSpace(authHeader[7:])
	}
	return ""
}
