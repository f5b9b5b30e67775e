package app

import (
	"github.com/gin-gonic/gin"

	edubothttp "github.com/yungbote/edubot-backend/internal/http"
	"github.com/yungbote/edubot-backend/internal/observability"
	"github.com/yungbote/edubot-backend/internal/platform/logger"
)

func wireRouter(log *logger.Logger, cfg Config, handlers Handlers, middleware Middleware, metrics *observability.Metrics) *gin.Engine {
	rc := edubothttp.RouterConfig{
		Log:               log,
		AllowedOrigins:    cfg.AllowedOrigins,
		MetricsMiddleware: middleware.Metrics,
		AuthHandler:       handlers.Auth,
		AuthMiddleware:    middleware.Auth,
		UserHandler:       handlers.User,
		LessonHandler:     handlers.Lesson,
		ChatHandler:       handlers.Chat,
		HealthHandler:     handlers.Health,
	}
	if cfg.Otel.Enabled {
		rc.ServiceName = cfg.Otel.ServiceName
	}
	if metrics != nil {
		rc.MetricsHandler = metrics.Handler()
	}
	return edubothttp.NewRouter(rc)
}
