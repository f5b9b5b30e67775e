package app

import (
	"github.com/gin-gonic/gin"

	httpMW "github.com/yungbote/edubot-backend/internal/http/middleware"
	"github.com/yungbote/edubot-backend/internal/observability"
	"github.com/yungbote/edubot-backend/internal/platform/logger"
)

type Middleware struct {
	Auth    *httpMW.AuthMiddleware
	Metrics gin.HandlerFunc
}

func wireMiddleware(log *logger.Logger, services Services, metrics *observability.Metrics) Middleware {
	log.Info("Wiring middleware...")
	mw := Middleware{Auth: httpMW.NewAuthMiddleware(log, services.Auth)}
	if metrics != nil {
		mw.Metrics = httpMW.Metrics(metrics)
	}
	return mw
}
