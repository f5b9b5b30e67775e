package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/yungbote/edubot-backend/internal/domain"
	httpH "github.com/yungbote/edubot-backend/internal/http/handlers"
	httpMW "github.com/yungbote/edubot-backend/internal/http/middleware"
	"github.com/yungbote/edubot-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log            *logger.Logger
	ServiceName    string
	AllowedOrigins []string
	// MetricsMiddleware and MetricsHandler are nil when metrics are disabled.
	MetricsMiddleware gin.HandlerFunc
	MetricsHandler    http.Handler

	AuthHandler    *httpH.AuthHandler
	AuthMiddleware *httpMW.AuthMiddleware
	UserHandler    *httpH.UserHandler
	LessonHandler  *httpH.LessonHandler
	ChatHandler    *httpH.ChatHandler
	HealthHandler  *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.ServiceName != "" {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	if cfg.MetricsMiddleware != nil {
		r.Use(cfg.MetricsMiddleware)
	}
	r.Use(httpMW.CORS(cfg.AllowedOrigins))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}
	if cfg.MetricsHandler != nil {
		r.GET("/metrics", gin.WrapH(cfg.MetricsHandler))
	}

	api := r.Group("/api")
	{
		// Auth (public)
		if cfg.AuthHandler != nil {
			api.POST("/register", cfg.AuthHandler.Register)
			api.POST("/login", cfg.AuthHandler.Login)
		}
	}

	protected := api.Group("/")
	if cfg.AuthMiddleware != nil {
		protected.Use(cfg.AuthMiddleware.RequireAuth())
	}

	// User (Me)
	if cfg.UserHandler != nil {
		protected.GET("/me", cfg.UserHandler.GetMe)

		admin := protected.Group("/admin")
		if cfg.AuthMiddleware != nil {
			admin.Use(cfg.AuthMiddleware.RequireRole(domain.RoleAdmin))
		}
		admin.GET("/users", cfg.UserHandler.ListUsers)
		admin.PATCH("/users/:id/role", cfg.UserHandler.UpdateRole)
	}

	// Reading
	if cfg.LessonHandler != nil {
		reading := protected.Group("/reading")
		reading.POST("/upload", cfg.LessonHandler.Upload)
		reading.POST("/analyze-text", cfg.LessonHandler.AnalyzeText)
		reading.POST("/create-lesson", cfg.LessonHandler.CreateLesson)
		reading.POST("/ask", cfg.LessonHandler.AskTutor)
		reading.POST("/evaluate", cfg.LessonHandler.Evaluate)
		reading.POST("/feedback-analysis", cfg.LessonHandler.Feedback)
		reading.GET("/history", cfg.LessonHandler.ListHistory)
		reading.GET("/history/:id", cfg.LessonHandler.GetHistory)
		reading.GET("/history/:id/recipients", cfg.AuthMiddleware.RequireRole(domain.RoleTeacher, domain.RoleAdmin), cfg.LessonHandler.ListRecipients)
		reading.DELETE("/history/:id", cfg.LessonHandler.DeleteHistory)
		reading.GET("/assigned", cfg.LessonHandler.ListAssigned)
	}

	// Chat
	if cfg.ChatHandler != nil {
		chat := protected.Group("/chat")
		chat.POST("/send", cfg.ChatHandler.Send)
		chat.GET("/history", cfg.ChatHandler.ListSessions)
		chat.GET("/history/:id", cfg.ChatHandler.GetSession)
		chat.DELETE("/history/:id", cfg.ChatHandler.DeleteSession)
	}

	return r
}
