package app

import (
	"gorm.io/gorm"

	httpH "github.com/yungbote/edubot-backend/internal/http/handlers"
	"github.com/yungbote/edubot-backend/internal/platform/logger"
)

type Handlers struct {
	Health *httpH.HealthHandler
	Auth   *httpH.AuthHandler
	User   *httpH.UserHandler
	Lesson *httpH.LessonHandler
	Chat   *httpH.ChatHandler
}

func wireHandlers(db *gorm.DB, log *logger.Logger, services Services) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health: httpH.NewHealthHandler(db),
		Auth:   httpH.NewAuthHandler(services.Auth),
		User:   httpH.NewUserHandler(services.User),
		Lesson: httpH.NewLessonHandler(services.Lessons, services.Scoring),
		Chat:   httpH.NewChatHandler(services.Chat, services.Conversations),
	}
}
