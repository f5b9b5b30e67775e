package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/edubot-backend/internal/data/repos"
	"github.com/yungbote/edubot-backend/internal/platform/logger"
)

type Repos struct {
	User         repos.UserRepo
	Conversation repos.ConversationRepo
	LessonRecord repos.LessonRecordRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		User:         repos.NewUserRepo(db, log),
		Conversation: repos.NewConversationRepo(db, log),
		LessonRecord: repos.NewLessonRecordRepo(db, log),
	}
}
