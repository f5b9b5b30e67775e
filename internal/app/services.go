package app

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/yungbote/edubot-backend/internal/ai/gateway"
	"github.com/yungbote/edubot-backend/internal/ai/quiz"
	"github.com/yungbote/edubot-backend/internal/data/cache"
	"github.com/yungbote/edubot-backend/internal/observability"
	"github.com/yungbote/edubot-backend/internal/platform/logger"
	"github.com/yungbote/edubot-backend/internal/services"
)

type Services struct {
	Gateway       *gateway.Gateway
	Auth          services.AuthService
	User          services.UserService
	Conversations services.ConversationService
	Chat          services.ChatService
	Distribution  services.DistributionService
	Scoring       services.ScoringService
	Lessons       services.LessonService
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, repos Repos, clients Clients, metrics *observability.Metrics) (Services, error) {
	log.Info("Wiring services...")

	prompts, err := gateway.LoadPrompts()
	if err != nil {
		return Services{}, fmt.Errorf("load prompts: %w", err)
	}
	gw := gateway.New(log, clients.Provider, prompts, metrics, gateway.Config{
		Language: cfg.AILanguage,
		Timeout:  cfg.AITimeout,
	})

	var convCache cache.ConversationCache
	if clients.Redis != nil {
		convCache = cache.NewRedisConversationCache(log, clients.Redis, cfg.ConversationCacheTTL)
	}

	auth := services.NewAuthService(db, log, repos.User, cfg.JWTSecretKey, cfg.AccessTokenTTL)
	conversations := services.NewConversationService(db, log, repos.Conversation, convCache)
	distribution := services.NewDistributionService(log, repos.User, repos.LessonRecord, metrics)
	quizzes := quiz.NewBuilder(log, gw, metrics)

	return Services{
		Gateway:       gw,
		Auth:          auth,
		User:          services.NewUserService(db, log, repos.User),
		Conversations: conversations,
		Chat:          services.NewChatService(log, conversations, gw),
		Distribution:  distribution,
		Scoring:       services.NewScoringService(log, gw, repos.LessonRecord, metrics, cfg.FallbackFeedback),
		Lessons:       services.NewLessonService(log, gw, quizzes, distribution, repos.LessonRecord),
	}, nil
}
