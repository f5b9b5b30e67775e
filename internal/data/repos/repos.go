package repos

import (
	"github.com/yungbote/edubot-backend/internal/data/repos/chat"
	"github.com/yungbote/edubot-backend/internal/data/repos/lesson"
	"github.com/yungbote/edubot-backend/internal/data/repos/user"
)

type UserRepo = user.UserRepo
type ConversationRepo = chat.ConversationRepo
type LessonRecordRepo = lesson.LessonRecordRepo
type ScoreUpdate = lesson.ScoreUpdate

var (
	NewUserRepo         = user.NewUserRepo
	NewConversationRepo = chat.NewConversationRepo
	NewLessonRecordRepo = lesson.NewLessonRecordRepo

	NormalizeEmail = user.NormalizeEmail

	ErrConversationNotOwned = chat.ErrNotOwned
)
