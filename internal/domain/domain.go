package domain

import (
	"github.com/yungbote/edubot-backend/internal/domain/chat"
	"github.com/yungbote/edubot-backend/internal/domain/lesson"
	"github.com/yungbote/edubot-backend/internal/domain/user"
)

type User = user.User
type Role = user.Role

const (
	RoleStudent = user.RoleStudent
	RoleTeacher = user.RoleTeacher
	RoleAdmin   = user.RoleAdmin
)

type Conversation = chat.Conversation
type ConversationSummary = chat.ConversationSummary
type Message = chat.Message
type MessageRole = chat.Role

const (
	MessageRoleUser  = chat.RoleUser
	MessageRoleModel = chat.RoleModel
)

type LessonRecord = lesson.LessonRecord
type LessonSummary = lesson.LessonSummary
type LessonStatus = lesson.Status
type LessonSource = lesson.Source
type QuizQuestion = lesson.QuizQuestion
type Quiz = lesson.Quiz
type Difficulty = lesson.Difficulty

const (
	LessonStatusPending   = lesson.StatusPending
	LessonStatusCompleted = lesson.StatusCompleted

	LessonSourceTopic = lesson.SourceTopic
	LessonSourceText  = lesson.SourceText
	LessonSourceFile  = lesson.SourceFile

	DifficultyEasy   = lesson.DifficultyEasy
	DifficultyMedium = lesson.DifficultyMedium
	DifficultyHard   = lesson.DifficultyHard

	OptionCount = lesson.OptionCount
)

var (
	ParseRole       = user.ParseRole
	ParseDifficulty = lesson.ParseDifficulty
)

// Models lists every table the service migrates.
func Models() []any {
	return []any{
		&User{},
		&Conversation{},
		&LessonRecord{},
	}
}
