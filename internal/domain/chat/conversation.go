package chat

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// Message is immutable once appended to a Conversation.
type Message struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Conversation is a titled, append-only message thread owned by one user.
// The whole row (messages included) is replaced on every save.
type Conversation struct {
	ID       uuid.UUID                    `gorm:"type:uuid;primaryKey" json:"id"`
	UserID   uuid.UUID                    `gorm:"type:uuid;not null;index" json:"user_id"`
	Title    string                       `gorm:"column:title;not null;default:'New Chat'" json:"title"`
	Messages datatypes.JSONSlice[Message] `gorm:"column:messages" json:"messages"`

	// Version increments on every save; concurrent saves are last-writer-wins.
	Version int64 `gorm:"column:version;not null;default:0" json:"version"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;index" json:"updated_at"`
}

func (Conversation) TableName() string { return "conversation" }

func (c *Conversation) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// ConversationSummary is the listing row for a user's sessions.
type ConversationSummary struct {
	ID           uuid.UUID `json:"id"`
	Title        string    `json:"title"`
	MessageCount int       `json:"message_count"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
