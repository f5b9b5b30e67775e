package lesson

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
)

// Source records which entry point produced the lesson.
type Source string

const (
	SourceTopic Source = "topic"
	SourceText  Source = "text"
	SourceFile  Source = "file"
)

// LessonRecord is one recipient's independent copy of a generated lesson.
// AssignedBy is nil on the creator's own copy.
type LessonRecord struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID       uuid.UUID  `gorm:"type:uuid;not null;index:idx_lesson_record_user_ts,priority:1" json:"user_id"`
	AssignedBy   *uuid.UUID `gorm:"type:uuid;column:assigned_by;index" json:"assigned_by"`
	GenerationID uuid.UUID  `gorm:"type:uuid;column:generation_id;not null;index" json:"generation_id"`

	Topic    string `gorm:"column:topic;not null;default:''" json:"topic"`
	Source   Source `gorm:"column:source;not null;default:'text'" json:"source"`
	Content  string `gorm:"column:content;type:text;not null;default:''" json:"content,omitempty"`
	Quiz     Quiz   `gorm:"column:quiz" json:"quiz,omitempty"`
	Score    *int   `gorm:"column:score" json:"score"`
	Total    *int   `gorm:"column:total" json:"total,omitempty"`
	Status   Status `gorm:"column:status;not null;default:'pending';index" json:"status"`
	Feedback string `gorm:"column:feedback;type:text;not null;default:''" json:"feedback,omitempty"`

	Timestamp time.Time `gorm:"column:timestamp;not null;index:idx_lesson_record_user_ts,priority:2" json:"timestamp"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

func (LessonRecord) TableName() string { return "lesson_record" }

func (r *LessonRecord) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	if r.Status == "" {
		r.Status = StatusPending
	}
	if r.Timestamp.IsZero() {
		r.Timestamp = time.Now().UTC()
	}
	return nil
}

// LessonSummary is the history listing row; content and quiz are omitted.
type LessonSummary struct {
	ID         uuid.UUID  `json:"id"`
	UserID     uuid.UUID  `json:"user_id"`
	AssignedBy *uuid.UUID `json:"assigned_by"`
	Topic      string     `json:"topic"`
	Source     Source     `json:"source"`
	Score      *int       `json:"score"`
	Status     Status     `json:"status"`
	Timestamp  time.Time  `json:"timestamp"`
}

func (r *LessonRecord) Summary() *LessonSummary {
	return &LessonSummary{
		ID:         r.ID,
		UserID:     r.UserID,
		AssignedBy: r.AssignedBy,
		Topic:      r.Topic,
		Source:     r.Source,
		Score:      r.Score,
		Status:     r.Status,
		Timestamp:  r.Timestamp,
	}
}
