package user

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Role string

const (
	RoleStudent Role = "student"
	RoleTeacher Role = "teacher"
	RoleAdmin   Role = "admin"
)

// ParseRole maps free text onto a known role.
func ParseRole(raw string) (Role, bool) {
	switch Role(strings.ToLower(strings.TrimSpace(raw))) {
	case RoleStudent:
		return RoleStudent, true
	case RoleTeacher:
		return RoleTeacher, true
	case RoleAdmin:
		return RoleAdmin, true
	default:
		return "", false
	}
}

// CanAssign reports whether the role may distribute lessons to other users.
func (r Role) CanAssign() bool {
	return r == RoleTeacher || r == RoleAdmin
}

type User struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Email    string    `gorm:"uniqueIndex;not null;column:email" json:"email"`
	Username string    `gorm:"column:username;not null;default:''" json:"username"`
	Password string    `gorm:"not null;column:password" json:"-"`
	Role     Role      `gorm:"column:role;not null;default:'student';index" json:"role"`

	CreatedAt time.Time      `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (User) TableName() string { return "user" }

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if u.Role == "" {
		u.Role = RoleStudent
	}
	return nil
}
