package user

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/edubot-backend/internal/domain"
	"github.com/yungbote/edubot-backend/internal/platform/dbctx"
	"github.com/yungbote/edubot-backend/internal/platform/logger"
)

type UserRepo interface {
	Create(dbc dbctx.Context, users []*types.User) ([]*types.User, error)
	GetByIDs(dbc dbctx.Context, userIDs []uuid.UUID) ([]*types.User, error)
	GetByEmail(dbc dbctx.Context, email string) (*types.User, error)
	EmailExists(dbc dbctx.Context, email string) (bool, error)
	List(dbc dbctx.Context, limit, offset int) ([]*types.User, error)
	UpdateRole(dbc dbctx.Context, userID uuid.UUID, role types.Role) error
}

type userRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUserRepo(db *gorm.DB, baseLog *logger.Logger) UserRepo {
	return &userRepo{db: db, log: baseLog.With("repo", "UserRepo")}
}

// NormalizeEmail is the canonical form emails are stored and looked up in.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (r *userRepo) Create(dbc dbctx.Context, users []*types.User) ([]*types.User, error) {
	if len(users) == 0 {
		return []*types.User{}, nil
	}
	for _, u := range users {
		u.Email = NormalizeEmail(u.Email)
	}
	if err := dbc.DB(r.db).Create(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (r *userRepo) GetByIDs(dbc dbctx.Context, userIDs []uuid.UUID) ([]*types.User, error) {
	var out []*types.User
	if len(userIDs) == 0 {
		return out, nil
	}
	if err := dbc.DB(r.db).
		Where("id IN ?", userIDs).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// GetByEmail returns (nil, nil) when no user has that email.
func (r *userRepo) GetByEmail(dbc dbctx.Context, email string) (*types.User, error) {
	email = NormalizeEmail(email)
	if email == "" {
		return nil, fmt.Errorf("missing email")
	}
	var out []*types.User
	if err := dbc.DB(r.db).
		Where("email = ?", email).
		Limit(1).
		Find(&out).Error; err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0], nil
}

func (r *userRepo) EmailExists(dbc dbctx.Context, email string) (bool, error) {
	var count int64
	if err := dbc.DB(r.db).
		Model(&types.User{}).
		Where("email = ?", NormalizeEmail(email)).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *userRepo) List(dbc dbctx.Context, limit, offset int) ([]*types.User, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	var out []*types.User
	if err := dbc.DB(r.db).
		Order("created_at ASC").
		Limit(limit).
		Offset(offset).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *userRepo) UpdateRole(dbc dbctx.Context, userID uuid.UUID, role types.Role) error {
	if userID == uuid.Nil {
		return fmt.Errorf("missing user_id")
	}
	res := dbc.DB(r.db).
		Model(&types.User{}).
		Where("id = ?", userID).
		Update("role", role)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
