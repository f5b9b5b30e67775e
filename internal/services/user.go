package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/edubot-backend/internal/data/repos"
	"github.com/yungbote/edubot-backend/internal/domain"
	"github.com/yungbote/edubot-backend/internal/platform/apierr"
	"github.com/yungbote/edubot-backend/internal/platform/ctxutil"
	"github.com/yungbote/edubot-backend/internal/platform/dbctx"
	"github.com/yungbote/edubot-backend/internal/platform/logger"
)

type UserService interface {
	GetMe(ctx context.Context) (*domain.User, error)
	ListUsers(ctx context.Context, limit, offset int) ([]*domain.User, error)
	UpdateRole(ctx context.Context, userID uuid.UUID, role string) (*domain.User, error)
}

type userService struct {
	db       *gorm.DB
	log      *logger.Logger
	userRepo repos.UserRepo
}

func NewUserService(db *gorm.DB, log *logger.Logger, userRepo repos.UserRepo) UserService {
	return &userService{db: db, log: log.With("service", "UserService"), userRepo: userRepo}
}

func (us *userService) GetMe(ctx context.Context) (*domain.User, error) {
	rd := ctxutil.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, apierr.Unauthorized("unauthorized", "not signed in")
	}
	users, err := us.userRepo.GetByIDs(dbctx.Of(ctx), []uuid.UUID{rd.UserID})
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if len(users) == 0 {
		return nil, notFound("user_not_found", "user")
	}
	return users[0], nil
}

func (us *userService) ListUsers(ctx context.Context, limit, offset int) ([]*domain.User, error) {
	return us.userRepo.List(dbctx.Of(ctx), limit, offset)
}

func (us *userService) UpdateRole(ctx context.Context, userID uuid.UUID, raw string) (*domain.User, error) {
	role, ok := domain.ParseRole(raw)
	if !ok {
		return nil, apierr.BadRequest("invalid_role", "role must be one of student, teacher, admin")
	}
	var updated *domain.User
	err := us.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		if err := us.userRepo.UpdateRole(dbc, userID, role); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFound("user_not_found", "user")
			}
			return fmt.Errorf("update role: %w", err)
		}
		users, err := us.userRepo.GetByIDs(dbc, []uuid.UUID{userID})
		if err != nil {
			return fmt.Errorf("reload user: %w", err)
		}
		if len(users) == 0 {
			return notFound("user_not_found", "user")
		}
		updated = users[0]
		return nil
	})
	if err != nil {
		return nil, err
	}
	us.log.Info("User role updated", "user_id", userID, "role", role)
	return updated, nil
}
