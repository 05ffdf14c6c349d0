package service

import (
	"context"
	"strings"

	"github.com/shopcore-next/internal/constants"
	"github.com/shopcore-next/internal/logger"
	"github.com/shopcore-next/internal/models"
	"github.com/shopcore-next/internal/repository"
)

// UserAdminService 管理端用户查询与状态管理
type UserAdminService struct {
	userRepo repository.UserRepository
	sessions *SessionService
}

// NewUserAdminService 创建管理端用户服务
func NewUserAdminService(userRepo repository.UserRepository, sessions *SessionService) *UserAdminService {
	return &UserAdminService{userRepo: userRepo, sessions: sessions}
}

// List 用户列表
func (s *UserAdminService) List(ctx context.Context, filter repository.UserListFilter) ([]models.User, int64, error) {
	return s.userRepo.List(ctx, filter)
}

// Get 用户详情
func (s *UserAdminService) Get(ctx context.Context, id uint) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// SetStatus 启用/禁用用户，禁用时吊销全部会话
func (s *UserAdminService) SetStatus(ctx context.Context, id uint, status string) (*models.User, error) {
	status = strings.ToLower(strings.TrimSpace(status))
	if status != constants.UserStatusActive && status != constants.UserStatusDisabled {
		return nil, ErrUserStatusInvalid
	}
	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if user.Status == status {
		return user, nil
	}
	user.Status = status
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	if status == constants.UserStatusDisabled && s.sessions != nil {
		if err := s.sessions.InvalidateAllForUser(ctx, user.ID); err != nil {
			return nil, err
		}
	}
	logger.Ctx(ctx).Infow("user_status_changed", "user_id", user.ID, "status", status)
	return user, nil
}
