package service

import (
	"context"
	"net/mail"
	"strings"
	"time"

	"github.com/shopcore-next/internal/config"
	"github.com/shopcore-next/internal/constants"
	"github.com/shopcore-next/internal/logger"
	"github.com/shopcore-next/internal/models"
	"github.com/shopcore-next/internal/repository"

	"golang.org/x/crypto/bcrypt"
)

const displayNameMaxChars = 100

// UserAuthService 用户认证服务，登录态由服务端会话承载
type UserAuthService struct {
	cfg      *config.Config
	userRepo repository.UserRepository
	sessions *SessionService
	carts    *CartService
}

// NewUserAuthService 创建用户认证服务
func NewUserAuthService(cfg *config.Config, userRepo repository.UserRepository, sessions *SessionService, carts *CartService) *UserAuthService {
	return &UserAuthService{
		cfg:      cfg,
		userRepo: userRepo,
		sessions: sessions,
		carts:    carts,
	}
}

// RegisterInput 注册输入
type RegisterInput struct {
	Email        string
	Password     string
	DisplayName  string
	GuestCartKey string
	Client       ClientMeta
}

// LoginInput 登录输入
type LoginInput struct {
	Email        string
	Password     string
	GuestCartKey string
	Client       ClientMeta
}

// Register 注册并直接登录
func (s *UserAuthService) Register(ctx context.Context, input RegisterInput) (*models.User, *IssuedSession, error) {
	email, err := normalizeEmail(input.Email)
	if err != nil {
		return nil, nil, err
	}
	if err := validatePassword(s.cfg.Security.PasswordPolicy, input.Password); err != nil {
		return nil, nil, err
	}
	existing, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, nil, err
	}
	if existing != nil {
		return nil, nil, ErrEmailExists
	}

	hash, err := hashPassword(input.Password)
	if err != nil {
		return nil, nil, err
	}
	displayName := truncateRunes(strings.TrimSpace(input.DisplayName), displayNameMaxChars)
	if displayName == "" {
		displayName = resolveNicknameFromEmail(email)
	}
	user := &models.User{
		Email:        email,
		PasswordHash: hash,
		DisplayName:  displayName,
		Status:       constants.UserStatusActive,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, nil, ErrEmailExists
		}
		return nil, nil, err
	}
	logger.Ctx(ctx).Infow("user_registered", "user_id", user.ID)

	session, err := s.startSession(ctx, user, input.GuestCartKey, input.Client)
	if err != nil {
		return nil, nil, err
	}
	return user, session, nil
}

// Login 校验账号密码并签发会话，游客购物车合并到用户购物车
func (s *UserAuthService) Login(ctx context.Context, input LoginInput) (*models.User, *IssuedSession, error) {
	email, err := normalizeEmail(input.Email)
	if err != nil {
		return nil, nil, ErrInvalidCredentials
	}
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, nil, err
	}
	if user == nil {
		return nil, nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return nil, nil, ErrInvalidCredentials
	}
	if strings.ToLower(user.Status) != constants.UserStatusActive {
		return nil, nil, ErrUserDisabled
	}

	now := time.Now()
	user.LastLoginAt = &now
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, nil, err
	}
	session, err := s.startSession(ctx, user, input.GuestCartKey, input.Client)
	if err != nil {
		return nil, nil, err
	}
	return user, session, nil
}

// Logout 注销当前会话，重复调用无副作用
func (s *UserAuthService) Logout(ctx context.Context, token string) error {
	return s.sessions.Invalidate(ctx, token)
}

// ChangePassword 修改密码，吊销全部旧会话后签发新会话
func (s *UserAuthService) ChangePassword(ctx context.Context, userID uint, oldPassword, newPassword string, client ClientMeta) (*IssuedSession, error) {
	user, err := s.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(oldPassword)); err != nil {
		return nil, ErrInvalidOldPassword
	}
	if err := validatePassword(s.cfg.Security.PasswordPolicy, newPassword); err != nil {
		return nil, err
	}
	hash, err := hashPassword(newPassword)
	if err != nil {
		return nil, err
	}
	user.PasswordHash = hash
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	if err := s.sessions.InvalidateAllForUser(ctx, user.ID); err != nil {
		return nil, err
	}
	logger.Ctx(ctx).Infow("user_password_changed", "user_id", user.ID)
	return s.sessions.Create(ctx, user.ID, client)
}

// UpdateProfile 更新昵称
func (s *UserAuthService) UpdateProfile(ctx context.Context, userID uint, displayName string) (*models.User, error) {
	user, err := s.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	displayName = truncateRunes(strings.TrimSpace(displayName), displayNameMaxChars)
	if displayName == "" {
		return user, nil
	}
	user.DisplayName = displayName
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// GetUserByID 获取用户
func (s *UserAuthService) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

func (s *UserAuthService) startSession(ctx context.Context, user *models.User, guestCartKey string, client ClientMeta) (*IssuedSession, error) {
	session, err := s.sessions.Create(ctx, user.ID, client)
	if err != nil {
		return nil, err
	}
	if s.carts == nil || strings.TrimSpace(guestCartKey) == "" {
		return session, nil
	}
	guestOwner, ok := GuestCartOwner(guestCartKey)
	if !ok {
		return session, nil
	}
	// 合并失败不影响登录
	if err := s.carts.Merge(ctx, guestOwner, UserCartOwner(user.ID)); err != nil {
		logger.Ctx(ctx).Warnw("cart_merge_failed", "user_id", user.ID, "error", err)
	}
	return session, nil
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func normalizeEmail(email string) (string, error) {
	normalized := strings.ToLower(strings.TrimSpace(email))
	if normalized == "" {
		return "", ErrInvalidEmail
	}
	if _, err := mail.ParseAddress(normalized); err != nil {
		return "", ErrInvalidEmail
	}
	return normalized, nil
}

// NormalizeEmail 统一邮箱格式
func NormalizeEmail(email string) (string, error) {
	return normalizeEmail(email)
}

func resolveNicknameFromEmail(email string) string {
	parts := strings.SplitN(email, "@", 2)
	if len(parts) == 2 && strings.TrimSpace(parts[0]) != "" {
		return strings.TrimSpace(parts[0])
	}
	return email
}
