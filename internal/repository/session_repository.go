package repository

import (
	"context"
	"errors"
	"time"

	"github.com/shopcore-next/internal/constants"
	"github.com/shopcore-next/internal/models"

	"gorm.io/gorm"
)

// SessionRepository 会话数据访问接口
type SessionRepository interface {
	Create(ctx context.Context, session *models.Session) error
	GetActiveByTokenHash(ctx context.Context, tokenHash string, now time.Time) (*models.Session, error)
	DeleteByTokenHash(ctx context.Context, tokenHash string) (int64, error)
	ListTokenHashesByUser(ctx context.Context, userID uint) ([]string, error)
	DeleteByUser(ctx context.Context, userID uint) error
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}

// GormSessionRepository GORM 实现
type GormSessionRepository struct {
	db *gorm.DB
}

// NewSessionRepository 创建会话仓库
func NewSessionRepository(db *gorm.DB) *GormSessionRepository {
	return &GormSessionRepository{db: db}
}

// Create 写入会话
func (r *GormSessionRepository) Create(ctx context.Context, session *models.Session) error {
	return r.db.WithContext(ctx).Create(session).Error
}

// GetActiveByTokenHash 获取未过期且用户可用的会话
func (r *GormSessionRepository) GetActiveByTokenHash(ctx context.Context, tokenHash string, now time.Time) (*models.Session, error) {
	var session models.Session
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("token_hash = ? AND expires_at > ?", tokenHash, now).
		First(&session).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	// 用户被删除或禁用时会话视为无效
	if session.User == nil || session.User.Status != constants.UserStatusActive {
		return nil, nil
	}
	return &session, nil
}

// DeleteByTokenHash 删除会话，返回受影响行数
func (r *GormSessionRepository) DeleteByTokenHash(ctx context.Context, tokenHash string) (int64, error) {
	result := r.db.WithContext(ctx).Where("token_hash = ?", tokenHash).Delete(&models.Session{})
	return result.RowsAffected, result.Error
}

// ListTokenHashesByUser 列出用户全部会话的令牌哈希
func (r *GormSessionRepository) ListTokenHashesByUser(ctx context.Context, userID uint) ([]string, error) {
	var hashes []string
	if err := r.db.WithContext(ctx).Model(&models.Session{}).
		Where("user_id = ?", userID).
		Pluck("token_hash", &hashes).Error; err != nil {
		return nil, err
	}
	return hashes, nil
}

// DeleteByUser 删除用户全部会话
func (r *GormSessionRepository) DeleteByUser(ctx context.Context, userID uint) error {
	return r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.Session{}).Error
}

// DeleteExpired 清理过期会话
func (r *GormSessionRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Where("expires_at <= ?", before).Delete(&models.Session{})
	return result.RowsAffected, result.Error
}
