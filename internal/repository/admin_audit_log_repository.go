package repository

import (
	"context"

	"github.com/shopcore-next/internal/models"

	"gorm.io/gorm"
)

// AdminAuditLogRepository 后台审计记录数据访问接口
type AdminAuditLogRepository interface {
	Create(ctx context.Context, entry *models.AdminAuditLog) error
	List(ctx context.Context, filter AdminAuditLogFilter) ([]models.AdminAuditLog, int64, error)
}

// GormAdminAuditLogRepository GORM 实现
type GormAdminAuditLogRepository struct {
	db *gorm.DB
}

// NewAdminAuditLogRepository 创建审计记录仓库
func NewAdminAuditLogRepository(db *gorm.DB) *GormAdminAuditLogRepository {
	return &GormAdminAuditLogRepository{db: db}
}

// Create 写入审计记录
func (r *GormAdminAuditLogRepository) Create(ctx context.Context, entry *models.AdminAuditLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

// List 按操作人、资源与时间范围检索，最新在前
func (r *GormAdminAuditLogRepository) List(ctx context.Context, filter AdminAuditLogFilter) ([]models.AdminAuditLog, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.AdminAuditLog{})
	conds := []struct {
		column string
		value  interface{}
		set    bool
	}{
		{"admin_id", filter.AdminID, filter.AdminID != 0},
		{"action", filter.Action, filter.Action != ""},
		{"resource_type", filter.ResourceType, filter.ResourceType != ""},
		{"resource_id", filter.ResourceID, filter.ResourceID != ""},
	}
	for _, cond := range conds {
		if cond.set {
			query = query.Where(cond.column+" = ?", cond.value)
		}
	}
	if filter.CreatedFrom != nil {
		query = query.Where("created_at >= ?", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		query = query.Where("created_at <= ?", *filter.CreatedTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	entries := make([]models.AdminAuditLog, 0)
	if err := applyPagination(query, filter.Page, filter.PageSize).Order("id desc").Find(&entries).Error; err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}
