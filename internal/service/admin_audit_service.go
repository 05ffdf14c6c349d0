package service

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/shopcore-next/internal/logger"
	"github.com/shopcore-next/internal/models"
	"github.com/shopcore-next/internal/repository"
)

// AuditEntry 一次后台写操作
type AuditEntry struct {
	AdminID       uint
	AdminUsername string
	Action        string
	ResourceType  string
	ResourceID    string
	RequestID     string
	Detail        models.JSON
}

// AuditResourceID 把数字主键转为审计资源 ID
func AuditResourceID(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

// AdminAuditService 后台审计服务
type AdminAuditService struct {
	repo repository.AdminAuditLogRepository
}

// NewAdminAuditService 创建后台审计服务
func NewAdminAuditService(repo repository.AdminAuditLogRepository) *AdminAuditService {
	return &AdminAuditService{repo: repo}
}

// Record 写入审计记录。写入失败只记日志，业务操作已提交不回滚
func (s *AdminAuditService) Record(ctx context.Context, entry AuditEntry) {
	if s == nil || s.repo == nil || entry.AdminID == 0 {
		return
	}
	action := strings.TrimSpace(entry.Action)
	if action == "" {
		return
	}
	row := &models.AdminAuditLog{
		AdminID:       entry.AdminID,
		AdminUsername: strings.TrimSpace(entry.AdminUsername),
		Action:        action,
		ResourceType:  entry.ResourceType,
		ResourceID:    strings.TrimSpace(entry.ResourceID),
		RequestID:     entry.RequestID,
		Detail:        entry.Detail,
		CreatedAt:     time.Now(),
	}
	if err := s.repo.Create(ctx, row); err != nil {
		logger.Ctx(ctx).Warnw("admin_audit_record_failed",
			"action", action,
			"resource_type", entry.ResourceType,
			"resource_id", entry.ResourceID,
			"error", err,
		)
	}
}

// List 查询审计记录
func (s *AdminAuditService) List(ctx context.Context, filter repository.AdminAuditLogFilter) ([]models.AdminAuditLog, int64, error) {
	if s == nil || s.repo == nil {
		return []models.AdminAuditLog{}, 0, nil
	}
	return s.repo.List(ctx, filter)
}
