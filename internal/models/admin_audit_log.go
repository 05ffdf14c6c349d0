package models

import "time"

// 审计资源类型
const (
	AuditResourceOrder   = "order"
	AuditResourcePayment = "payment"
	AuditResourceProduct = "product"
	AuditResourceSetting = "setting"
	AuditResourceUser    = "user"
	AuditResourceAdmin   = "admin"
	AuditResourceRole    = "role"
)

// AdminAuditLog 后台写操作审计记录
type AdminAuditLog struct {
	ID            uint      `gorm:"primarykey" json:"id"`
	AdminID       uint      `gorm:"index;not null" json:"admin_id"`                              // 操作管理员
	AdminUsername string    `gorm:"type:varchar(100);not null;default:''" json:"admin_username"` // 操作时的用户名快照
	Action        string    `gorm:"type:varchar(100);index;not null" json:"action"`              // order_patch / policy_grant ...
	ResourceType  string    `gorm:"type:varchar(32);index:idx_admin_audit_resource;not null" json:"resource_type"`
	ResourceID    string    `gorm:"type:varchar(64);index:idx_admin_audit_resource;not null;default:''" json:"resource_id"`
	RequestID     string    `gorm:"type:varchar(64);not null;default:''" json:"request_id"`
	Detail        JSON      `gorm:"type:json" json:"detail"`
	CreatedAt     time.Time `gorm:"index" json:"created_at"`
}

// TableName 指定表名
func (AdminAuditLog) TableName() string {
	return "admin_audit_logs"
}
