package repository

import (
	"time"

	"gorm.io/gorm"
)

// repositoryMaxPageSize 单页条数上限
const repositoryMaxPageSize = 200

// applyPagination pageSize <= 0 时不分页，页码小于 1 按第一页处理
func applyPagination(query *gorm.DB, page, pageSize int) *gorm.DB {
	if pageSize <= 0 {
		return query
	}
	pageSize = min(pageSize, repositoryMaxPageSize)
	page = max(page, 1)
	return query.Limit(pageSize).Offset((page - 1) * pageSize)
}

// ProductListFilter 查询商品列表的过滤条件
type ProductListFilter struct {
	Page       int
	PageSize   int
	Search     string
	OnlyActive bool
}

// OrderListFilter 查询订单列表的过滤条件
type OrderListFilter struct {
	Page          int
	PageSize      int
	UserID        uint
	Status        string
	PaymentStatus string
	OrderNo       string
	GuestEmail    string
	CreatedFrom   *time.Time
	CreatedTo     *time.Time
}

// UserListFilter 查询用户列表的过滤条件
type UserListFilter struct {
	Page        int
	PageSize    int
	Keyword     string
	Status      string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

// AdminAuditLogFilter 后台审计记录查询条件
type AdminAuditLogFilter struct {
	Page         int
	PageSize     int
	AdminID      uint
	Action       string
	ResourceType string
	ResourceID   string
	CreatedFrom  *time.Time
	CreatedTo    *time.Time
}
