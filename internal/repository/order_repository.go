package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/shopcore-next/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// OrderRepository 订单数据访问接口
type OrderRepository interface {
	CreateHeader(ctx context.Context, order *models.Order) error
	CreateItems(ctx context.Context, items []models.OrderItem) error
	GetByID(ctx context.Context, id uint) (*models.Order, error)
	GetByOrderNo(ctx context.Context, orderNo string) (*models.Order, error)
	GetByProviderRef(ctx context.Context, providerRef string) (*models.Order, error)
	GetByOrderNoAndUser(ctx context.Context, orderNo string, userID uint) (*models.Order, error)
	GetByOrderNoAndGuest(ctx context.Context, orderNo, email string) (*models.Order, error)
	ListByUser(ctx context.Context, filter OrderListFilter) ([]models.Order, int64, error)
	ListAdmin(ctx context.Context, filter OrderListFilter) ([]models.Order, int64, error)
	CompareAndSetState(ctx context.Context, id uint, column, from, to string, updates map[string]interface{}) (int64, error)
	UpdateFields(ctx context.Context, id uint, updates map[string]interface{}) error
	CreateEvent(ctx context.Context, event *models.OrderEvent) error
	ListEvents(ctx context.Context, orderID uint) ([]models.OrderEvent, error)
	Delete(ctx context.Context, id uint) (int64, error)
	WithTx(tx *gorm.DB) OrderRepository
}

// GormOrderRepository GORM 实现
type GormOrderRepository struct {
	db *gorm.DB
}

// NewOrderRepository 创建订单仓库
func NewOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// WithTx 绑定事务
func (r *GormOrderRepository) WithTx(tx *gorm.DB) OrderRepository {
	if tx == nil {
		return r
	}
	return &GormOrderRepository{db: tx}
}

// CreateHeader 写入订单头，不级联写入关联
func (r *GormOrderRepository) CreateHeader(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(order).Error
}

// CreateItems 批量写入订单项
func (r *GormOrderRepository) CreateItems(ctx context.Context, items []models.OrderItem) error {
	if len(items) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&items).Error
}

func (r *GormOrderRepository) first(query *gorm.DB) (*models.Order, error) {
	var order models.Order
	if err := query.Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("id asc")
	}).First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

// GetByID 根据 ID 获取订单
func (r *GormOrderRepository) GetByID(ctx context.Context, id uint) (*models.Order, error) {
	return r.first(r.db.WithContext(ctx).Where("id = ?", id))
}

// GetByOrderNo 根据订单号获取订单
func (r *GormOrderRepository) GetByOrderNo(ctx context.Context, orderNo string) (*models.Order, error) {
	return r.first(r.db.WithContext(ctx).Where("order_no = ?", orderNo))
}

// GetByProviderRef 根据支付渠道流水号获取订单
func (r *GormOrderRepository) GetByProviderRef(ctx context.Context, providerRef string) (*models.Order, error) {
	providerRef = strings.TrimSpace(providerRef)
	if providerRef == "" {
		return nil, nil
	}
	return r.first(r.db.WithContext(ctx).Where("provider_ref = ?", providerRef))
}

// GetByOrderNoAndUser 获取用户订单详情
func (r *GormOrderRepository) GetByOrderNoAndUser(ctx context.Context, orderNo string, userID uint) (*models.Order, error) {
	return r.first(r.db.WithContext(ctx).Where("order_no = ? AND user_id = ?", orderNo, userID))
}

// GetByOrderNoAndGuest 获取游客订单详情
func (r *GormOrderRepository) GetByOrderNoAndGuest(ctx context.Context, orderNo, email string) (*models.Order, error) {
	return r.first(r.db.WithContext(ctx).Where("order_no = ? AND user_id IS NULL AND guest_email = ?", orderNo, email))
}

// ListByUser 获取用户订单列表
func (r *GormOrderRepository) ListByUser(ctx context.Context, filter OrderListFilter) ([]models.Order, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Order{}).Where("user_id = ?", filter.UserID)
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.OrderNo != "" {
		query = query.Where("order_no LIKE ?", "%"+filter.OrderNo+"%")
	}
	return r.list(query, filter)
}

// ListAdmin 管理端订单列表
func (r *GormOrderRepository) ListAdmin(ctx context.Context, filter OrderListFilter) ([]models.Order, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Order{})
	if filter.UserID != 0 {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.PaymentStatus != "" {
		query = query.Where("payment_status = ?", filter.PaymentStatus)
	}
	if filter.OrderNo != "" {
		query = query.Where("order_no "+likeOperator(r.db)+" ?", "%"+filter.OrderNo+"%")
	}
	if filter.GuestEmail != "" {
		query = query.Where("guest_email = ?", filter.GuestEmail)
	}
	if filter.CreatedFrom != nil {
		query = query.Where("created_at >= ?", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		query = query.Where("created_at <= ?", *filter.CreatedTo)
	}
	return r.list(query, filter)
}

func (r *GormOrderRepository) list(query *gorm.DB, filter OrderListFilter) ([]models.Order, int64, error) {
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var orders []models.Order
	query = applyPagination(query, filter.Page, filter.PageSize)
	if err := query.Preload("Items").Order("id desc").Find(&orders).Error; err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

// CompareAndSetState 仅当状态列仍为 from 时更新为 to，返回受影响行数
func (r *GormOrderRepository) CompareAndSetState(ctx context.Context, id uint, column, from, to string, updates map[string]interface{}) (int64, error) {
	values := make(map[string]interface{}, len(updates)+1)
	for key, value := range updates {
		values[key] = value
	}
	values[column] = to
	result := r.db.WithContext(ctx).Model(&models.Order{}).
		Where("id = ? AND "+column+" = ?", id, from).
		Updates(values)
	return result.RowsAffected, result.Error
}

// UpdateFields 更新订单可变字段
func (r *GormOrderRepository) UpdateFields(ctx context.Context, id uint, updates map[string]interface{}) error {
	if len(updates) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Model(&models.Order{}).Where("id = ?", id).Updates(updates).Error
}

// CreateEvent 写入状态流转记录
func (r *GormOrderRepository) CreateEvent(ctx context.Context, event *models.OrderEvent) error {
	return r.db.WithContext(ctx).Create(event).Error
}

// ListEvents 获取订单状态流转记录
func (r *GormOrderRepository) ListEvents(ctx context.Context, orderID uint) ([]models.OrderEvent, error) {
	var events []models.OrderEvent
	if err := r.db.WithContext(ctx).Where("order_id = ?", orderID).Order("id asc").Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}

// Delete 先删除订单项与流转记录，再删除订单头，返回订单头受影响行数
func (r *GormOrderRepository) Delete(ctx context.Context, id uint) (int64, error) {
	db := r.db.WithContext(ctx)
	if err := db.Where("order_id = ?", id).Delete(&models.OrderItem{}).Error; err != nil {
		return 0, err
	}
	if err := db.Where("order_id = ?", id).Delete(&models.OrderEvent{}).Error; err != nil {
		return 0, err
	}
	result := db.Where("id = ?", id).Delete(&models.Order{})
	return result.RowsAffected, result.Error
}
