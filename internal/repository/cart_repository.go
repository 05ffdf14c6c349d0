package repository

import (
	"context"
	"time"

	"github.com/shopcore-next/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CartRepository 购物车数据访问接口
type CartRepository interface {
	ListByOwner(ctx context.Context, ownerKey string) ([]models.CartItem, error)
	AddQuantity(ctx context.Context, ownerKey string, productID uint, quantity, maxQuantity int) (bool, error)
	UpdateQuantity(ctx context.Context, id uint, ownerKey string, quantity int) (int64, error)
	DeleteByIDAndOwner(ctx context.Context, id uint, ownerKey string) error
	SubtractQuantity(ctx context.Context, ownerKey string, productID uint, quantity int) error
	ClearByOwner(ctx context.Context, ownerKey string) error
	BulkInsert(ctx context.Context, items []models.CartItem) error
	WithTx(tx *gorm.DB) CartRepository
}

// GormCartRepository GORM 实现
type GormCartRepository struct {
	db *gorm.DB
}

// NewCartRepository 创建购物车仓库
func NewCartRepository(db *gorm.DB) *GormCartRepository {
	return &GormCartRepository{db: db}
}

// WithTx 绑定事务
func (r *GormCartRepository) WithTx(tx *gorm.DB) CartRepository {
	if tx == nil {
		return r
	}
	return &GormCartRepository{db: tx}
}

// ListByOwner 获取购物车项（附带实时商品信息）
func (r *GormCartRepository) ListByOwner(ctx context.Context, ownerKey string) ([]models.CartItem, error) {
	var items []models.CartItem
	if err := r.db.WithContext(ctx).
		Preload("Product").
		Where("owner_key = ?", ownerKey).
		Order("id asc").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// AddQuantity 单条语句完成插入或累加，由数据库唯一索引串行化并发请求
// 累加后超过 maxQuantity 时不写入，返回 false
func (r *GormCartRepository) AddQuantity(ctx context.Context, ownerKey string, productID uint, quantity, maxQuantity int) (bool, error) {
	if quantity <= 0 || quantity > maxQuantity {
		return false, nil
	}
	now := time.Now()
	item := models.CartItem{
		OwnerKey:  ownerKey,
		ProductID: productID,
		Quantity:  quantity,
		CreatedAt: now,
		UpdatedAt: now,
	}
	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "owner_key"}, {Name: "product_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"quantity":   gorm.Expr("cart_items.quantity + excluded.quantity"),
			"updated_at": now,
		}),
		Where: clause.Where{Exprs: []clause.Expression{
			gorm.Expr("cart_items.quantity + excluded.quantity <= ?", maxQuantity),
		}},
	}).Create(&item)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// UpdateQuantity 更新数量，返回受影响行数
func (r *GormCartRepository) UpdateQuantity(ctx context.Context, id uint, ownerKey string, quantity int) (int64, error) {
	result := r.db.WithContext(ctx).Model(&models.CartItem{}).
		Where("id = ? AND owner_key = ?", id, ownerKey).
		Updates(map[string]interface{}{
			"quantity":   quantity,
			"updated_at": time.Now(),
		})
	return result.RowsAffected, result.Error
}

// DeleteByIDAndOwner 删除购物车项
func (r *GormCartRepository) DeleteByIDAndOwner(ctx context.Context, id uint, ownerKey string) error {
	return r.db.WithContext(ctx).Where("id = ? AND owner_key = ?", id, ownerKey).Delete(&models.CartItem{}).Error
}

// SubtractQuantity 扣减商品数量，扣减后不足 1 时删除该行
func (r *GormCartRepository) SubtractQuantity(ctx context.Context, ownerKey string, productID uint, quantity int) error {
	if quantity <= 0 {
		return nil
	}
	db := r.db.WithContext(ctx)
	if err := db.Where("owner_key = ? AND product_id = ? AND quantity <= ?", ownerKey, productID, quantity).
		Delete(&models.CartItem{}).Error; err != nil {
		return err
	}
	return db.Model(&models.CartItem{}).
		Where("owner_key = ? AND product_id = ? AND quantity > ?", ownerKey, productID, quantity).
		Updates(map[string]interface{}{
			"quantity":   gorm.Expr("quantity - ?", quantity),
			"updated_at": time.Now(),
		}).Error
}

// ClearByOwner 清空购物车
func (r *GormCartRepository) ClearByOwner(ctx context.Context, ownerKey string) error {
	return r.db.WithContext(ctx).Where("owner_key = ?", ownerKey).Delete(&models.CartItem{}).Error
}

// BulkInsert 批量写入购物车项
func (r *GormCartRepository) BulkInsert(ctx context.Context, items []models.CartItem) error {
	if len(items) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Omit(clause.Associations).CreateInBatches(&items, 100).Error
}
