package models

import (
	"time"

	"gorm.io/gorm"
)

// Product 商品表（目录外部协作方的最小投影）
type Product struct {
	ID          uint           `gorm:"primarykey" json:"id"`                                      // 主键
	SKU         string         `gorm:"type:varchar(64);uniqueIndex;not null" json:"sku"`          // 商品编码
	Name        string         `gorm:"type:varchar(200);not null" json:"name"`                    // 商品名称
	Description string         `gorm:"type:text" json:"description"`                              // 商品描述
	PriceAmount Money          `gorm:"type:decimal(20,2);not null;default:0" json:"price_amount"` // 当前售价
	Image       string         `gorm:"type:varchar(500);not null;default:''" json:"image"`        // 主图
	IsActive    bool           `gorm:"not null;index" json:"is_active"`                           // 是否上架
	SortOrder   int            `gorm:"not null;default:0;index" json:"sort_order"`                // 排序权重
	CreatedAt   time.Time      `gorm:"index" json:"created_at"`                                   // 创建时间
	UpdatedAt   time.Time      `json:"updated_at"`                                                // 更新时间
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`                                            // 软删除时间
}

// TableName 指定表名
func (Product) TableName() string {
	return "products"
}

// Snapshot 生成下单时刻的商品快照
func (p *Product) Snapshot() ProductSnapshot {
	return ProductSnapshot{
		ProductID: p.ID,
		SKU:       p.SKU,
		Name:      p.Name,
		Price:     p.PriceAmount,
		Image:     p.Image,
	}
}
