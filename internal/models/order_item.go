package models

import "time"

// OrderItem 订单项表，随订单一次性写入，不单独更新
type OrderItem struct {
	ID         uint            `gorm:"primarykey" json:"id"`                                     // 主键
	OrderID    uint            `gorm:"index;not null" json:"order_id"`                           // 订单ID
	ProductID  uint            `gorm:"index;not null" json:"product_id"`                         // 商品ID
	Quantity   int             `gorm:"not null" json:"quantity"`                                 // 数量
	UnitPrice  Money           `gorm:"type:decimal(20,2);not null;default:0" json:"unit_price"`  // 下单时单价
	TotalPrice Money           `gorm:"type:decimal(20,2);not null;default:0" json:"total_price"` // 小计
	Snapshot   ProductSnapshot `gorm:"type:json;not null" json:"snapshot"`                       // 商品快照
	CreatedAt  time.Time       `json:"created_at"`                                               // 创建时间
}

// TableName 指定表名
func (OrderItem) TableName() string {
	return "order_items"
}
