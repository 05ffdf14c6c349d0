package models

import "time"

// OrderEvent 订单状态流转记录
type OrderEvent struct {
	ID        uint      `gorm:"primarykey" json:"id"`                               // 主键
	OrderID   uint      `gorm:"index;not null" json:"order_id"`                     // 订单ID
	Axis      string    `gorm:"type:varchar(20);not null" json:"axis"`              // 状态维度（payment / fulfillment）
	FromState string    `gorm:"type:varchar(20);not null" json:"from"`              // 原状态
	ToState   string    `gorm:"type:varchar(20);not null" json:"to"`                // 新状态
	Source    string    `gorm:"type:varchar(20);not null;default:''" json:"source"` // 触发来源（admin/provider/customer/system）
	Note      string    `gorm:"type:varchar(500);not null;default:''" json:"note"`  // 备注
	CreatedAt time.Time `gorm:"index" json:"created_at"`                            // 创建时间
}

// TableName 指定表名
func (OrderEvent) TableName() string {
	return "order_events"
}
