package models

import "time"

// Order 订单表，创建后仅状态、支付字段、备注与地址可变
type Order struct {
	ID              uint       `gorm:"primarykey" json:"id"`                                                      // 主键
	OrderNo         string     `gorm:"type:varchar(32);uniqueIndex;not null" json:"order_no"`                     // 订单编号
	UserID          *uint      `gorm:"index" json:"user_id,omitempty"`                                            // 用户ID（游客订单为空）
	GuestEmail      string     `gorm:"type:varchar(255);index;not null;default:''" json:"guest_email,omitempty"`  // 游客邮箱
	Status          string     `gorm:"type:varchar(20);index;not null" json:"status"`                             // 履约状态
	PaymentStatus   string     `gorm:"type:varchar(20);index;not null" json:"payment_status"`                     // 支付状态
	PaymentMethod   string     `gorm:"type:varchar(32);not null;default:''" json:"payment_method"`                // 支付方式
	ProviderRef     string     `gorm:"type:varchar(128);index;not null;default:''" json:"provider_ref,omitempty"` // 支付渠道流水号（session / payment intent）
	Currency        string     `gorm:"type:varchar(8);not null" json:"currency"`                                  // 币种
	SubtotalAmount  Money      `gorm:"type:decimal(20,2);not null;default:0" json:"subtotal_amount"`              // 商品小计
	ShippingAmount  Money      `gorm:"type:decimal(20,2);not null;default:0" json:"shipping_amount"`              // 运费
	TaxAmount       Money      `gorm:"type:decimal(20,2);not null;default:0" json:"tax_amount"`                   // 税额
	DiscountAmount  Money      `gorm:"type:decimal(20,2);not null;default:0" json:"discount_amount"`              // 优惠金额
	TotalAmount     Money      `gorm:"type:decimal(20,2);not null;default:0" json:"total_amount"`                 // 应付总额
	ShippingAddress *Address   `gorm:"type:json" json:"shipping_address"`                                         // 收货地址
	BillingAddress  *Address   `gorm:"type:json" json:"billing_address"`                                          // 账单地址
	Notes           string     `gorm:"type:text" json:"notes"`                                                    // 备注
	ClientIP        string     `gorm:"type:varchar(64);not null;default:''" json:"client_ip,omitempty"`           // 下单客户端IP
	PaidAt          *time.Time `gorm:"index" json:"paid_at"`                                                      // 支付时间
	ShippedAt       *time.Time `json:"shipped_at"`                                                                // 发货时间
	DeliveredAt     *time.Time `json:"delivered_at"`                                                              // 签收时间
	CancelledAt     *time.Time `json:"cancelled_at"`                                                              // 取消时间
	RefundedAt      *time.Time `json:"refunded_at"`                                                               // 退款时间
	CreatedAt       time.Time  `gorm:"index" json:"created_at"`                                                   // 创建时间
	UpdatedAt       time.Time  `gorm:"index" json:"updated_at"`                                                   // 更新时间

	Items  []OrderItem  `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items,omitempty"`  // 订单项
	Events []OrderEvent `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"events,omitempty"` // 状态流转记录
}

// TableName 指定表名
func (Order) TableName() string {
	return "orders"
}

// IsGuest 是否游客订单
func (o *Order) IsGuest() bool {
	return o != nil && o.UserID == nil
}

// OwnedBy 判断订单是否属于指定用户
func (o *Order) OwnedBy(userID uint) bool {
	return o != nil && o.UserID != nil && *o.UserID == userID
}
