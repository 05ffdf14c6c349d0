package constants

// 履约状态常量
const (
	OrderStatusPending    = "pending"
	OrderStatusConfirmed  = "confirmed"
	OrderStatusProcessing = "processing"
	OrderStatusShipped    = "shipped"
	OrderStatusDelivered  = "delivered"
	OrderStatusCancelled  = "cancelled"
)

// 支付状态常量
const (
	PaymentStatusPending    = "pending"
	PaymentStatusProcessing = "processing"
	PaymentStatusPaid       = "paid"
	PaymentStatusFailed     = "failed"
	PaymentStatusRefunded   = "refunded"
)

// 状态维度
const (
	AxisPayment     = "payment"
	AxisFulfillment = "fulfillment"
)

// 状态流转来源
const (
	TransitionSourceAdmin    = "admin"
	TransitionSourceProvider = "provider"
	TransitionSourceCustomer = "customer"
	TransitionSourceSystem   = "system"
)

// 状态流转结果
const (
	TransitionOutcomeApplied = "applied"
	TransitionOutcomeNoop    = "noop"
)

// 支付方式常量
const (
	PaymentMethodCard   = "card"
	PaymentMethodPaypal = "paypal"
	PaymentMethodCrypto = "crypto"
)

// 支付渠道回调状态（统一后的渠道侧状态）
const (
	ProviderStatusSuccess = "success"
	ProviderStatusPending = "pending"
	ProviderStatusFailed  = "failed"
	ProviderStatusExpired = "expired"
)

// 用户状态常量
const (
	UserStatusActive   = "active"
	UserStatusDisabled = "disabled"
)

// 购物车归属前缀
const (
	CartOwnerUserPrefix  = "user:"
	CartOwnerGuestPrefix = "guest:"
)

// 验证码场景
const (
	CaptchaSceneLogin            = "login"
	CaptchaSceneRegister         = "register"
	CaptchaSceneGuestCreateOrder = "guest_create_order"
)

// 设置键
const (
	SettingKeySiteConfig  = "site_config"
	SettingKeyOrderConfig = "order_config"
)

// 设置字段
const (
	SettingFieldPaymentExpireMinutes = "payment_expire_minutes"
	SettingFieldSiteName             = "site_name"
	SettingFieldSupportEmail         = "support_email"
	SettingFieldAnnouncement         = "announcement"
	SettingFieldLanguages            = "languages"
)

// 订单编号前缀
const OrderNoPrefix = "SC"

// 队列名称
const (
	QueueDefault  = "default"
	QueueCritical = "critical"
)

// 异步任务类型
const (
	TaskOrderTimeoutCancel = "order:timeout_cancel"
	TaskPaymentEvent       = "payment:event"
)
