package service

import "errors"

// 通用错误
var (
	ErrNotFound         = errors.New("resource not found")
	ErrQueueUnavailable = errors.New("queue unavailable")
	ErrInvalidEmail     = errors.New("invalid email")
	ErrWeakPassword     = errors.New("password does not meet policy")
	ErrCaptchaRequired  = errors.New("captcha required")
	ErrCaptchaInvalid   = errors.New("captcha invalid")
	ErrCaptchaConfig    = errors.New("captcha config invalid")
	ErrSettingKeyEmpty  = errors.New("setting key is empty")
	ErrSettingNotFound  = errors.New("setting not found")
)

// 认证相关错误
var (
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrEmailExists          = errors.New("email already registered")
	ErrUserDisabled         = errors.New("user disabled")
	ErrUserNotFound         = errors.New("user not found")
	ErrUserStatusInvalid    = errors.New("user status invalid")
	ErrInvalidToken         = errors.New("invalid token")
	ErrAdminNotFound        = errors.New("admin not found")
	ErrAdminExists          = errors.New("admin username already exists")
	ErrAdminUsernameInvalid = errors.New("admin username invalid")
	ErrInvalidOldPassword   = errors.New("old password mismatch")
	ErrSessionUnavailable   = errors.New("session store unavailable")
)

// 商品与购物车错误
var (
	ErrProductNotFound     = errors.New("product not found")
	ErrProductNotAvailable = errors.New("product not available")
	ErrProductPriceInvalid = errors.New("product price invalid")
	ErrProductInvalid      = errors.New("product fields invalid")
	ErrProductSKUExists    = errors.New("product sku already exists")
	ErrCartItemNotFound    = errors.New("cart item not found")
	ErrInvalidQuantity     = errors.New("invalid quantity")
	ErrCartEmpty           = errors.New("cart is empty")
)

// 订单错误
var (
	ErrOrderNotFound         = errors.New("order not found")
	ErrInvalidOrderItem      = errors.New("invalid order item")
	ErrTooManyOrderItems     = errors.New("too many order items")
	ErrGuestEmailRequired    = errors.New("guest email required")
	ErrAddressInvalid        = errors.New("address invalid")
	ErrOrderTotalMismatch    = errors.New("order total mismatch")
	ErrOrderConflict         = errors.New("order number conflict")
	ErrOrderCreateFailed     = errors.New("order create failed")
	ErrImmutableField        = errors.New("immutable order field")
	ErrOrderPatchEmpty       = errors.New("order patch is empty")
	ErrOrderCancelNotAllowed = errors.New("order cancel not allowed")
)

// 状态机错误
var (
	ErrInvalidTransition   = errors.New("invalid status transition")
	ErrOrderStatusTerminal = errors.New("order status is terminal")
	ErrOrderStatusConflict = errors.New("order status changed concurrently")
	ErrUnknownStatus       = errors.New("unknown status")
	ErrUnknownAxis         = errors.New("unknown status axis")
	ErrOrderRefInvalid     = errors.New("order reference invalid")
)

// 支付错误
var (
	ErrPaymentInvalid         = errors.New("payment invalid")
	ErrPaymentMethodInvalid   = errors.New("payment method invalid")
	ErrPaymentAmountMismatch  = errors.New("payment amount mismatch")
	ErrPaymentAlreadyPaid     = errors.New("order already paid")
	ErrPaymentSignatureFailed = errors.New("payment signature invalid")
)
