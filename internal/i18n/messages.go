package i18n

var catalog = map[string]map[string]string{
	LocaleEN: {
		"error.bad_request":              "Invalid request",
		"error.unauthorized":             "Unauthorized",
		"error.forbidden":                "Forbidden",
		"error.not_found":                "Resource not found",
		"error.internal":                 "Internal server error",
		"error.auth_header_missing":      "Authorization header is missing",
		"error.auth_header_invalid":      "Authorization header is invalid",
		"error.token_invalid":            "Token is invalid",
		"error.token_revoked":            "Token has been revoked",
		"error.jwt_secret_missing":       "JWT secret is not configured",
		"error.session_required":         "Please sign in first",
		"error.login_too_many":           "Too many attempts, retry in %d seconds",
		"error.rate_limited":             "Too many requests, retry in %d seconds",
		"error.invalid_credentials":      "Incorrect email or password",
		"error.email_invalid":            "Email address is invalid",
		"error.email_exists":             "Email is already registered",
		"error.password_weak":            "Password does not meet the policy",
		"error.old_password_invalid":     "Current password is incorrect",
		"error.user_disabled":            "Account is disabled",
		"error.user_not_found":           "User not found",
		"error.user_status_invalid":      "User status is invalid",
		"error.user_id_invalid":          "User id is invalid",
		"error.user_id_type_invalid":     "User id type is invalid",
		"error.admin_id_invalid":         "Admin id is invalid",
		"error.admin_id_type_invalid":    "Admin id type is invalid",
		"error.admin_not_found":          "Admin not found",
		"error.admin_exists":             "Admin username already exists",
		"error.admin_username_invalid":   "Admin username is invalid",
		"error.captcha_required":         "Captcha is required",
		"error.captcha_invalid":          "Captcha is incorrect",
		"error.captcha_unavailable":      "Captcha is disabled",
		"error.product_not_found":        "Product not found",
		"error.product_not_available":    "Product is not available",
		"error.product_invalid":          "Product fields are invalid",
		"error.product_price_invalid":    "Product price is invalid",
		"error.product_sku_exists":       "Product SKU already exists",
		"error.cart_key_invalid":         "Cart key is missing or invalid",
		"error.cart_item_not_found":      "Cart item not found",
		"error.quantity_invalid":         "Quantity is invalid",
		"error.order_not_found":          "Order not found",
		"error.order_item_invalid":       "Order items are invalid",
		"error.order_too_many_items":     "Too many order items",
		"error.guest_email_required":     "Email is required for guest checkout",
		"error.address_invalid":          "Address is invalid",
		"error.order_total_mismatch":     "Prices changed, please review your order",
		"error.order_conflict":           "Order could not be created, please retry",
		"error.order_create_failed":      "Order creation failed",
		"error.order_field_immutable":    "Field cannot be modified",
		"error.order_patch_empty":        "Nothing to update",
		"error.order_cancel_not_allowed": "Order can no longer be cancelled",
		"error.order_transition_invalid": "Status transition is not allowed",
		"error.order_status_terminal":    "Order is already closed",
		"error.order_status_conflict":    "Order was updated concurrently, please retry",
		"error.order_status_unknown":     "Status is unknown",
		"error.payment_invalid":          "Payment request is invalid",
		"error.payment_method_invalid":   "Payment method is not supported",
		"error.payment_amount_mismatch":  "Paid amount does not match the order",
		"error.payment_signature":        "Signature verification failed",
		"error.setting_not_found":        "Setting not found",
		"error.setting_key_empty":        "Setting key is required",
		"error.role_invalid":             "Role is invalid",
		"error.role_reserved":            "Built-in role cannot be deleted",
		"error.authz_unavailable":        "Authorization service unavailable",
		"error.save_failed":              "Save failed",
		"error.fetch_failed":             "Fetch failed",
	},
	LocaleZH: {
		"error.bad_request":              "请求参数错误",
		"error.unauthorized":             "未授权",
		"error.forbidden":                "无权限访问",
		"error.not_found":                "资源不存在",
		"error.internal":                 "服务器内部错误",
		"error.auth_header_missing":      "缺少 Authorization 请求头",
		"error.auth_header_invalid":      "Authorization 请求头格式错误",
		"error.token_invalid":            "Token 无效",
		"error.token_revoked":            "Token 已失效",
		"error.jwt_secret_missing":       "未配置 JWT 密钥",
		"error.session_required":         "请先登录",
		"error.login_too_many":           "尝试次数过多，请 %d 秒后重试",
		"error.rate_limited":             "请求过于频繁，请 %d 秒后重试",
		"error.invalid_credentials":      "邮箱或密码错误",
		"error.email_invalid":            "邮箱格式错误",
		"error.email_exists":             "邮箱已注册",
		"error.password_weak":            "密码不符合安全策略",
		"error.old_password_invalid":     "原密码错误",
		"error.user_disabled":            "账号已被禁用",
		"error.user_not_found":           "用户不存在",
		"error.user_status_invalid":      "用户状态无效",
		"error.user_id_invalid":          "用户 ID 无效",
		"error.user_id_type_invalid":     "用户 ID 类型错误",
		"error.admin_id_invalid":         "管理员 ID 无效",
		"error.admin_id_type_invalid":    "管理员 ID 类型错误",
		"error.admin_not_found":          "管理员不存在",
		"error.admin_exists":             "管理员账号已存在",
		"error.admin_username_invalid":   "管理员账号无效",
		"error.captcha_required":         "请输入验证码",
		"error.captcha_invalid":          "验证码错误",
		"error.captcha_unavailable":      "验证码未启用",
		"error.product_not_found":        "商品不存在",
		"error.product_not_available":    "商品已下架",
		"error.product_invalid":          "商品信息不完整",
		"error.product_price_invalid":    "商品价格无效",
		"error.product_sku_exists":       "商品 SKU 已存在",
		"error.cart_key_invalid":         "购物车标识缺失或无效",
		"error.cart_item_not_found":      "购物车项不存在",
		"error.quantity_invalid":         "数量无效",
		"error.order_not_found":          "订单不存在",
		"error.order_item_invalid":       "订单项无效",
		"error.order_too_many_items":     "订单项过多",
		"error.guest_email_required":     "游客下单需要填写邮箱",
		"error.address_invalid":          "地址信息无效",
		"error.order_total_mismatch":     "商品价格已变动，请确认订单",
		"error.order_conflict":           "订单创建冲突，请重试",
		"error.order_create_failed":      "订单创建失败",
		"error.order_field_immutable":    "该字段不可修改",
		"error.order_patch_empty":        "没有需要更新的字段",
		"error.order_cancel_not_allowed": "订单当前不可取消",
		"error.order_transition_invalid": "不允许的状态流转",
		"error.order_status_terminal":    "订单已关闭",
		"error.order_status_conflict":    "订单状态已被并发修改，请重试",
		"error.order_status_unknown":     "未知状态",
		"error.payment_invalid":          "支付请求无效",
		"error.payment_method_invalid":   "不支持的支付方式",
		"error.payment_amount_mismatch":  "支付金额与订单不符",
		"error.payment_signature":        "签名校验失败",
		"error.setting_not_found":        "设置不存在",
		"error.setting_key_empty":        "设置键不能为空",
		"error.role_invalid":             "角色无效",
		"error.role_reserved":            "内置角色不可删除",
		"error.authz_unavailable":        "权限服务不可用",
		"error.save_failed":              "保存失败",
		"error.fetch_failed":             "获取失败",
	},
}
