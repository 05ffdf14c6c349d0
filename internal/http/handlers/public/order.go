package public

import (
	"strings"

	"github.com/shopcore-next/internal/constants"
	handlershared "github.com/shopcore-next/internal/http/handlers/shared"
	"github.com/shopcore-next/internal/http/response"
	"github.com/shopcore-next/internal/models"
	"github.com/shopcore-next/internal/repository"
	"github.com/shopcore-next/internal/service"

	"github.com/gin-gonic/gin"
)

// PreviewOrderRequest 订单金额预估请求
type PreviewOrderRequest struct {
	Items []service.CreateOrderItem `json:"items" binding:"required"`
}

// CreateOrderRequest 创建订单请求，summary 为客户端确认过的金额
type CreateOrderRequest struct {
	Email           string                              `json:"email"`
	Items           []service.CreateOrderItem           `json:"items" binding:"required"`
	ShippingAddress *models.Address                     `json:"shipping_address"`
	BillingAddress  *models.Address                     `json:"billing_address"`
	PaymentMethod   string                              `json:"payment_method"`
	Notes           string                              `json:"notes"`
	Summary         *service.OrderSummary               `json:"summary"`
	CaptchaPayload  handlershared.CaptchaPayloadRequest `json:"captcha_payload"`
}

// GuestOrderRequest 游客订单操作请求
type GuestOrderRequest struct {
	Email string `json:"email"`
}

// AttachPaymentRequest 绑定支付请求
type AttachPaymentRequest struct {
	Email       string `json:"email"`
	Method      string `json:"method" binding:"required"`
	ProviderRef string `json:"provider_ref" binding:"required"`
}

// PreviewOrder 按当前价格预估订单金额
func (h *Handler) PreviewOrder(c *gin.Context) {
	var req PreviewOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	summary, err := h.OrderService.PreviewSummary(c.Request.Context(), req.Items)
	if err != nil {
		respondWithMappedError(c, err, orderCreateErrorRules, response.CodeInternal, "error.fetch_failed")
		return
	}
	response.Success(c, summary)
}

// CreateOrder 创建订单，未登录时按游客下单
func (h *Handler) CreateOrder(c *gin.Context) {
	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	userID := currentUserID(c)
	if userID == 0 && !h.verifyCaptcha(c, constants.CaptchaSceneGuestCreateOrder, req.CaptchaPayload) {
		return
	}

	input := service.CreateOrderInput{
		UserID:          userID,
		Items:           req.Items,
		ShippingAddress: req.ShippingAddress,
		BillingAddress:  req.BillingAddress,
		PaymentMethod:   strings.TrimSpace(req.PaymentMethod),
		Notes:           req.Notes,
		Summary:         req.Summary,
		ClientIP:        c.ClientIP(),
	}
	if userID == 0 {
		input.GuestEmail = req.Email
	}
	order, err := h.OrderService.CreateOrder(c.Request.Context(), input)
	if err != nil {
		respondWithMappedError(c, err, orderCreateErrorRules, response.CodeInternal, "error.order_create_failed")
		return
	}
	response.Success(c, order)
}

// ListOrders 当前用户订单列表
func (h *Handler) ListOrders(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	page, pageSize := handlershared.QueryPagination(c)
	filter := repository.OrderListFilter{
		Page:          page,
		PageSize:      pageSize,
		Status:        strings.TrimSpace(c.Query("status")),
		PaymentStatus: strings.TrimSpace(c.Query("payment_status")),
	}
	orders, total, err := h.OrderService.ListUserOrders(c.Request.Context(), userID, filter)
	if err != nil {
		respondError(c, response.CodeInternal, "error.fetch_failed", err)
		return
	}
	response.SuccessWithPage(c, orders, response.NewPagination(page, pageSize, total))
}

// GetOrder 订单详情，游客需通过 email 查询参数证明归属
func (h *Handler) GetOrder(c *gin.Context) {
	orderNo := normalizeOrderNo(c.Param("order_no"))
	if orderNo == "" {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	var (
		order *models.Order
		err   error
	)
	if userID := currentUserID(c); userID != 0 {
		order, err = h.OrderService.GetUserOrder(c.Request.Context(), userID, orderNo)
	} else {
		order, err = h.OrderService.GetGuestOrder(c.Request.Context(), c.Query("email"), orderNo)
	}
	if err != nil {
		respondWithMappedError(c, err, orderReadErrorRules, response.CodeInternal, "error.fetch_failed")
		return
	}
	response.Success(c, order)
}

// CancelOrder 取消未支付订单
func (h *Handler) CancelOrder(c *gin.Context) {
	orderNo := normalizeOrderNo(c.Param("order_no"))
	if orderNo == "" {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	var (
		order *models.Order
		err   error
	)
	if userID := currentUserID(c); userID != 0 {
		order, err = h.OrderService.CancelOrder(c.Request.Context(), userID, orderNo)
	} else {
		var req GuestOrderRequest
		if bindErr := c.ShouldBindJSON(&req); bindErr != nil {
			respondError(c, response.CodeBadRequest, "error.bad_request", nil)
			return
		}
		order, err = h.OrderService.CancelGuestOrder(c.Request.Context(), req.Email, orderNo)
	}
	if err != nil {
		respondWithMappedError(c, err, orderCancelErrorRules, response.CodeInternal, "error.save_failed")
		return
	}
	response.Success(c, order)
}

// AttachPayment 绑定支付方式与渠道流水号
func (h *Handler) AttachPayment(c *gin.Context) {
	orderNo := normalizeOrderNo(c.Param("order_no"))
	if orderNo == "" {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	var req AttachPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	input := service.AttachPaymentInput{
		UserID:      currentUserID(c),
		OrderNo:     orderNo,
		Method:      strings.TrimSpace(req.Method),
		ProviderRef: strings.TrimSpace(req.ProviderRef),
	}
	if input.UserID == 0 {
		input.GuestEmail = req.Email
	}
	result, err := h.PaymentService.AttachPayment(c.Request.Context(), input)
	if err != nil {
		respondWithMappedError(c, err, paymentAttachErrorRules, response.CodeInternal, "error.save_failed")
		return
	}
	response.Success(c, result)
}
