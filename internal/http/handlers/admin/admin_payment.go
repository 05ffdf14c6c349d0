package admin

import (
	"strings"

	"github.com/shopcore-next/internal/constants"
	"github.com/shopcore-next/internal/http/response"
	"github.com/shopcore-next/internal/models"
	"github.com/shopcore-next/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// ConfirmPaymentRequest 人工确认支付结果请求，order_no 与 provider_ref 至少提供一个
type ConfirmPaymentRequest struct {
	OrderNo        string           `json:"order_no"`
	ProviderRef    string           `json:"provider_ref"`
	ProviderStatus string           `json:"provider_status" binding:"required"`
	Amount         *decimal.Decimal `json:"amount"`
}

// AdminConfirmPayment 人工确认渠道支付结果
func (h *Handler) AdminConfirmPayment(c *gin.Context) {
	var req ConfirmPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	result, err := h.PaymentService.ConfirmByProviderRef(c.Request.Context(), service.ConfirmPaymentInput{
		ProviderRef:    strings.TrimSpace(req.ProviderRef),
		OrderNo:        strings.ToUpper(strings.TrimSpace(req.OrderNo)),
		ProviderStatus: strings.ToLower(strings.TrimSpace(req.ProviderStatus)),
		Amount:         req.Amount,
		Source:         constants.TransitionSourceAdmin,
	})
	if err != nil {
		respondWithMappedError(c, err, paymentConfirmErrorRules, response.CodeInternal, "error.save_failed")
		return
	}
	h.recordAudit(c, service.AuditEntry{
		Action:       "payment_confirm",
		ResourceType: models.AuditResourcePayment,
		ResourceID:   result.Order.OrderNo,
		Detail: models.JSON{
			"provider_ref":    req.ProviderRef,
			"provider_status": req.ProviderStatus,
			"outcome":         result.Outcome,
		},
	})
	requestLog(c).Infow("admin_payment_confirmed",
		"admin_id", currentAdminID(c),
		"order_no", result.Order.OrderNo,
		"outcome", result.Outcome,
	)
	response.Success(c, result)
}
