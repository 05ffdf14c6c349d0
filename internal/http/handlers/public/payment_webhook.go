package public

import (
	"errors"
	"io"
	"net/http"

	"github.com/shopcore-next/internal/service"

	"github.com/gin-gonic/gin"
)

const (
	webhookBodyMaxBytes   = 1 << 20
	stripeSignatureHeader = "Stripe-Signature"
	epusdtCallbackSuccess = "success"
	epusdtCallbackFailure = "fail"
)

// StripeWebhook 处理 Stripe 事件推送
// 渠道依赖 HTTP 状态码决定是否重试，这里不使用统一响应包
func (h *Handler) StripeWebhook(c *gin.Context) {
	body, err := readWebhookBody(c)
	if err != nil {
		requestLog(c).Warnw("stripe_webhook_body_read_failed", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	result, err := h.PaymentService.HandleStripeWebhook(c.Request.Context(), c.GetHeader(stripeSignatureHeader), body)
	if err != nil {
		status := webhookHTTPStatus(err)
		requestLog(c).Warnw("stripe_webhook_rejected", "http_status", status, "error", err)
		c.JSON(status, gin.H{"error": http.StatusText(status)})
		return
	}
	if result != nil {
		requestLog(c).Infow("stripe_webhook_processed",
			"order_no", result.Order.OrderNo,
			"outcome", result.Outcome,
			"payment_status", result.To,
		)
	}
	c.JSON(http.StatusOK, gin.H{"received": true})
}

// EpusdtCallback 处理加密货币网关回调，网关只识别纯文本 success 应答
func (h *Handler) EpusdtCallback(c *gin.Context) {
	body, err := readWebhookBody(c)
	if err != nil {
		requestLog(c).Warnw("epusdt_callback_body_read_failed", "error", err)
		c.String(http.StatusOK, epusdtCallbackFailure)
		return
	}
	result, err := h.PaymentService.HandleEpusdtCallback(c.Request.Context(), body)
	if err != nil {
		requestLog(c).Warnw("epusdt_callback_rejected", "error", err)
		c.String(http.StatusOK, epusdtCallbackFailure)
		return
	}
	requestLog(c).Infow("epusdt_callback_processed",
		"order_no", result.Order.OrderNo,
		"outcome", result.Outcome,
		"payment_status", result.To,
	)
	c.String(http.StatusOK, epusdtCallbackSuccess)
}

func readWebhookBody(c *gin.Context) ([]byte, error) {
	return io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, webhookBodyMaxBytes))
}

// webhookHTTPStatus 签名与载荷错误不可重试，其余错误交由渠道重试
func webhookHTTPStatus(err error) int {
	switch {
	case errors.Is(err, service.ErrPaymentSignatureFailed):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrPaymentInvalid),
		errors.Is(err, service.ErrOrderRefInvalid),
		errors.Is(err, service.ErrPaymentAmountMismatch):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrOrderNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrInvalidTransition),
		errors.Is(err, service.ErrOrderStatusTerminal):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
