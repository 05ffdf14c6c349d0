package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopcore-next/internal/config"
	"github.com/shopcore-next/internal/constants"
	"github.com/shopcore-next/internal/logger"
	"github.com/shopcore-next/internal/models"
	"github.com/shopcore-next/internal/payment/epusdt"
	"github.com/shopcore-next/internal/payment/stripe"
	"github.com/shopcore-next/internal/repository"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// PaymentService 支付关联与渠道回调确认
type PaymentService struct {
	db          *gorm.DB
	orderRepo   repository.OrderRepository
	machine     *OrderStateMachine
	epsilon     decimal.Decimal
	stripeCfg   stripe.Config
	epusdtToken string
	now         func() time.Time
}

// NewPaymentService 创建支付服务
func NewPaymentService(db *gorm.DB, orderRepo repository.OrderRepository, machine *OrderStateMachine, epsilon decimal.Decimal, cfg config.PaymentConfig) *PaymentService {
	return &PaymentService{
		db:        db,
		orderRepo: orderRepo,
		machine:   machine,
		epsilon:   epsilon,
		stripeCfg: stripe.Config{
			WebhookSecret:           strings.TrimSpace(cfg.Stripe.WebhookSecret),
			WebhookToleranceSeconds: cfg.Stripe.WebhookToleranceSeconds,
		},
		epusdtToken: strings.TrimSpace(cfg.Epusdt.AuthToken),
		now:         time.Now,
	}
}

func paymentLogger(ctx context.Context, kv ...interface{}) *zap.SugaredLogger {
	if len(kv) == 0 {
		return logger.Ctx(ctx)
	}
	return logger.Ctx(ctx).With(kv...)
}

// AttachPaymentInput 顾客关联支付凭据
type AttachPaymentInput struct {
	UserID      uint
	GuestEmail  string
	OrderNo     string
	Method      string
	ProviderRef string
}

// ConfirmPaymentInput 渠道或管理员确认支付结果
type ConfirmPaymentInput struct {
	ProviderRef    string
	OrderNo        string
	ProviderStatus string
	Amount         *decimal.Decimal
	Source         string
}

// AttachPayment 记录支付方式与渠道流水号，并将支付状态推进到 processing
func (s *PaymentService) AttachPayment(ctx context.Context, input AttachPaymentInput) (*TransitionResult, error) {
	orderNo := strings.TrimSpace(input.OrderNo)
	method := strings.ToLower(strings.TrimSpace(input.Method))
	providerRef := strings.TrimSpace(input.ProviderRef)
	if orderNo == "" {
		return nil, ErrOrderNotFound
	}
	if !isPaymentMethodSupported(method) {
		return nil, ErrPaymentMethodInvalid
	}
	if providerRef == "" {
		return nil, ErrPaymentInvalid
	}
	log := paymentLogger(ctx, "order_no", orderNo, "method", method)

	var result *TransitionResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		orderRepo := s.orderRepo.WithTx(tx)
		order, err := s.findOwnedOrder(ctx, orderRepo, input.UserID, input.GuestEmail, orderNo)
		if err != nil {
			return err
		}
		switch order.PaymentStatus {
		case constants.PaymentStatusPaid, constants.PaymentStatusRefunded:
			return ErrPaymentAlreadyPaid
		}
		if err := orderRepo.UpdateFields(ctx, order.ID, map[string]interface{}{
			"payment_method": method,
			"provider_ref":   providerRef,
			"updated_at":     s.now(),
		}); err != nil {
			return err
		}
		result, err = s.machine.advanceInTx(ctx, orderRepo, OrderRef{ID: order.ID}, Signal{
			Axis:        constants.AxisPayment,
			Target:      constants.PaymentStatusProcessing,
			Source:      constants.TransitionSourceCustomer,
			ProviderRef: providerRef,
			Note:        "payment attached",
		})
		return err
	})
	if err != nil {
		log.Warnw("payment_attach_failed", "error", err)
		return nil, err
	}
	s.machine.afterCommit(ctx, result, Signal{Axis: constants.AxisPayment, Target: result.To, Source: constants.TransitionSourceCustomer})
	log.Infow("payment_attached", "order_id", result.Order.ID, "outcome", result.Outcome)
	return result, nil
}

// ConfirmByProviderRef 根据渠道流水号确认支付结果
// 重复的成功回调返回 noop，paid_at 保持首次写入的值
func (s *PaymentService) ConfirmByProviderRef(ctx context.Context, input ConfirmPaymentInput) (result *TransitionResult, err error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "payment.confirm")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	providerRef := strings.TrimSpace(input.ProviderRef)
	orderNo := strings.TrimSpace(input.OrderNo)
	source := input.Source
	if source == "" {
		source = constants.TransitionSourceProvider
	}
	span.SetAttributes(
		attribute.String("payment.provider_ref", providerRef),
		attribute.String("payment.provider_status", input.ProviderStatus),
		attribute.String("payment.source", source),
	)
	log := paymentLogger(ctx, "provider_ref", providerRef, "order_no", orderNo, "provider_status", input.ProviderStatus)

	target, ok := mapProviderStatus(input.ProviderStatus)
	if !ok {
		log.Warnw("payment_confirm_status_unknown")
		return nil, ErrPaymentInvalid
	}
	order, err := s.findOrderForConfirm(ctx, providerRef, orderNo)
	if err != nil {
		return nil, err
	}
	if target == constants.PaymentStatusPaid && input.Amount != nil {
		expected := order.TotalAmount.Decimal
		if input.Amount.Sub(expected).Abs().GreaterThan(s.epsilon) {
			log.Warnw("payment_amount_mismatch",
				"order_id", order.ID,
				"expected", expected.StringFixed(2),
				"actual", input.Amount.StringFixed(2),
			)
			return nil, ErrPaymentAmountMismatch
		}
	}

	result, err = s.machine.Advance(ctx, OrderRef{ID: order.ID}, Signal{
		Axis:        constants.AxisPayment,
		Target:      target,
		Source:      source,
		ProviderRef: providerRef,
		Note:        "provider status " + strings.TrimSpace(input.ProviderStatus),
	})
	if err != nil {
		log.Warnw("payment_confirm_rejected", "order_id", order.ID, "target", target, "error", err)
		return nil, err
	}
	if !result.Applied() {
		log.Infow("payment_transition_noop", "order_id", order.ID, "state", target)
	}
	return result, nil
}

// HandleStripeWebhook 校验 Stripe 事件并确认支付
// 与支付无关的事件返回 (nil, nil)
func (s *PaymentService) HandleStripeWebhook(ctx context.Context, signatureHeader string, body []byte) (*TransitionResult, error) {
	log := paymentLogger(ctx, "provider", "stripe", "body_size", len(body))
	event, err := stripe.VerifyAndParseWebhook(s.stripeCfg, signatureHeader, body, s.now())
	if err != nil {
		if errors.Is(err, stripe.ErrSignatureInvalid) || errors.Is(err, stripe.ErrConfigInvalid) {
			log.Warnw("payment_webhook_signature_invalid", "error", err)
			return nil, fmt.Errorf("%w: %v", ErrPaymentSignatureFailed, err)
		}
		log.Warnw("payment_webhook_payload_invalid", "error", err)
		return nil, fmt.Errorf("%w: %v", ErrPaymentInvalid, err)
	}
	log.Infow("payment_webhook_event_parsed",
		"event_id", event.EventID,
		"event_type", event.EventType,
		"provider_ref", event.ProviderRef,
	)
	if event.Status == "" {
		log.Infow("payment_webhook_event_ignored", "event_type", event.EventType)
		return nil, nil
	}
	return s.ConfirmByProviderRef(ctx, ConfirmPaymentInput{
		ProviderRef:    event.ProviderRef,
		OrderNo:        event.OrderNo,
		ProviderStatus: event.Status,
		Amount:         event.Amount,
		Source:         constants.TransitionSourceProvider,
	})
}

// HandleEpusdtCallback 校验加密货币网关回调并确认支付
func (s *PaymentService) HandleEpusdtCallback(ctx context.Context, body []byte) (*TransitionResult, error) {
	log := paymentLogger(ctx, "provider", "epusdt", "body_size", len(body))
	data, err := epusdt.ParseCallback(body)
	if err != nil {
		log.Warnw("payment_callback_payload_invalid", "error", err)
		return nil, fmt.Errorf("%w: %v", ErrPaymentInvalid, err)
	}
	callback, err := epusdt.VerifyCallback(s.epusdtToken, data)
	if err != nil {
		if errors.Is(err, epusdt.ErrPayloadInvalid) {
			log.Warnw("payment_callback_payload_invalid", "error", err)
			return nil, fmt.Errorf("%w: %v", ErrPaymentInvalid, err)
		}
		log.Warnw("payment_callback_signature_invalid", "error", err)
		return nil, fmt.Errorf("%w: %v", ErrPaymentSignatureFailed, err)
	}
	return s.ConfirmByProviderRef(ctx, ConfirmPaymentInput{
		ProviderRef:    callback.ProviderRef,
		OrderNo:        callback.OrderNo,
		ProviderStatus: callback.Status,
		Amount:         callback.Amount,
		Source:         constants.TransitionSourceProvider,
	})
}

func (s *PaymentService) findOwnedOrder(ctx context.Context, orderRepo repository.OrderRepository, userID uint, guestEmail, orderNo string) (*models.Order, error) {
	var (
		order *models.Order
		err   error
	)
	if userID != 0 {
		order, err = orderRepo.GetByOrderNoAndUser(ctx, orderNo, userID)
	} else {
		email, emailErr := normalizeGuestEmail(guestEmail)
		if emailErr != nil {
			return nil, ErrOrderNotFound
		}
		order, err = orderRepo.GetByOrderNoAndGuest(ctx, orderNo, email)
	}
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// findOrderForConfirm 优先按渠道流水号定位，找不到时回退到订单号
func (s *PaymentService) findOrderForConfirm(ctx context.Context, providerRef, orderNo string) (*models.Order, error) {
	if providerRef == "" && orderNo == "" {
		return nil, ErrOrderRefInvalid
	}
	if providerRef != "" {
		order, err := s.orderRepo.GetByProviderRef(ctx, providerRef)
		if err != nil {
			return nil, err
		}
		if order != nil {
			return order, nil
		}
	}
	if orderNo != "" {
		order, err := s.orderRepo.GetByOrderNo(ctx, orderNo)
		if err != nil {
			return nil, err
		}
		if order != nil {
			return order, nil
		}
	}
	return nil, ErrOrderNotFound
}

func mapProviderStatus(status string) (string, bool) {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case constants.ProviderStatusSuccess:
		return constants.PaymentStatusPaid, true
	case constants.ProviderStatusFailed, constants.ProviderStatusExpired:
		return constants.PaymentStatusFailed, true
	case constants.ProviderStatusPending:
		return constants.PaymentStatusProcessing, true
	default:
		return "", false
	}
}
