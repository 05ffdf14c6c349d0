package service

import (
	"context"
	"strings"
	"time"

	"github.com/shopcore-next/internal/constants"
	"github.com/shopcore-next/internal/logger"
	"github.com/shopcore-next/internal/models"
	"github.com/shopcore-next/internal/queue"
	"github.com/shopcore-next/internal/repository"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/gorm"
)

// OrderRef 订单定位方式，三者取其一
type OrderRef struct {
	ID          uint
	OrderNo     string
	ProviderRef string
}

// Signal 状态推进信号
type Signal struct {
	Axis        string
	Target      string
	Source      string
	ProviderRef string
	Note        string
}

// TransitionResult 状态推进结果
type TransitionResult struct {
	Outcome string        `json:"outcome"`
	Axis    string        `json:"axis"`
	From    string        `json:"from"`
	To      string        `json:"to"`
	Order   *models.Order `json:"order"`
}

// Applied 是否实际发生了流转
func (r *TransitionResult) Applied() bool {
	return r != nil && r.Outcome == constants.TransitionOutcomeApplied
}

// OrderStateMachine 订单支付/履约状态机
type OrderStateMachine struct {
	db          *gorm.DB
	orderRepo   repository.OrderRepository
	queueClient *queue.Client
	now         func() time.Time
}

// NewOrderStateMachine 创建状态机
func NewOrderStateMachine(db *gorm.DB, orderRepo repository.OrderRepository, queueClient *queue.Client) *OrderStateMachine {
	return &OrderStateMachine{
		db:          db,
		orderRepo:   orderRepo,
		queueClient: queueClient,
		now:         time.Now,
	}
}

// Advance 推进订单状态
// 当前状态等于目标状态时返回 noop，不写库也不修改时间戳
func (m *OrderStateMachine) Advance(ctx context.Context, ref OrderRef, signal Signal) (result *TransitionResult, err error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "order.advance")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()
	span.SetAttributes(
		attribute.String("order.axis", signal.Axis),
		attribute.String("order.target", signal.Target),
		attribute.String("order.source", signal.Source),
	)

	err = m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var txErr error
		result, txErr = m.advanceInTx(ctx, m.orderRepo.WithTx(tx), ref, signal)
		return txErr
	})
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("order.outcome", result.Outcome))
	m.afterCommit(ctx, result, signal)
	return result, nil
}

// advanceInTx 在调用方事务内完成校验、条件更新与流转记录
func (m *OrderStateMachine) advanceInTx(ctx context.Context, orderRepo repository.OrderRepository, ref OrderRef, signal Signal) (*TransitionResult, error) {
	if err := validateSignal(signal); err != nil {
		return nil, err
	}
	if ref.ID == 0 && strings.TrimSpace(ref.OrderNo) == "" && strings.TrimSpace(ref.ProviderRef) == "" {
		return nil, ErrOrderRefInvalid
	}

	order, err := resolveOrderRef(ctx, orderRepo, ref)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	current := axisValue(order, signal.Axis)
	result := &TransitionResult{
		Outcome: constants.TransitionOutcomeNoop,
		Axis:    signal.Axis,
		From:    current,
		To:      signal.Target,
		Order:   order,
	}
	if current == signal.Target {
		return result, nil
	}
	if err := checkTransition(signal.Axis, order.Status, current, signal.Target, signal.Source); err != nil {
		return nil, err
	}

	now := m.now()
	updates := transitionUpdates(order, signal, current, now)
	affected, err := orderRepo.CompareAndSetState(ctx, order.ID, axisColumn(signal.Axis), current, signal.Target, updates)
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		// 并发写入：已到达目标状态视为 noop，否则冲突
		latest, err := orderRepo.GetByID(ctx, order.ID)
		if err != nil {
			return nil, err
		}
		if latest != nil && axisValue(latest, signal.Axis) == signal.Target {
			result.Order = latest
			return result, nil
		}
		return nil, ErrOrderStatusConflict
	}

	if err := orderRepo.CreateEvent(ctx, &models.OrderEvent{
		OrderID:   order.ID,
		Axis:      signal.Axis,
		FromState: current,
		ToState:   signal.Target,
		Source:    signal.Source,
		Note:      strings.TrimSpace(signal.Note),
		CreatedAt: now,
	}); err != nil {
		return nil, err
	}

	latest, err := orderRepo.GetByID(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	if latest != nil {
		result.Order = latest
	}
	result.Outcome = constants.TransitionOutcomeApplied
	return result, nil
}

// afterCommit 事务提交后的指标、日志与异步事件
func (m *OrderStateMachine) afterCommit(ctx context.Context, result *TransitionResult, signal Signal) {
	if result == nil || result.Order == nil {
		return
	}
	if !result.Applied() {
		logger.Ctx(ctx).Infow("order_transition_noop",
			"order_id", result.Order.ID,
			"axis", signal.Axis,
			"state", signal.Target,
			"source", signal.Source,
		)
		return
	}

	recordTransition(ctx, signal.Axis, result.From, result.To, signal.Source)
	logger.Ctx(ctx).Infow("order_transition_applied",
		"order_id", result.Order.ID,
		"order_no", result.Order.OrderNo,
		"axis", signal.Axis,
		"from", result.From,
		"to", result.To,
		"source", signal.Source,
	)
	if signal.Axis != constants.AxisPayment || m.queueClient == nil {
		return
	}
	if err := m.queueClient.EnqueuePaymentEvent(queue.PaymentEventPayload{
		OrderID: result.Order.ID,
		OrderNo: result.Order.OrderNo,
		From:    result.From,
		To:      result.To,
		Source:  signal.Source,
	}); err != nil {
		logger.Ctx(ctx).Errorw("payment_event_enqueue_failed",
			"order_id", result.Order.ID,
			"error", err,
		)
	}
}

func validateSignal(signal Signal) error {
	switch signal.Axis {
	case constants.AxisPayment:
		if !IsKnownPaymentStatus(signal.Target) {
			return ErrUnknownStatus
		}
	case constants.AxisFulfillment:
		if !IsKnownFulfillmentStatus(signal.Target) {
			return ErrUnknownStatus
		}
	default:
		return ErrUnknownAxis
	}
	switch signal.Source {
	case constants.TransitionSourceAdmin, constants.TransitionSourceProvider,
		constants.TransitionSourceCustomer, constants.TransitionSourceSystem:
		return nil
	default:
		return ErrInvalidTransition
	}
}

func resolveOrderRef(ctx context.Context, orderRepo repository.OrderRepository, ref OrderRef) (*models.Order, error) {
	switch {
	case ref.ID != 0:
		return orderRepo.GetByID(ctx, ref.ID)
	case strings.TrimSpace(ref.OrderNo) != "":
		return orderRepo.GetByOrderNo(ctx, strings.TrimSpace(ref.OrderNo))
	default:
		return orderRepo.GetByProviderRef(ctx, strings.TrimSpace(ref.ProviderRef))
	}
}

func axisColumn(axis string) string {
	if axis == constants.AxisPayment {
		return "payment_status"
	}
	return "status"
}

func axisValue(order *models.Order, axis string) string {
	if axis == constants.AxisPayment {
		return order.PaymentStatus
	}
	return order.Status
}

// transitionUpdates 计算流转附带的时间戳变更
func transitionUpdates(order *models.Order, signal Signal, current string, now time.Time) map[string]interface{} {
	updates := map[string]interface{}{"updated_at": now}
	if ref := strings.TrimSpace(signal.ProviderRef); ref != "" && order.ProviderRef == "" {
		updates["provider_ref"] = ref
	}

	if signal.Axis == constants.AxisPayment {
		switch signal.Target {
		case constants.PaymentStatusPaid:
			updates["paid_at"] = now
		case constants.PaymentStatusRefunded:
			updates["refunded_at"] = now
		}
		return updates
	}

	switch signal.Target {
	case constants.OrderStatusShipped:
		updates["shipped_at"] = now
		updates["delivered_at"] = nil
	case constants.OrderStatusDelivered:
		updates["delivered_at"] = now
		if order.ShippedAt == nil {
			updates["shipped_at"] = now
		}
	case constants.OrderStatusCancelled:
		updates["cancelled_at"] = now
	default:
		if isFulfillmentRevert(current, signal.Target) {
			updates["shipped_at"] = nil
			updates["delivered_at"] = nil
		}
	}
	return updates
}
