package worker

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/shopcore-next/internal/constants"
	"github.com/shopcore-next/internal/logger"
	"github.com/shopcore-next/internal/provider"
	"github.com/shopcore-next/internal/queue"
	"github.com/shopcore-next/internal/service"

	"github.com/hibiken/asynq"
)

// Consumer 异步任务消费者
type Consumer struct {
	*provider.Container
}

// NewConsumer 创建消费者
func NewConsumer(c *provider.Container) *Consumer {
	return &Consumer{
		Container: c,
	}
}

// Register 注册消费者
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskOrderTimeoutCancel, c.handleOrderTimeoutCancel)
	mux.HandleFunc(queue.TaskPaymentEvent, c.handlePaymentEvent)
}

func (c *Consumer) handleOrderTimeoutCancel(ctx context.Context, task *asynq.Task) error {
	if c == nil || task == nil || c.OrderService == nil {
		return nil
	}
	var payload queue.OrderTimeoutCancelPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_order_timeout_cancel_unmarshal_failed", "error", err)
		return err
	}
	if payload.OrderID == 0 {
		return nil
	}
	cancelled, err := c.OrderService.CancelExpiredOrder(ctx, payload.OrderID)
	if err != nil {
		if errors.Is(err, service.ErrOrderNotFound) {
			logger.Ctx(ctx).Debugw("worker_order_timeout_cancel_skip_not_found", "order_id", payload.OrderID)
			return nil
		}
		logger.Ctx(ctx).Warnw("worker_order_timeout_cancel_failed", "order_id", payload.OrderID, "error", err)
		return err
	}
	logger.Ctx(ctx).Infow("worker_order_timeout_cancel_done", "order_id", payload.OrderID, "cancelled", cancelled)
	return nil
}

// handlePaymentEvent 支付成功后从下单用户的购物车中扣除已购商品
func (c *Consumer) handlePaymentEvent(ctx context.Context, task *asynq.Task) error {
	if c == nil || task == nil || c.OrderService == nil {
		return nil
	}
	var payload queue.PaymentEventPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_payment_event_unmarshal_failed", "error", err)
		return err
	}
	logger.Ctx(ctx).Infow("worker_payment_event_received",
		"order_id", payload.OrderID,
		"order_no", payload.OrderNo,
		"from", payload.From,
		"to", payload.To,
		"source", payload.Source,
	)
	if payload.OrderID == 0 || payload.To != constants.PaymentStatusPaid || c.CartService == nil {
		return nil
	}
	order, err := c.OrderService.GetOrder(ctx, payload.OrderID)
	if err != nil {
		if errors.Is(err, service.ErrOrderNotFound) {
			return nil
		}
		return err
	}
	if order.UserID == nil || *order.UserID == 0 {
		return nil
	}
	if err := c.CartService.RemoveOrdered(ctx, service.UserCartOwner(*order.UserID), order.Items); err != nil {
		logger.Ctx(ctx).Warnw("worker_payment_event_clear_cart_failed", "order_id", order.ID, "user_id", *order.UserID, "error", err)
		return err
	}
	return nil
}
