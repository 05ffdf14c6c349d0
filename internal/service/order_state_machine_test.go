package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopcore-next/internal/constants"
)

func advance(t *testing.T, env *serviceTestEnv, orderID uint, axis, target, source string) *TransitionResult {
	t.Helper()
	result, err := env.machine.Advance(context.Background(), OrderRef{ID: orderID}, Signal{
		Axis:   axis,
		Target: target,
		Source: source,
	})
	if err != nil {
		t.Fatalf("advance %s to %s failed: %v", axis, target, err)
	}
	return result
}

func TestAdvancePaidTwiceIsNoop(t *testing.T) {
	env := newServiceTestEnv(t)
	order := createTestOrder(t, env, 0, "twice@example.com")

	first := advance(t, env, order.ID, constants.AxisPayment, constants.PaymentStatusPaid, constants.TransitionSourceProvider)
	if !first.Applied() || first.Order.PaidAt == nil {
		t.Fatalf("expected applied transition with paid_at, got %+v", first)
	}
	paidAt := *first.Order.PaidAt

	env.machine.now = func() time.Time { return paidAt.Add(time.Hour) }
	second := advance(t, env, order.ID, constants.AxisPayment, constants.PaymentStatusPaid, constants.TransitionSourceProvider)
	if second.Applied() || second.Outcome != constants.TransitionOutcomeNoop {
		t.Fatalf("expected noop, got %s", second.Outcome)
	}
	if second.Order.PaidAt == nil || !second.Order.PaidAt.Equal(paidAt) {
		t.Fatalf("paid_at changed on repeated signal: %v vs %v", second.Order.PaidAt, paidAt)
	}

	events, err := env.orders.GetOrderEvents(context.Background(), order.ID)
	if err != nil {
		t.Fatalf("list events failed: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected exactly one event, got %d", len(events))
	}
	if events[0].FromState != constants.PaymentStatusPending || events[0].ToState != constants.PaymentStatusPaid {
		t.Fatalf("unexpected event: %+v", events[0])
	}
}

func TestAdvanceRejectsTerminalFulfillment(t *testing.T) {
	env := newServiceTestEnv(t)
	order := createTestOrder(t, env, 0, "terminal@example.com")
	for _, status := range []string{
		constants.OrderStatusConfirmed,
		constants.OrderStatusShipped,
		constants.OrderStatusDelivered,
	} {
		advance(t, env, order.ID, constants.AxisFulfillment, status, constants.TransitionSourceAdmin)
	}

	_, err := env.machine.Advance(context.Background(), OrderRef{ID: order.ID}, Signal{
		Axis:   constants.AxisFulfillment,
		Target: constants.OrderStatusProcessing,
		Source: constants.TransitionSourceAdmin,
	})
	if !errors.Is(err, ErrOrderStatusTerminal) {
		t.Fatalf("expected terminal error, got %v", err)
	}
	// 终态下重复同一状态依旧是 noop
	again := advance(t, env, order.ID, constants.AxisFulfillment, constants.OrderStatusDelivered, constants.TransitionSourceAdmin)
	if again.Applied() {
		t.Fatalf("expected noop on terminal state")
	}
}

func TestAdvanceAdminRevertClearsTimestamps(t *testing.T) {
	env := newServiceTestEnv(t)
	order := createTestOrder(t, env, 0, "revert@example.com")
	advance(t, env, order.ID, constants.AxisFulfillment, constants.OrderStatusProcessing, constants.TransitionSourceAdmin)
	shipped := advance(t, env, order.ID, constants.AxisFulfillment, constants.OrderStatusShipped, constants.TransitionSourceAdmin)
	if shipped.Order.ShippedAt == nil {
		t.Fatalf("shipped_at should be set")
	}

	reverted := advance(t, env, order.ID, constants.AxisFulfillment, constants.OrderStatusConfirmed, constants.TransitionSourceAdmin)
	if reverted.Order.Status != constants.OrderStatusConfirmed {
		t.Fatalf("unexpected status after revert: %s", reverted.Order.Status)
	}
	if reverted.Order.ShippedAt != nil || reverted.Order.DeliveredAt != nil {
		t.Fatalf("revert must clear shipped_at and delivered_at")
	}
}

func TestAdvanceRevertRequiresAdmin(t *testing.T) {
	env := newServiceTestEnv(t)
	order := createTestOrder(t, env, 0, "system@example.com")
	advance(t, env, order.ID, constants.AxisFulfillment, constants.OrderStatusProcessing, constants.TransitionSourceAdmin)

	_, err := env.machine.Advance(context.Background(), OrderRef{ID: order.ID}, Signal{
		Axis:   constants.AxisFulfillment,
		Target: constants.OrderStatusPending,
		Source: constants.TransitionSourceSystem,
	})
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected invalid transition, got %v", err)
	}
}

func TestAdvanceCancelledAllowsRefundOnly(t *testing.T) {
	env := newServiceTestEnv(t)
	order := createTestOrder(t, env, 0, "refund@example.com")
	advance(t, env, order.ID, constants.AxisPayment, constants.PaymentStatusPaid, constants.TransitionSourceProvider)
	cancelled := advance(t, env, order.ID, constants.AxisFulfillment, constants.OrderStatusCancelled, constants.TransitionSourceAdmin)
	if cancelled.Order.CancelledAt == nil {
		t.Fatalf("cancelled_at should be set")
	}

	_, err := env.machine.Advance(context.Background(), OrderRef{ID: order.ID}, Signal{
		Axis:   constants.AxisPayment,
		Target: constants.PaymentStatusFailed,
		Source: constants.TransitionSourceAdmin,
	})
	if !errors.Is(err, ErrOrderStatusTerminal) {
		t.Fatalf("expected terminal error for non-refund change, got %v", err)
	}
	refunded := advance(t, env, order.ID, constants.AxisPayment, constants.PaymentStatusRefunded, constants.TransitionSourceAdmin)
	if !refunded.Applied() || refunded.Order.RefundedAt == nil {
		t.Fatalf("expected refund to apply, got %+v", refunded)
	}
}

func TestAdvanceResolvesOrderByProviderRef(t *testing.T) {
	env := newServiceTestEnv(t)
	order := createTestOrder(t, env, 0, "ref@example.com")
	if err := env.db.Model(order).Update("provider_ref", "cs_test_ref").Error; err != nil {
		t.Fatalf("set provider ref failed: %v", err)
	}

	result, err := env.machine.Advance(context.Background(), OrderRef{ProviderRef: "cs_test_ref"}, Signal{
		Axis:   constants.AxisPayment,
		Target: constants.PaymentStatusProcessing,
		Source: constants.TransitionSourceProvider,
	})
	if err != nil {
		t.Fatalf("advance by provider ref failed: %v", err)
	}
	if result.Order.ID != order.ID {
		t.Fatalf("resolved wrong order: %d", result.Order.ID)
	}
}

func TestAdvanceValidatesSignal(t *testing.T) {
	env := newServiceTestEnv(t)
	order := createTestOrder(t, env, 0, "signal@example.com")
	cases := []struct {
		ref    OrderRef
		signal Signal
		want   error
	}{
		{OrderRef{ID: order.ID}, Signal{Axis: "shipping", Target: "x", Source: constants.TransitionSourceAdmin}, ErrUnknownAxis},
		{OrderRef{ID: order.ID}, Signal{Axis: constants.AxisPayment, Target: "settled", Source: constants.TransitionSourceAdmin}, ErrUnknownStatus},
		{OrderRef{}, Signal{Axis: constants.AxisPayment, Target: constants.PaymentStatusPaid, Source: constants.TransitionSourceAdmin}, ErrOrderRefInvalid},
		{OrderRef{OrderNo: "SC-missing"}, Signal{Axis: constants.AxisPayment, Target: constants.PaymentStatusPaid, Source: constants.TransitionSourceAdmin}, ErrOrderNotFound},
	}
	for _, tc := range cases {
		if _, err := env.machine.Advance(context.Background(), tc.ref, tc.signal); !errors.Is(err, tc.want) {
			t.Fatalf("signal %+v: expected %v, got %v", tc.signal, tc.want, err)
		}
	}
}

func TestCheckTransitionTable(t *testing.T) {
	cases := []struct {
		name        string
		axis        string
		orderStatus string
		current     string
		target      string
		source      string
		want        error
	}{
		{"pending to paid", constants.AxisPayment, constants.OrderStatusPending, constants.PaymentStatusPending, constants.PaymentStatusPaid, constants.TransitionSourceProvider, nil},
		{"failed retry", constants.AxisPayment, constants.OrderStatusPending, constants.PaymentStatusFailed, constants.PaymentStatusProcessing, constants.TransitionSourceCustomer, nil},
		{"customer cannot mark paid", constants.AxisPayment, constants.OrderStatusPending, constants.PaymentStatusProcessing, constants.PaymentStatusPaid, constants.TransitionSourceCustomer, ErrInvalidTransition},
		{"paid cannot fail", constants.AxisPayment, constants.OrderStatusPending, constants.PaymentStatusPaid, constants.PaymentStatusFailed, constants.TransitionSourceProvider, ErrInvalidTransition},
		{"refunded terminal", constants.AxisPayment, constants.OrderStatusPending, constants.PaymentStatusRefunded, constants.PaymentStatusPaid, constants.TransitionSourceAdmin, ErrOrderStatusTerminal},
		{"pending cannot refund", constants.AxisPayment, constants.OrderStatusPending, constants.PaymentStatusPending, constants.PaymentStatusRefunded, constants.TransitionSourceAdmin, ErrInvalidTransition},
		{"cancelled allows refund", constants.AxisPayment, constants.OrderStatusCancelled, constants.PaymentStatusPaid, constants.PaymentStatusRefunded, constants.TransitionSourceAdmin, nil},
		{"forward ship", constants.AxisFulfillment, constants.OrderStatusConfirmed, constants.OrderStatusConfirmed, constants.OrderStatusShipped, constants.TransitionSourceAdmin, nil},
		{"skip to delivered", constants.AxisFulfillment, constants.OrderStatusPending, constants.OrderStatusPending, constants.OrderStatusDelivered, constants.TransitionSourceAdmin, ErrInvalidTransition},
		{"system cancel", constants.AxisFulfillment, constants.OrderStatusPending, constants.OrderStatusPending, constants.OrderStatusCancelled, constants.TransitionSourceSystem, nil},
		{"customer cannot ship", constants.AxisFulfillment, constants.OrderStatusPending, constants.OrderStatusPending, constants.OrderStatusConfirmed, constants.TransitionSourceCustomer, ErrInvalidTransition},
		{"cancelled terminal", constants.AxisFulfillment, constants.OrderStatusCancelled, constants.OrderStatusCancelled, constants.OrderStatusPending, constants.TransitionSourceAdmin, ErrOrderStatusTerminal},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := checkTransition(tc.axis, tc.orderStatus, tc.current, tc.target, tc.source)
			if tc.want == nil && err != nil {
				t.Fatalf("expected allowed, got %v", err)
			}
			if tc.want != nil && !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}
