package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/shopcore-next/internal/config"
	"github.com/shopcore-next/internal/constants"
	"github.com/shopcore-next/internal/models"
	"github.com/shopcore-next/internal/provider"
	"github.com/shopcore-next/internal/queue"
	"github.com/shopcore-next/internal/service"

	"github.com/glebarez/sqlite"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestConsumer(t *testing.T) *Consumer {
	t.Helper()
	dsn := fmt.Sprintf("file:worker_%s_%d?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"), time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, models.AutoMigrate(db))

	cfg := &config.Config{
		JWT:     config.JWTConfig{SecretKey: "worker-secret", ExpireHours: 1},
		Session: config.SessionConfig{TTLHours: 1},
		Pricing: config.PricingConfig{Currency: "USD", ShippingFee: "150", TaxRate: "0.08", MismatchEpsilon: "0.01"},
		Order:   config.OrderConfig{PaymentExpireMinutes: 30, MaxItems: 100, MaxQuantity: 999},
	}
	container, err := provider.NewContainer(cfg, db)
	require.NoError(t, err)
	return NewConsumer(container)
}

func seedOrder(t *testing.T, c *Consumer, userID uint) *models.Order {
	t.Helper()
	ctx := context.Background()
	product := &models.Product{SKU: "W-" + t.Name(), Name: "Widget", PriceAmount: models.MustMoney("100"), IsActive: true}
	require.NoError(t, c.DB.Create(product).Error)
	if userID != 0 {
		require.NoError(t, c.CartService.Add(ctx, service.UserCartOwner(userID), product.ID, 1))
	}

	items := []service.CreateOrderItem{{ProductID: product.ID, Quantity: 1}}
	summary, err := c.OrderService.PreviewSummary(ctx, items)
	require.NoError(t, err)
	input := service.CreateOrderInput{
		UserID:          userID,
		Items:           items,
		ShippingAddress: &models.Address{Name: "Jane", Line1: "1 Main St", City: "Springfield", Country: "US"},
		PaymentMethod:   constants.PaymentMethodCard,
		Summary:         summary,
	}
	if userID == 0 {
		input.GuestEmail = "guest@example.com"
	}
	order, err := c.OrderService.CreateOrder(ctx, input)
	require.NoError(t, err)
	return order
}

func mustTask(t *testing.T, name string, payload interface{}) *asynq.Task {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	return asynq.NewTask(name, body)
}

func TestHandleOrderTimeoutCancel(t *testing.T) {
	c := newTestConsumer(t)
	order := seedOrder(t, c, 0)

	task := mustTask(t, queue.TaskOrderTimeoutCancel, queue.OrderTimeoutCancelPayload{OrderID: order.ID})
	require.NoError(t, c.handleOrderTimeoutCancel(context.Background(), task))

	reloaded, err := c.OrderService.GetOrder(context.Background(), order.ID)
	require.NoError(t, err)
	require.Equal(t, constants.OrderStatusCancelled, reloaded.Status)

	// 重复投递与不存在的订单均视为成功
	require.NoError(t, c.handleOrderTimeoutCancel(context.Background(), task))
	missing := mustTask(t, queue.TaskOrderTimeoutCancel, queue.OrderTimeoutCancelPayload{OrderID: order.ID + 100})
	require.NoError(t, c.handleOrderTimeoutCancel(context.Background(), missing))
}

func TestHandleOrderTimeoutCancelSkipsPaidOrder(t *testing.T) {
	c := newTestConsumer(t)
	order := seedOrder(t, c, 0)
	_, err := c.StateMachine.Advance(context.Background(), service.OrderRef{ID: order.ID}, service.Signal{
		Axis:   constants.AxisPayment,
		Target: constants.PaymentStatusPaid,
		Source: constants.TransitionSourceProvider,
	})
	require.NoError(t, err)

	task := mustTask(t, queue.TaskOrderTimeoutCancel, queue.OrderTimeoutCancelPayload{OrderID: order.ID})
	require.NoError(t, c.handleOrderTimeoutCancel(context.Background(), task))

	reloaded, err := c.OrderService.GetOrder(context.Background(), order.ID)
	require.NoError(t, err)
	require.Equal(t, constants.OrderStatusPending, reloaded.Status)
}

func TestHandlePaymentEventRemovesOrderedLines(t *testing.T) {
	c := newTestConsumer(t)
	ctx := context.Background()
	user := &models.User{Email: "paid@example.com", PasswordHash: "hash", DisplayName: "paid", Status: constants.UserStatusActive}
	require.NoError(t, c.DB.Create(user).Error)
	order := seedOrder(t, c, user.ID)
	owner := service.UserCartOwner(user.ID)

	// 下单后新加入的商品与追加数量不受支付事件影响
	require.Len(t, order.Items, 1)
	require.NoError(t, c.CartService.Add(ctx, owner, order.Items[0].ProductID, 2))
	extra := &models.Product{SKU: "W-EXTRA", Name: "Extra", PriceAmount: models.MustMoney("5"), IsActive: true}
	require.NoError(t, c.DB.Create(extra).Error)
	require.NoError(t, c.CartService.Add(ctx, owner, extra.ID, 1))

	pending := mustTask(t, queue.TaskPaymentEvent, queue.PaymentEventPayload{
		OrderID: order.ID, OrderNo: order.OrderNo, From: constants.PaymentStatusPending, To: constants.PaymentStatusProcessing,
	})
	require.NoError(t, c.handlePaymentEvent(ctx, pending))
	view, err := c.CartService.List(ctx, owner)
	require.NoError(t, err)
	require.Len(t, view.Items, 2)

	paid := mustTask(t, queue.TaskPaymentEvent, queue.PaymentEventPayload{
		OrderID: order.ID, OrderNo: order.OrderNo, From: constants.PaymentStatusProcessing, To: constants.PaymentStatusPaid,
	})
	require.NoError(t, c.handlePaymentEvent(ctx, paid))
	view, err = c.CartService.List(ctx, owner)
	require.NoError(t, err)
	quantities := make(map[uint]int, len(view.Items))
	for _, item := range view.Items {
		quantities[item.ProductID] = item.Quantity
	}
	require.Equal(t, map[uint]int{order.Items[0].ProductID: 2, extra.ID: 1}, quantities)
}

func TestHandlePaymentEventRejectsMalformedPayload(t *testing.T) {
	c := newTestConsumer(t)
	require.Error(t, c.handlePaymentEvent(context.Background(), asynq.NewTask(queue.TaskPaymentEvent, []byte("{"))))
}

func TestRunPeriodicRunsImmediatelyAndStops(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := make(chan struct{}, 4)
	done := make(chan struct{})
	go func() {
		runPeriodic(ctx, periodicJob{name: "tick", interval: time.Hour, run: func(context.Context) error {
			calls <- struct{}{}
			return nil
		}})
		close(done)
	}()

	select {
	case <-calls:
	case <-time.After(time.Second):
		t.Fatal("job should run immediately")
	}
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("runPeriodic should return after cancel")
	}
}

func TestSessionPurgeJobRemovesExpiredSessions(t *testing.T) {
	c := newTestConsumer(t)
	ctx := context.Background()
	user := &models.User{Email: "purge@example.com", PasswordHash: "hash", Status: constants.UserStatusActive}
	require.NoError(t, c.DB.Create(user).Error)
	expired := &models.Session{TokenHash: "expired-hash", UserID: user.ID, ExpiresAt: time.Now().Add(-time.Hour)}
	live := &models.Session{TokenHash: "live-hash", UserID: user.ID, ExpiresAt: time.Now().Add(time.Hour)}
	require.NoError(t, c.DB.Create(expired).Error)
	require.NoError(t, c.DB.Create(live).Error)

	jobs := c.periodicJobs()
	require.Len(t, jobs, 1)
	require.Equal(t, "session_purge", jobs[0].name)
	require.NoError(t, jobs[0].run(ctx))

	var remaining []models.Session
	require.NoError(t, c.DB.Find(&remaining).Error)
	require.Len(t, remaining, 1)
	require.Equal(t, "live-hash", remaining[0].TokenHash)
}
