package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"net/mail"
	"sort"
	"strings"
	"time"

	"github.com/shopcore-next/internal/config"
	"github.com/shopcore-next/internal/constants"
	"github.com/shopcore-next/internal/logger"
	"github.com/shopcore-next/internal/models"
	"github.com/shopcore-next/internal/queue"
	"github.com/shopcore-next/internal/repository"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/gorm"
)

const (
	defaultOrderMaxItems        = 100
	defaultPaymentExpireMinutes = 30
)

// OrderService 订单服务
type OrderService struct {
	db            *gorm.DB
	orderRepo     repository.OrderRepository
	productRepo   repository.ProductRepository
	machine       *OrderStateMachine
	queueClient   *queue.Client
	settings      *SettingService
	policy        PricingPolicy
	epsilon       decimal.Decimal
	maxItems      int
	maxQuantity   int
	expireMinutes int
}

// NewOrderService 创建订单服务
func NewOrderService(db *gorm.DB, orderRepo repository.OrderRepository, productRepo repository.ProductRepository, machine *OrderStateMachine, queueClient *queue.Client, settings *SettingService, pricingCfg config.PricingConfig, orderCfg config.OrderConfig) *OrderService {
	maxItems := orderCfg.MaxItems
	if maxItems <= 0 {
		maxItems = defaultOrderMaxItems
	}
	maxQuantity := orderCfg.MaxQuantity
	if maxQuantity <= 0 {
		maxQuantity = defaultCartMaxQuantity
	}
	expireMinutes := orderCfg.PaymentExpireMinutes
	if expireMinutes <= 0 {
		expireMinutes = defaultPaymentExpireMinutes
	}
	return &OrderService{
		db:            db,
		orderRepo:     orderRepo,
		productRepo:   productRepo,
		machine:       machine,
		queueClient:   queueClient,
		settings:      settings,
		policy:        NewPricingPolicy(pricingCfg),
		epsilon:       ParseMismatchEpsilon(pricingCfg.MismatchEpsilon),
		maxItems:      maxItems,
		maxQuantity:   maxQuantity,
		expireMinutes: expireMinutes,
	}
}

// CreateOrderItem 创建订单项输入
type CreateOrderItem struct {
	ProductID uint `json:"product_id"`
	Quantity  int  `json:"quantity"`
}

// CreateOrderInput 创建订单输入，UserID 为 0 时为游客下单
type CreateOrderInput struct {
	UserID          uint
	GuestEmail      string
	Items           []CreateOrderItem
	ShippingAddress *models.Address
	BillingAddress  *models.Address
	PaymentMethod   string
	Notes           string
	Summary         *OrderSummary
	ClientIP        string
}

// Policy 当前计价策略
func (s *OrderService) Policy() PricingPolicy {
	return s.policy
}

// PreviewSummary 按当前目录价格预估订单金额
func (s *OrderService) PreviewSummary(ctx context.Context, items []CreateOrderItem) (*OrderSummary, error) {
	merged, err := s.mergeCreateOrderItems(items)
	if err != nil {
		return nil, err
	}
	lines, _, err := s.resolveOrderLines(ctx, s.productRepo, merged)
	if err != nil {
		return nil, err
	}
	summary := ComputeSummary(lines, s.policy)
	return &summary, nil
}

// CreateOrder 创建订单
// 订单头与订单项在同一事务中写入，价格以事务内读取的目录价格为准
func (s *OrderService) CreateOrder(ctx context.Context, input CreateOrderInput) (order *models.Order, err error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "order.create")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	merged, guestEmail, err := s.validateCreateInput(&input)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Int("order.lines", len(merged)), attribute.Bool("order.guest", input.UserID == 0))

	now := time.Now()
	order = &models.Order{
		OrderNo:         generateOrderNo(now),
		GuestEmail:      guestEmail,
		Status:          constants.OrderStatusPending,
		PaymentStatus:   constants.PaymentStatusPending,
		PaymentMethod:   strings.TrimSpace(input.PaymentMethod),
		Currency:        s.policy.Currency,
		ShippingAddress: input.ShippingAddress,
		BillingAddress:  input.BillingAddress,
		Notes:           strings.TrimSpace(input.Notes),
		ClientIP:        strings.TrimSpace(input.ClientIP),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if input.UserID != 0 {
		userID := input.UserID
		order.UserID = &userID
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		orderRepo := s.orderRepo.WithTx(tx)
		productRepo := s.productRepo.WithTx(tx)

		lines, products, err := s.resolveOrderLines(ctx, productRepo, merged)
		if err != nil {
			return err
		}
		summary := ComputeSummary(lines, s.policy)
		if !summary.Matches(*input.Summary, s.epsilon) {
			logger.Ctx(ctx).Warnw("order_total_mismatch",
				"client_total", input.Summary.Total.String(),
				"server_total", summary.Total.String(),
				"client_subtotal", input.Summary.Subtotal.String(),
				"server_subtotal", summary.Subtotal.String(),
			)
			return ErrOrderTotalMismatch
		}

		order.SubtotalAmount = summary.Subtotal
		order.ShippingAmount = summary.Shipping
		order.TaxAmount = summary.Tax
		order.DiscountAmount = models.NewMoneyFromDecimal(decimal.Zero)
		order.TotalAmount = summary.Total
		if err := orderRepo.CreateHeader(ctx, order); err != nil {
			if repository.IsUniqueViolation(err) {
				return ErrOrderConflict
			}
			return err
		}

		items := make([]models.OrderItem, 0, len(merged))
		for _, item := range merged {
			product := products[item.ProductID]
			items = append(items, models.OrderItem{
				OrderID:    order.ID,
				ProductID:  product.ID,
				Quantity:   item.Quantity,
				UnitPrice:  product.PriceAmount,
				TotalPrice: models.NewMoneyFromDecimal(product.PriceAmount.Times(item.Quantity)),
				Snapshot:   product.Snapshot(),
				CreatedAt:  now,
			})
		}
		if err := orderRepo.CreateItems(ctx, items); err != nil {
			return err
		}
		order.Items = items
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrOrderTotalMismatch) || errors.Is(err, ErrOrderConflict) || errors.Is(err, ErrProductNotAvailable) {
			return nil, err
		}
		logger.Ctx(ctx).Errorw("order_create_failed", "order_no", order.OrderNo, "error", err)
		return nil, err
	}

	span.SetAttributes(attribute.String("order.no", order.OrderNo))
	logger.Ctx(ctx).Infow("order_created",
		"order_id", order.ID,
		"order_no", order.OrderNo,
		"total", order.TotalAmount.String(),
		"guest", order.IsGuest(),
	)

	if s.queueClient != nil {
		if err := s.queueClient.EnqueueOrderTimeoutCancel(queue.OrderTimeoutCancelPayload{
			OrderID: order.ID,
		}, time.Duration(s.resolveExpireMinutes(ctx))*time.Minute); err != nil {
			logger.Ctx(ctx).Errorw("order_enqueue_timeout_cancel_failed",
				"order_id", order.ID,
				"order_no", order.OrderNo,
				"error", err,
			)
		}
	}

	full, err := s.orderRepo.GetByID(ctx, order.ID)
	if err == nil && full != nil {
		return full, nil
	}
	return order, nil
}

// resolveExpireMinutes 后台设置优先于配置文件
func (s *OrderService) resolveExpireMinutes(ctx context.Context) int {
	if s.settings == nil {
		return s.expireMinutes
	}
	minutes, err := s.settings.GetOrderPaymentExpireMinutes(ctx, s.expireMinutes)
	if err != nil {
		logger.Ctx(ctx).Warnw("order_expire_setting_load_failed", "error", err)
		return s.expireMinutes
	}
	return minutes
}

// validateCreateInput 写库前的输入校验
func (s *OrderService) validateCreateInput(input *CreateOrderInput) ([]CreateOrderItem, string, error) {
	merged, err := s.mergeCreateOrderItems(input.Items)
	if err != nil {
		return nil, "", err
	}
	guestEmail := ""
	if input.UserID == 0 {
		guestEmail, err = normalizeGuestEmail(input.GuestEmail)
		if err != nil {
			return nil, "", err
		}
	}
	if err := ValidateAddress(input.ShippingAddress); err != nil {
		return nil, "", err
	}
	if input.BillingAddress != nil {
		if err := ValidateAddress(input.BillingAddress); err != nil {
			return nil, "", err
		}
	}
	if method := strings.TrimSpace(input.PaymentMethod); method != "" && !isPaymentMethodSupported(method) {
		return nil, "", ErrPaymentMethodInvalid
	}
	if input.Summary == nil {
		return nil, "", ErrOrderTotalMismatch
	}
	if currency := strings.TrimSpace(input.Summary.Currency); currency != "" && !strings.EqualFold(currency, s.policy.Currency) {
		return nil, "", ErrOrderTotalMismatch
	}
	return merged, guestEmail, nil
}

// mergeCreateOrderItems 合并重复商品的下单项
func (s *OrderService) mergeCreateOrderItems(items []CreateOrderItem) ([]CreateOrderItem, error) {
	if len(items) == 0 {
		return nil, ErrInvalidOrderItem
	}
	merged := make([]CreateOrderItem, 0, len(items))
	index := make(map[uint]int, len(items))
	for _, item := range items {
		if item.ProductID == 0 {
			return nil, ErrInvalidOrderItem
		}
		if item.Quantity <= 0 {
			return nil, ErrInvalidQuantity
		}
		if idx, ok := index[item.ProductID]; ok {
			merged[idx].Quantity += item.Quantity
			continue
		}
		index[item.ProductID] = len(merged)
		merged = append(merged, item)
	}
	if len(merged) > s.maxItems {
		return nil, ErrTooManyOrderItems
	}
	for _, item := range merged {
		if item.Quantity > s.maxQuantity {
			return nil, ErrInvalidQuantity
		}
	}
	return merged, nil
}

// resolveOrderLines 读取权威目录价格，任一商品不存在或已下架即失败
func (s *OrderService) resolveOrderLines(ctx context.Context, productRepo repository.ProductRepository, items []CreateOrderItem) ([]PricedLine, map[uint]*models.Product, error) {
	ids := make([]uint, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ProductID)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	rows, err := productRepo.ListByIDs(ctx, ids)
	if err != nil {
		return nil, nil, err
	}
	products := make(map[uint]*models.Product, len(rows))
	for i := range rows {
		products[rows[i].ID] = &rows[i]
	}

	lines := make([]PricedLine, 0, len(items))
	for _, item := range items {
		product, ok := products[item.ProductID]
		if !ok || !product.IsActive {
			return nil, nil, fmt.Errorf("%w: product %d", ErrProductNotAvailable, item.ProductID)
		}
		if product.PriceAmount.Decimal.IsNegative() {
			return nil, nil, ErrProductPriceInvalid
		}
		lines = append(lines, PricedLine{UnitPrice: product.PriceAmount.Decimal, Quantity: item.Quantity})
	}
	return lines, products, nil
}

// DeleteOrder 删除订单（先删订单项再删订单头）
func (s *OrderService) DeleteOrder(ctx context.Context, orderID uint) error {
	if orderID == 0 {
		return ErrOrderNotFound
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		affected, err := s.orderRepo.WithTx(tx).Delete(ctx, orderID)
		if err != nil {
			return err
		}
		if affected == 0 {
			return ErrOrderNotFound
		}
		logger.Ctx(ctx).Infow("order_deleted", "order_id", orderID)
		return nil
	})
}

// CancelOrder 用户取消订单，仅未支付订单允许取消
func (s *OrderService) CancelOrder(ctx context.Context, userID uint, orderNo string) (*models.Order, error) {
	order, err := s.GetUserOrder(ctx, userID, orderNo)
	if err != nil {
		return nil, err
	}
	return s.cancelUnpaid(ctx, order, constants.TransitionSourceCustomer, "cancelled by customer")
}

// CancelGuestOrder 游客取消订单
func (s *OrderService) CancelGuestOrder(ctx context.Context, email, orderNo string) (*models.Order, error) {
	order, err := s.GetGuestOrder(ctx, email, orderNo)
	if err != nil {
		return nil, err
	}
	return s.cancelUnpaid(ctx, order, constants.TransitionSourceCustomer, "cancelled by guest")
}

// CancelExpiredOrder 超时未支付订单自动取消，返回是否实际取消
func (s *OrderService) CancelExpiredOrder(ctx context.Context, orderID uint) (bool, error) {
	order, err := s.GetOrder(ctx, orderID)
	if err != nil {
		return false, err
	}
	if isTerminalFulfillment(order.Status) || !isCancellablePayment(order.PaymentStatus) {
		logger.Ctx(ctx).Infow("order_timeout_cancel_skipped",
			"order_id", order.ID,
			"status", order.Status,
			"payment_status", order.PaymentStatus,
		)
		return false, nil
	}
	result, err := s.machine.Advance(ctx, OrderRef{ID: order.ID}, Signal{
		Axis:   constants.AxisFulfillment,
		Target: constants.OrderStatusCancelled,
		Source: constants.TransitionSourceSystem,
		Note:   "payment timeout",
	})
	if err != nil {
		// 支付确认与超时取消并发时以支付为准
		if errors.Is(err, ErrOrderStatusConflict) || errors.Is(err, ErrOrderStatusTerminal) {
			return false, nil
		}
		return false, err
	}
	return result.Applied(), nil
}

func (s *OrderService) cancelUnpaid(ctx context.Context, order *models.Order, source, note string) (*models.Order, error) {
	if order.Status == constants.OrderStatusCancelled {
		return order, nil
	}
	if !isCancellablePayment(order.PaymentStatus) {
		return nil, ErrOrderCancelNotAllowed
	}
	result, err := s.machine.Advance(ctx, OrderRef{ID: order.ID}, Signal{
		Axis:   constants.AxisFulfillment,
		Target: constants.OrderStatusCancelled,
		Source: source,
		Note:   note,
	})
	if err != nil {
		if errors.Is(err, ErrInvalidTransition) || errors.Is(err, ErrOrderStatusTerminal) {
			return nil, ErrOrderCancelNotAllowed
		}
		return nil, err
	}
	return result.Order, nil
}

func isCancellablePayment(status string) bool {
	return status == constants.PaymentStatusPending || status == constants.PaymentStatusFailed
}

func isPaymentMethodSupported(method string) bool {
	switch method {
	case constants.PaymentMethodCard, constants.PaymentMethodPaypal, constants.PaymentMethodCrypto:
		return true
	default:
		return false
	}
}

func normalizeGuestEmail(raw string) (string, error) {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	if normalized == "" {
		return "", ErrGuestEmailRequired
	}
	if _, err := mail.ParseAddress(normalized); err != nil {
		return "", ErrInvalidEmail
	}
	return normalized, nil
}

func generateOrderNo(now time.Time) string {
	return fmt.Sprintf("%s%s%s", constants.OrderNoPrefix, now.Format("20060102150405"), randNumeric(6))
}

func randNumeric(length int) string {
	var b strings.Builder
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			b.WriteString("0")
			continue
		}
		b.WriteString(n.String())
	}
	return b.String()
}
