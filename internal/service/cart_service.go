package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopcore-next/internal/config"
	"github.com/shopcore-next/internal/constants"
	"github.com/shopcore-next/internal/logger"
	"github.com/shopcore-next/internal/models"
	"github.com/shopcore-next/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/gorm"
)

const defaultCartMaxQuantity = 999

// CartLine 购物车同步输入行
type CartLine struct {
	ProductID uint `json:"product_id" binding:"required"`
	Quantity  int  `json:"quantity" binding:"required"`
}

// CartItemDetail 购物车项详情（商品数据为实时值）
type CartItemDetail struct {
	ID        uint            `json:"id"`
	ProductID uint            `json:"product_id"`
	Quantity  int             `json:"quantity"`
	UnitPrice models.Money    `json:"unit_price"`
	LineTotal models.Money    `json:"line_total"`
	Product   *models.Product `json:"product"`
}

// CartView 购物车视图
type CartView struct {
	OwnerKey string           `json:"-"`
	Items    []CartItemDetail `json:"items"`
	Subtotal models.Money     `json:"subtotal"`
}

// CartService 购物车服务
type CartService struct {
	db          *gorm.DB
	cartRepo    repository.CartRepository
	productRepo repository.ProductRepository
	maxQuantity int
}

// NewCartService 创建购物车服务
func NewCartService(db *gorm.DB, cartRepo repository.CartRepository, productRepo repository.ProductRepository, orderCfg config.OrderConfig) *CartService {
	maxQuantity := orderCfg.MaxQuantity
	if maxQuantity <= 0 {
		maxQuantity = defaultCartMaxQuantity
	}
	return &CartService{
		db:          db,
		cartRepo:    cartRepo,
		productRepo: productRepo,
		maxQuantity: maxQuantity,
	}
}

// UserCartOwner 用户购物车归属键
func UserCartOwner(userID uint) string {
	return fmt.Sprintf("%s%d", constants.CartOwnerUserPrefix, userID)
}

// GuestCartOwner 游客购物车归属键，cartKey 必须是合法 UUID
func GuestCartOwner(cartKey string) (string, bool) {
	parsed, err := uuid.Parse(strings.TrimSpace(cartKey))
	if err != nil {
		return "", false
	}
	return constants.CartOwnerGuestPrefix + parsed.String(), true
}

// NewGuestCartKey 生成游客购物车标识
func NewGuestCartKey() string {
	return uuid.NewString()
}

// Add 加入购物车，同一商品累加数量
func (s *CartService) Add(ctx context.Context, owner string, productID uint, quantity int) error {
	if err := s.validateOwner(owner); err != nil {
		return err
	}
	if productID == 0 {
		return ErrInvalidOrderItem
	}
	if quantity <= 0 || quantity > s.maxQuantity {
		return ErrInvalidQuantity
	}
	product, err := s.productRepo.GetByID(ctx, productID)
	if err != nil {
		return err
	}
	if product == nil || !product.IsActive {
		return ErrProductNotAvailable
	}
	applied, err := s.cartRepo.AddQuantity(ctx, owner, productID, quantity, s.maxQuantity)
	if err != nil {
		return err
	}
	if !applied {
		return ErrInvalidQuantity
	}
	return nil
}

// SetQuantity 设置购物车项数量，数量小于等于 0 时删除该项
func (s *CartService) SetQuantity(ctx context.Context, owner string, itemID uint, quantity int) error {
	if err := s.validateOwner(owner); err != nil {
		return err
	}
	if itemID == 0 {
		return ErrCartItemNotFound
	}
	if quantity <= 0 {
		return s.cartRepo.DeleteByIDAndOwner(ctx, itemID, owner)
	}
	if quantity > s.maxQuantity {
		return ErrInvalidQuantity
	}
	affected, err := s.cartRepo.UpdateQuantity(ctx, itemID, owner, quantity)
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrCartItemNotFound
	}
	return nil
}

// Remove 删除购物车项，幂等
func (s *CartService) Remove(ctx context.Context, owner string, itemID uint) error {
	if err := s.validateOwner(owner); err != nil {
		return err
	}
	if itemID == 0 {
		return nil
	}
	return s.cartRepo.DeleteByIDAndOwner(ctx, itemID, owner)
}

// RemoveOrdered 从购物车扣除已下单的商品数量，其余行保持不变
func (s *CartService) RemoveOrdered(ctx context.Context, owner string, items []models.OrderItem) error {
	if err := s.validateOwner(owner); err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}
	ordered := make(map[uint]int, len(items))
	productIDs := make([]uint, 0, len(items))
	for _, item := range items {
		if item.ProductID == 0 || item.Quantity <= 0 {
			continue
		}
		if _, ok := ordered[item.ProductID]; !ok {
			productIDs = append(productIDs, item.ProductID)
		}
		ordered[item.ProductID] += item.Quantity
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cartRepo := s.cartRepo.WithTx(tx)
		for _, productID := range productIDs {
			if err := cartRepo.SubtractQuantity(ctx, owner, productID, ordered[productID]); err != nil {
				return err
			}
		}
		return nil
	})
}

// Clear 清空购物车，幂等
func (s *CartService) Clear(ctx context.Context, owner string) error {
	if err := s.validateOwner(owner); err != nil {
		return err
	}
	return s.cartRepo.ClearByOwner(ctx, owner)
}

// ReplaceAll 整体替换购物车，在同一事务中完成删除与批量写入
func (s *CartService) ReplaceAll(ctx context.Context, owner string, lines []CartLine) (err error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "cart.replace_all")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()
	span.SetAttributes(attribute.String("cart.owner", owner), attribute.Int("cart.lines", len(lines)))

	if err := s.validateOwner(owner); err != nil {
		return err
	}
	merged, err := mergeCartLines(lines, s.maxQuantity)
	if err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cartRepo := s.cartRepo.WithTx(tx)
		productRepo := s.productRepo.WithTx(tx)

		if len(merged) > 0 {
			if err := ensureProductsAvailable(ctx, productRepo, merged); err != nil {
				return err
			}
		}
		if err := cartRepo.ClearByOwner(ctx, owner); err != nil {
			return err
		}
		if len(merged) == 0 {
			return nil
		}

		now := time.Now()
		items := make([]models.CartItem, 0, len(merged))
		for _, line := range merged {
			items = append(items, models.CartItem{
				OwnerKey:  owner,
				ProductID: line.ProductID,
				Quantity:  line.Quantity,
				CreatedAt: now,
				UpdatedAt: now,
			})
		}
		return cartRepo.BulkInsert(ctx, items)
	})
}

// Merge 将游客购物车合并到用户购物车，合并后单行数量截断到上限
func (s *CartService) Merge(ctx context.Context, from, to string) error {
	if from == "" || from == to {
		return nil
	}
	if err := s.validateOwner(from); err != nil {
		return err
	}
	if err := s.validateOwner(to); err != nil {
		return err
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cartRepo := s.cartRepo.WithTx(tx)
		items, err := cartRepo.ListByOwner(ctx, from)
		if err != nil {
			return err
		}
		existing, err := cartRepo.ListByOwner(ctx, to)
		if err != nil {
			return err
		}
		current := make(map[uint]int, len(existing))
		for _, item := range existing {
			current[item.ProductID] = item.Quantity
		}
		for _, item := range items {
			quantity := min(item.Quantity, s.maxQuantity-current[item.ProductID])
			if quantity <= 0 {
				continue
			}
			if _, err := cartRepo.AddQuantity(ctx, to, item.ProductID, quantity, s.maxQuantity); err != nil {
				return err
			}
		}
		return cartRepo.ClearByOwner(ctx, from)
	})
}

// List 获取购物车，商品价格为实时价格；已下架商品会被剔除
func (s *CartService) List(ctx context.Context, owner string) (*CartView, error) {
	if err := s.validateOwner(owner); err != nil {
		return nil, err
	}
	items, err := s.cartRepo.ListByOwner(ctx, owner)
	if err != nil {
		return nil, err
	}
	view := &CartView{OwnerKey: owner, Items: make([]CartItemDetail, 0, len(items))}
	subtotal := decimal.Zero
	for _, item := range items {
		product := item.Product
		if product == nil || !product.IsActive {
			if err := s.cartRepo.DeleteByIDAndOwner(ctx, item.ID, owner); err != nil {
				logger.Ctx(ctx).Warnw("cart_prune_inactive_failed", "owner", owner, "item_id", item.ID, "error", err)
			}
			continue
		}
		lineTotal := product.PriceAmount.Times(item.Quantity)
		subtotal = subtotal.Add(lineTotal)
		view.Items = append(view.Items, CartItemDetail{
			ID:        item.ID,
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: product.PriceAmount,
			LineTotal: models.NewMoneyFromDecimal(lineTotal),
			Product:   product,
		})
	}
	view.Subtotal = models.NewMoneyFromDecimal(subtotal)
	return view, nil
}

// GetSubtotal 计算购物车小计（实时价格）
func (s *CartService) GetSubtotal(ctx context.Context, owner string) (models.Money, error) {
	if err := s.validateOwner(owner); err != nil {
		return models.Money{}, err
	}
	items, err := s.cartRepo.ListByOwner(ctx, owner)
	if err != nil {
		return models.Money{}, err
	}
	subtotal := decimal.Zero
	for _, item := range items {
		if item.Product == nil || !item.Product.IsActive {
			continue
		}
		subtotal = subtotal.Add(item.Product.PriceAmount.Times(item.Quantity))
	}
	return models.NewMoneyFromDecimal(subtotal), nil
}

func (s *CartService) validateOwner(owner string) error {
	if strings.HasPrefix(owner, constants.CartOwnerUserPrefix) && len(owner) > len(constants.CartOwnerUserPrefix) {
		return nil
	}
	if strings.HasPrefix(owner, constants.CartOwnerGuestPrefix) && len(owner) > len(constants.CartOwnerGuestPrefix) {
		return nil
	}
	return ErrInvalidOrderItem
}

// mergeCartLines 合并重复商品行并校验数量
func mergeCartLines(lines []CartLine, maxQuantity int) ([]CartLine, error) {
	merged := make([]CartLine, 0, len(lines))
	index := make(map[uint]int, len(lines))
	for _, line := range lines {
		if line.ProductID == 0 {
			return nil, ErrInvalidOrderItem
		}
		if line.Quantity <= 0 {
			return nil, ErrInvalidQuantity
		}
		if idx, ok := index[line.ProductID]; ok {
			merged[idx].Quantity += line.Quantity
			if merged[idx].Quantity > maxQuantity {
				return nil, ErrInvalidQuantity
			}
			continue
		}
		if line.Quantity > maxQuantity {
			return nil, ErrInvalidQuantity
		}
		index[line.ProductID] = len(merged)
		merged = append(merged, line)
	}
	return merged, nil
}

func ensureProductsAvailable(ctx context.Context, productRepo repository.ProductRepository, lines []CartLine) error {
	ids := make([]uint, 0, len(lines))
	for _, line := range lines {
		ids = append(ids, line.ProductID)
	}
	products, err := productRepo.ListByIDs(ctx, ids)
	if err != nil {
		return err
	}
	active := make(map[uint]bool, len(products))
	for _, product := range products {
		active[product.ID] = product.IsActive
	}
	for _, id := range ids {
		if !active[id] {
			return fmt.Errorf("%w: product %d", ErrProductNotAvailable, id)
		}
	}
	return nil
}
