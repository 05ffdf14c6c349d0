package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopcore-next/internal/constants"
	"github.com/shopcore-next/internal/logger"
	"github.com/shopcore-next/internal/models"

	"gorm.io/gorm"
)

// OrderPatch 订单可变字段，nil 表示不修改
type OrderPatch struct {
	Status          *string         `json:"status"`
	PaymentStatus   *string         `json:"payment_status"`
	PaymentMethod   *string         `json:"payment_method"`
	ProviderRef     *string         `json:"provider_ref"`
	Notes           *string         `json:"notes"`
	ShippingAddress *models.Address `json:"shipping_address"`
	BillingAddress  *models.Address `json:"billing_address"`
}

// 订单创建后不可修改的字段
var immutableOrderKeys = map[string]bool{
	"id":              true,
	"order_no":        true,
	"user_id":         true,
	"guest_email":     true,
	"currency":        true,
	"subtotal":        true,
	"subtotal_amount": true,
	"shipping_amount": true,
	"tax_amount":      true,
	"discount_amount": true,
	"total_amount":    true,
	"items":           true,
	"created_at":      true,
}

var mutableOrderKeys = map[string]bool{
	"status":           true,
	"payment_status":   true,
	"payment_method":   true,
	"provider_ref":     true,
	"notes":            true,
	"shipping_address": true,
	"billing_address":  true,
}

// ValidatePatchKeys 校验原始请求体的键，拒绝金额与订单项等不可变字段
func ValidatePatchKeys(raw map[string]json.RawMessage) error {
	if len(raw) == 0 {
		return ErrOrderPatchEmpty
	}
	for key := range raw {
		normalized := strings.ToLower(strings.TrimSpace(key))
		if immutableOrderKeys[normalized] || !mutableOrderKeys[normalized] {
			return fmt.Errorf("%w: %s", ErrImmutableField, key)
		}
	}
	return nil
}

// IsEmpty 判断补丁是否没有任何字段
func (p OrderPatch) IsEmpty() bool {
	return p.Status == nil && p.PaymentStatus == nil && p.PaymentMethod == nil &&
		p.ProviderRef == nil && p.Notes == nil && p.ShippingAddress == nil && p.BillingAddress == nil
}

// UpdateOrder 管理端更新订单，状态字段经状态机流转，字段更新与流转在同一事务内完成
func (s *OrderService) UpdateOrder(ctx context.Context, orderID uint, patch OrderPatch) (*models.Order, error) {
	if orderID == 0 {
		return nil, ErrOrderNotFound
	}
	if patch.IsEmpty() {
		return nil, ErrOrderPatchEmpty
	}
	if patch.ShippingAddress != nil {
		if err := ValidateAddress(patch.ShippingAddress); err != nil {
			return nil, err
		}
	}
	if patch.BillingAddress != nil {
		if err := ValidateAddress(patch.BillingAddress); err != nil {
			return nil, err
		}
	}
	if patch.PaymentMethod != nil {
		if method := strings.TrimSpace(*patch.PaymentMethod); method != "" && !isPaymentMethodSupported(method) {
			return nil, ErrPaymentMethodInvalid
		}
	}

	updates := map[string]interface{}{}
	if patch.PaymentMethod != nil {
		updates["payment_method"] = strings.TrimSpace(*patch.PaymentMethod)
	}
	if patch.ProviderRef != nil {
		updates["provider_ref"] = strings.TrimSpace(*patch.ProviderRef)
	}
	if patch.Notes != nil {
		updates["notes"] = strings.TrimSpace(*patch.Notes)
	}
	if patch.ShippingAddress != nil {
		updates["shipping_address"] = patch.ShippingAddress
	}
	if patch.BillingAddress != nil {
		updates["billing_address"] = patch.BillingAddress
	}

	signals := make([]Signal, 0, 2)
	if patch.PaymentStatus != nil {
		signals = append(signals, Signal{
			Axis:   constants.AxisPayment,
			Target: strings.TrimSpace(*patch.PaymentStatus),
			Source: constants.TransitionSourceAdmin,
			Note:   "admin update",
		})
	}
	if patch.Status != nil {
		signals = append(signals, Signal{
			Axis:   constants.AxisFulfillment,
			Target: strings.TrimSpace(*patch.Status),
			Source: constants.TransitionSourceAdmin,
			Note:   "admin update",
		})
	}

	results := make([]*TransitionResult, 0, len(signals))
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		orderRepo := s.orderRepo.WithTx(tx)
		order, err := orderRepo.GetByID(ctx, orderID)
		if err != nil {
			return err
		}
		if order == nil {
			return ErrOrderNotFound
		}
		if len(updates) > 0 {
			updates["updated_at"] = time.Now()
			if err := orderRepo.UpdateFields(ctx, orderID, updates); err != nil {
				return err
			}
		}
		for _, signal := range signals {
			result, err := s.machine.advanceInTx(ctx, orderRepo, OrderRef{ID: orderID}, signal)
			if err != nil {
				return err
			}
			results = append(results, result)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for i, result := range results {
		s.machine.afterCommit(ctx, result, signals[i])
	}
	logger.Ctx(ctx).Infow("order_updated", "order_id", orderID, "fields", len(updates), "transitions", len(signals))
	return s.GetOrder(ctx, orderID)
}
