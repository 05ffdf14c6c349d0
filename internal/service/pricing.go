package service

import (
	"strings"

	"github.com/shopcore-next/internal/config"
	"github.com/shopcore-next/internal/models"

	"github.com/shopspring/decimal"
)

const defaultMismatchEpsilon = "0.01"

// PricingPolicy 计价策略
type PricingPolicy struct {
	Currency    string
	ShippingFee decimal.Decimal
	TaxRate     decimal.Decimal
	// TaxScale 税额保留的小数位，按四舍五入处理
	TaxScale int32
}

// PricedLine 参与计价的行（单价 × 数量）
type PricedLine struct {
	UnitPrice decimal.Decimal
	Quantity  int
}

// OrderSummary 订单金额汇总
type OrderSummary struct {
	Currency string       `json:"currency"`
	Subtotal models.Money `json:"subtotal"`
	Shipping models.Money `json:"shipping"`
	Tax      models.Money `json:"tax"`
	Total    models.Money `json:"total"`
}

// NewPricingPolicy 从配置构造计价策略，非法数值回退为 0
func NewPricingPolicy(cfg config.PricingConfig) PricingPolicy {
	currency := strings.ToUpper(strings.TrimSpace(cfg.Currency))
	if currency == "" {
		currency = "USD"
	}
	scale := cfg.TaxScale
	if scale < 0 {
		scale = 0
	}
	return PricingPolicy{
		Currency:    currency,
		ShippingFee: parseDecimalOrZero(cfg.ShippingFee),
		TaxRate:     parseDecimalOrZero(cfg.TaxRate),
		TaxScale:    scale,
	}
}

// ParseMismatchEpsilon 解析金额比对容差
func ParseMismatchEpsilon(raw string) decimal.Decimal {
	eps, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil || eps.IsNegative() {
		return decimal.RequireFromString(defaultMismatchEpsilon)
	}
	return eps
}

// ComputeSummary 计算订单金额汇总
// 运费按单收取，空购物车不收；税额基于小计计算
func ComputeSummary(lines []PricedLine, policy PricingPolicy) OrderSummary {
	subtotal := decimal.Zero
	counted := 0
	for _, line := range lines {
		if line.Quantity <= 0 {
			continue
		}
		counted++
		subtotal = subtotal.Add(line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}

	shipping := decimal.Zero
	if counted > 0 {
		shipping = policy.ShippingFee
	}
	tax := subtotal.Mul(policy.TaxRate).Round(policy.TaxScale)
	total := subtotal.Add(shipping).Add(tax)

	return OrderSummary{
		Currency: policy.Currency,
		Subtotal: models.NewMoneyFromDecimal(subtotal),
		Shipping: models.NewMoneyFromDecimal(shipping),
		Tax:      models.NewMoneyFromDecimal(tax),
		Total:    models.NewMoneyFromDecimal(total),
	}
}

// Matches 比对两个汇总的各项金额是否在容差范围内
func (s OrderSummary) Matches(other OrderSummary, epsilon decimal.Decimal) bool {
	pairs := [][2]models.Money{
		{s.Subtotal, other.Subtotal},
		{s.Shipping, other.Shipping},
		{s.Tax, other.Tax},
		{s.Total, other.Total},
	}
	for _, pair := range pairs {
		if !pair[0].Within(pair[1], epsilon) {
			return false
		}
	}
	return true
}

func parseDecimalOrZero(raw string) decimal.Decimal {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero
	}
	value, err := decimal.NewFromString(raw)
	if err != nil || value.IsNegative() {
		return decimal.Zero
	}
	return value
}
