package service

import (
	"testing"

	"github.com/shopcore-next/internal/config"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaultTestPolicy() PricingPolicy {
	return NewPricingPolicy(config.PricingConfig{
		Currency:    "usd",
		ShippingFee: "150",
		TaxRate:     "0.08",
		TaxScale:    0,
	})
}

func TestComputeSummaryDefaultScenario(t *testing.T) {
	lines := []PricedLine{
		{UnitPrice: decimal.RequireFromString("50"), Quantity: 2},
		{UnitPrice: decimal.RequireFromString("30"), Quantity: 1},
	}
	summary := ComputeSummary(lines, defaultTestPolicy())

	assert.Equal(t, "USD", summary.Currency)
	assert.Equal(t, "130.00", summary.Subtotal.String())
	assert.Equal(t, "150.00", summary.Shipping.String())
	assert.Equal(t, "10.00", summary.Tax.String())
	assert.Equal(t, "290.00", summary.Total.String())
}

func TestComputeSummaryEmptyCartHasNoShipping(t *testing.T) {
	summary := ComputeSummary(nil, defaultTestPolicy())
	assert.True(t, summary.Subtotal.IsZero())
	assert.True(t, summary.Shipping.IsZero())
	assert.True(t, summary.Total.IsZero())
}

func TestComputeSummaryFreeItemsStillPayShipping(t *testing.T) {
	summary := ComputeSummary([]PricedLine{{UnitPrice: decimal.Zero, Quantity: 3}}, defaultTestPolicy())
	assert.True(t, summary.Subtotal.IsZero())
	assert.Equal(t, "150.00", summary.Shipping.String())
	assert.True(t, summary.Tax.IsZero())
	assert.Equal(t, "150.00", summary.Total.String())

	summary = ComputeSummary([]PricedLine{{UnitPrice: decimal.RequireFromString("5"), Quantity: 0}}, defaultTestPolicy())
	assert.True(t, summary.Shipping.IsZero())
}

func TestComputeSummaryTaxRoundsHalfUp(t *testing.T) {
	policy := defaultTestPolicy()
	policy.TaxScale = 2
	// 10.3125 * 0.08 = 0.825 -> 0.83
	summary := ComputeSummary([]PricedLine{{UnitPrice: decimal.RequireFromString("10.3125"), Quantity: 1}}, policy)
	assert.Equal(t, "0.83", summary.Tax.String())

	policy.TaxScale = 0
	// 6.25 * 0.08 = 0.5 -> 1
	summary = ComputeSummary([]PricedLine{{UnitPrice: decimal.RequireFromString("6.25"), Quantity: 1}}, policy)
	assert.Equal(t, "1.00", summary.Tax.String())
}

func TestComputeSummaryIgnoresNonPositiveQuantity(t *testing.T) {
	summary := ComputeSummary([]PricedLine{
		{UnitPrice: decimal.RequireFromString("99"), Quantity: 0},
		{UnitPrice: decimal.RequireFromString("10"), Quantity: 1},
	}, defaultTestPolicy())
	assert.Equal(t, "10.00", summary.Subtotal.String())
}

func TestOrderSummaryMatches(t *testing.T) {
	policy := defaultTestPolicy()
	base := ComputeSummary([]PricedLine{{UnitPrice: decimal.RequireFromString("130"), Quantity: 1}}, policy)
	eps := ParseMismatchEpsilon("0.01")

	same := base
	require.True(t, base.Matches(same, eps))

	drifted := base
	drifted.Total.Decimal = base.Total.Decimal.Add(decimal.RequireFromString("0.01"))
	assert.True(t, base.Matches(drifted, eps))

	stale := base
	stale.Subtotal.Decimal = decimal.RequireFromString("120")
	assert.False(t, base.Matches(stale, eps))
}

func TestNewPricingPolicyFallbacks(t *testing.T) {
	policy := NewPricingPolicy(config.PricingConfig{ShippingFee: "abc", TaxRate: "-1", TaxScale: -3})
	assert.Equal(t, "USD", policy.Currency)
	assert.True(t, policy.ShippingFee.IsZero())
	assert.True(t, policy.TaxRate.IsZero())
	assert.Equal(t, int32(0), policy.TaxScale)
	assert.Equal(t, "0.01", ParseMismatchEpsilon("bad").String())
}
