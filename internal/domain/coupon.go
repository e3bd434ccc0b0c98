package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type DiscountType string

const (
	DiscountPercentage DiscountType = "percentage"
	DiscountFixed      DiscountType = "fixed"
)

// Coupon is a discount rule resolved from the coupon registry by code.
// Usage limits are informational and not enforced when pricing.
type Coupon struct {
	ID                string              `json:"id"`
	Code              string              `json:"code"`
	DiscountType      DiscountType        `json:"discount_type"`
	DiscountValue     decimal.Decimal     `json:"discount_value"`
	MinPurchaseAmount decimal.NullDecimal `json:"min_purchase_amount"`
	MaxDiscountAmount decimal.NullDecimal `json:"max_discount_amount"`
	ValidFrom         time.Time           `json:"valid_from"`
	ValidTo           time.Time           `json:"valid_to"`
	UsageLimit        int                 `json:"usage_limit"`
	UsedCount         int                 `json:"used_count"`
	PerUserLimit      int                 `json:"per_user_limit"`
}

// ActiveAt checks the validity window. Zero bounds are open.
func (c Coupon) ActiveAt(t time.Time) bool {
	if !c.ValidFrom.IsZero() && t.Before(c.ValidFrom) {
		return false
	}
	if !c.ValidTo.IsZero() && t.After(c.ValidTo) {
		return false
	}
	return true
}

// MeetsMinimum checks subtotal against the minimum purchase amount, if any.
func (c Coupon) MeetsMinimum(subtotal decimal.Decimal) bool {
	if !c.MinPurchaseAmount.Valid {
		return true
	}
	return subtotal.GreaterThanOrEqual(c.MinPurchaseAmount.Decimal)
}
