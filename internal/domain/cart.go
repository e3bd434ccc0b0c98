package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type CartStatus string

const CartStatusActive CartStatus = "active"

type Cart struct {
	ID            string      `json:"id"`
	UserID        string      `json:"user_id"`
	Status        CartStatus  `json:"status"`
	Items         []CartItem  `json:"items"`
	Summary       CartSummary `json:"summary"`
	AppliedCoupon *Coupon     `json:"applied_coupon,omitempty"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

// CartItem is a node of the cart item tree. A top-level item has an empty
// ParentItemID; accessories and gifts hang under it as Children.
type CartItem struct {
	ID           string          `json:"id"`
	CartID       string          `json:"cart_id"`
	ProductID    string          `json:"product_id"`
	Quantity     int             `json:"quantity"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	ParentItemID string          `json:"parent_item_id,omitempty"`
	IsGift       bool            `json:"is_gift"`
	Children     []CartItem      `json:"children"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// CartSummary is derived from the item tree and the applied coupon and is
// never mutated on its own.
type CartSummary struct {
	ItemsCount        int             `json:"items_count"`
	ItemsSubtotal     decimal.Decimal `json:"items_subtotal"`
	PromotionDiscount decimal.Decimal `json:"promotion_discount"`
	CouponDiscount    decimal.Decimal `json:"coupon_discount"`
	ShippingFee       decimal.Decimal `json:"shipping_fee"`
	TaxAmount         decimal.Decimal `json:"tax_amount"`
	TotalAmount       decimal.Decimal `json:"total_amount"`
}

// Clone returns a copy of the item with its own children slices.
func (i CartItem) Clone() CartItem {
	out := i
	out.Children = cloneItems(i.Children)
	return out
}

// Clone returns a deep copy of the cart, including the item tree and coupon.
func (c Cart) Clone() Cart {
	out := c
	out.Items = cloneItems(c.Items)
	if c.AppliedCoupon != nil {
		coupon := *c.AppliedCoupon
		out.AppliedCoupon = &coupon
	}
	return out
}

func cloneItems(items []CartItem) []CartItem {
	if items == nil {
		return nil
	}
	out := make([]CartItem, len(items))
	for i, item := range items {
		out[i] = item.Clone()
	}
	return out
}
