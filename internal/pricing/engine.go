package pricing

import (
	"github.com/fjod/go_cart/pricing-service/internal/domain"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// ItemTotal is UnitPrice × Quantity of the item plus the totals of all its
// descendants. Gift items are not special-cased; they carry a zero price.
func ItemTotal(item domain.CartItem) decimal.Decimal {
	total := item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity)))
	for _, child := range item.Children {
		total = total.Add(ItemTotal(child))
	}
	return total
}

// Subtotal sums ItemTotal over the top-level items.
func Subtotal(items []domain.CartItem) decimal.Decimal {
	subtotal := decimal.Zero
	for _, item := range items {
		subtotal = subtotal.Add(ItemTotal(item))
	}
	return subtotal
}

// CouponDiscount computes the discount of coupon for subtotal. The minimum
// purchase amount is not checked here.
func CouponDiscount(coupon *domain.Coupon, subtotal decimal.Decimal) decimal.Decimal {
	if coupon == nil {
		return decimal.Zero
	}

	switch coupon.DiscountType {
	case domain.DiscountPercentage:
		discount := subtotal.Mul(coupon.DiscountValue).Div(hundred)
		if coupon.MaxDiscountAmount.Valid {
			discount = decimal.Min(discount, coupon.MaxDiscountAmount.Decimal)
		}
		return discount
	case domain.DiscountFixed:
		return decimal.Min(coupon.DiscountValue, subtotal)
	default:
		return decimal.Zero
	}
}

// Total applies the summary formula:
// subtotal - promotion - coupon + shipping + tax.
func Total(s domain.CartSummary) decimal.Decimal {
	return s.ItemsSubtotal.
		Sub(s.PromotionDiscount).
		Sub(s.CouponDiscount).
		Add(s.ShippingFee).
		Add(s.TaxAmount)
}

// Recalculate derives a fresh summary from the item tree and the active
// coupon. Promotion discount, shipping fee and tax are carried over from prev.
func Recalculate(items []domain.CartItem, coupon *domain.Coupon, prev domain.CartSummary) domain.CartSummary {
	summary := domain.CartSummary{
		ItemsCount:        len(items),
		ItemsSubtotal:     Subtotal(items),
		PromotionDiscount: prev.PromotionDiscount,
		ShippingFee:       prev.ShippingFee,
		TaxAmount:         prev.TaxAmount,
	}
	summary.CouponDiscount = CouponDiscount(coupon, summary.ItemsSubtotal)
	summary.TotalAmount = Total(summary)
	return summary
}
