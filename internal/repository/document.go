package repository

import (
	"fmt"
	"time"

	"github.com/fjod/go_cart/pricing-service/internal/domain"
	"github.com/shopspring/decimal"
)

// Documents keep money as decimal strings. The summary is not stored apart
// from its pass-through fields; it is derived again when the cart is loaded.
type cartDocument struct {
	ID                string          `bson:"_id"`
	UserID            string          `bson:"user_id"`
	Status            string          `bson:"status"`
	Items             []itemDocument  `bson:"items"`
	Coupon            *couponDocument `bson:"coupon,omitempty"`
	PromotionDiscount string          `bson:"promotion_discount"`
	ShippingFee       string          `bson:"shipping_fee"`
	TaxAmount         string          `bson:"tax_amount"`
	CreatedAt         time.Time       `bson:"created_at"`
	UpdatedAt         time.Time       `bson:"updated_at"`
}

type itemDocument struct {
	ID           string         `bson:"id"`
	ProductID    string         `bson:"product_id"`
	Quantity     int            `bson:"quantity"`
	UnitPrice    string         `bson:"unit_price"`
	ParentItemID string         `bson:"parent_item_id,omitempty"`
	IsGift       bool           `bson:"is_gift"`
	Children     []itemDocument `bson:"children,omitempty"`
	CreatedAt    time.Time      `bson:"created_at"`
	UpdatedAt    time.Time      `bson:"updated_at"`
}

type couponDocument struct {
	ID                string    `bson:"id"`
	Code              string    `bson:"code"`
	DiscountType      string    `bson:"discount_type"`
	DiscountValue     string    `bson:"discount_value"`
	MinPurchaseAmount *string   `bson:"min_purchase_amount,omitempty"`
	MaxDiscountAmount *string   `bson:"max_discount_amount,omitempty"`
	ValidFrom         time.Time `bson:"valid_from"`
	ValidTo           time.Time `bson:"valid_to"`
	UsageLimit        int       `bson:"usage_limit"`
	UsedCount         int       `bson:"used_count"`
	PerUserLimit      int       `bson:"per_user_limit"`
}

func toDocument(c *domain.Cart) cartDocument {
	doc := cartDocument{
		ID:                c.ID,
		UserID:            c.UserID,
		Status:            string(c.Status),
		Items:             toItemDocuments(c.Items),
		PromotionDiscount: c.Summary.PromotionDiscount.String(),
		ShippingFee:       c.Summary.ShippingFee.String(),
		TaxAmount:         c.Summary.TaxAmount.String(),
		CreatedAt:         c.CreatedAt,
		UpdatedAt:         c.UpdatedAt,
	}
	if c.AppliedCoupon != nil {
		cp := c.AppliedCoupon
		doc.Coupon = &couponDocument{
			ID:                cp.ID,
			Code:              cp.Code,
			DiscountType:      string(cp.DiscountType),
			DiscountValue:     cp.DiscountValue.String(),
			MinPurchaseAmount: nullDecimalString(cp.MinPurchaseAmount),
			MaxDiscountAmount: nullDecimalString(cp.MaxDiscountAmount),
			ValidFrom:         cp.ValidFrom,
			ValidTo:           cp.ValidTo,
			UsageLimit:        cp.UsageLimit,
			UsedCount:         cp.UsedCount,
			PerUserLimit:      cp.PerUserLimit,
		}
	}
	return doc
}

func toItemDocuments(items []domain.CartItem) []itemDocument {
	if len(items) == 0 {
		return nil
	}
	docs := make([]itemDocument, len(items))
	for i, item := range items {
		docs[i] = itemDocument{
			ID:           item.ID,
			ProductID:    item.ProductID,
			Quantity:     item.Quantity,
			UnitPrice:    item.UnitPrice.String(),
			ParentItemID: item.ParentItemID,
			IsGift:       item.IsGift,
			Children:     toItemDocuments(item.Children),
			CreatedAt:    item.CreatedAt,
			UpdatedAt:    item.UpdatedAt,
		}
	}
	return docs
}

func fromDocument(doc cartDocument) (*domain.Cart, error) {
	items, err := fromItemDocuments(doc.ID, doc.Items)
	if err != nil {
		return nil, err
	}

	cart := &domain.Cart{
		ID:        doc.ID,
		UserID:    doc.UserID,
		Status:    domain.CartStatus(doc.Status),
		Items:     items,
		CreatedAt: doc.CreatedAt,
		UpdatedAt: doc.UpdatedAt,
	}
	if cart.Summary.PromotionDiscount, err = parseDecimal(doc.PromotionDiscount); err != nil {
		return nil, fmt.Errorf("promotion_discount: %w", err)
	}
	if cart.Summary.ShippingFee, err = parseDecimal(doc.ShippingFee); err != nil {
		return nil, fmt.Errorf("shipping_fee: %w", err)
	}
	if cart.Summary.TaxAmount, err = parseDecimal(doc.TaxAmount); err != nil {
		return nil, fmt.Errorf("tax_amount: %w", err)
	}

	if doc.Coupon != nil {
		coupon, err := fromCouponDocument(*doc.Coupon)
		if err != nil {
			return nil, err
		}
		cart.AppliedCoupon = coupon
	}
	return cart, nil
}

func fromItemDocuments(cartID string, docs []itemDocument) ([]domain.CartItem, error) {
	if len(docs) == 0 {
		return nil, nil
	}
	items := make([]domain.CartItem, len(docs))
	for i, doc := range docs {
		price, err := decimal.NewFromString(doc.UnitPrice)
		if err != nil {
			return nil, fmt.Errorf("item %s unit_price: %w", doc.ID, err)
		}
		children, err := fromItemDocuments(cartID, doc.Children)
		if err != nil {
			return nil, err
		}
		items[i] = domain.CartItem{
			ID:           doc.ID,
			CartID:       cartID,
			ProductID:    doc.ProductID,
			Quantity:     doc.Quantity,
			UnitPrice:    price,
			ParentItemID: doc.ParentItemID,
			IsGift:       doc.IsGift,
			Children:     children,
			CreatedAt:    doc.CreatedAt,
			UpdatedAt:    doc.UpdatedAt,
		}
	}
	return items, nil
}

func fromCouponDocument(doc couponDocument) (*domain.Coupon, error) {
	value, err := decimal.NewFromString(doc.DiscountValue)
	if err != nil {
		return nil, fmt.Errorf("coupon %s discount_value: %w", doc.Code, err)
	}
	minPurchase, err := parseNullDecimal(doc.MinPurchaseAmount)
	if err != nil {
		return nil, fmt.Errorf("coupon %s min_purchase_amount: %w", doc.Code, err)
	}
	maxDiscount, err := parseNullDecimal(doc.MaxDiscountAmount)
	if err != nil {
		return nil, fmt.Errorf("coupon %s max_discount_amount: %w", doc.Code, err)
	}

	return &domain.Coupon{
		ID:                doc.ID,
		Code:              doc.Code,
		DiscountType:      domain.DiscountType(doc.DiscountType),
		DiscountValue:     value,
		MinPurchaseAmount: minPurchase,
		MaxDiscountAmount: maxDiscount,
		ValidFrom:         doc.ValidFrom,
		ValidTo:           doc.ValidTo,
		UsageLimit:        doc.UsageLimit,
		UsedCount:         doc.UsedCount,
		PerUserLimit:      doc.PerUserLimit,
	}, nil
}

func nullDecimalString(v decimal.NullDecimal) *string {
	if !v.Valid {
		return nil
	}
	s := v.Decimal.String()
	return &s
}

func parseNullDecimal(s *string) (decimal.NullDecimal, error) {
	if s == nil {
		return decimal.NullDecimal{}, nil
	}
	v, err := decimal.NewFromString(*s)
	if err != nil {
		return decimal.NullDecimal{}, err
	}
	return decimal.NewNullDecimal(v), nil
}

func parseDecimal(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}
