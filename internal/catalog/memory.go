package catalog

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/fjod/go_cart/pricing-service/internal/domain"
	"github.com/shopspring/decimal"
)

// MemoryCatalog serves catalog lookups from fixtures held in memory.
type MemoryCatalog struct {
	products map[string]domain.Product
	coupons  map[string]domain.Coupon // upper-cased code -> coupon
}

func NewMemoryCatalog(products []domain.Product, coupons []domain.Coupon) *MemoryCatalog {
	c := &MemoryCatalog{
		products: make(map[string]domain.Product, len(products)),
		coupons:  make(map[string]domain.Coupon, len(coupons)),
	}
	for _, p := range products {
		c.products[p.ID] = p
	}
	for _, cp := range coupons {
		c.coupons[strings.ToUpper(cp.Code)] = cp
	}
	return c
}

// NewDefaultCatalog returns a MemoryCatalog loaded with the same fixtures the
// SQLite seed migration inserts.
func NewDefaultCatalog() *MemoryCatalog {
	return NewMemoryCatalog(DefaultProducts(), DefaultCoupons())
}

func (c *MemoryCatalog) GetAllProducts(context.Context) ([]*domain.Product, error) {
	products := make([]*domain.Product, 0, len(c.products))
	for _, p := range c.products {
		p := p
		products = append(products, &p)
	}
	sort.Slice(products, func(i, j int) bool { return products[i].ID < products[j].ID })
	return products, nil
}

func (c *MemoryCatalog) GetProduct(_ context.Context, id string) (*domain.Product, error) {
	p, ok := c.products[id]
	if !ok {
		return nil, ErrProductNotFound
	}
	return &p, nil
}

func (c *MemoryCatalog) FindCouponByCode(_ context.Context, code string) (*domain.Coupon, error) {
	cp, ok := c.coupons[strings.ToUpper(code)]
	if !ok {
		return nil, ErrCouponNotFound
	}
	return &cp, nil
}

func DefaultProducts() []domain.Product {
	frame := func(id, name, price, brand string) domain.Product {
		return domain.Product{
			ID: id, Type: domain.ProductTypeFrame, Name: name,
			Price: decimal.RequireFromString(price), Active: true, InStock: true, BrandID: brand,
		}
	}
	accessory := func(id, name, price string) domain.Product {
		return domain.Product{
			ID: id, Type: domain.ProductTypeAccessory, Name: name,
			Price: decimal.RequireFromString(price), Active: true, InStock: true,
		}
	}

	retired := frame("frame-retired", "Retired Cat-Eye Frame", "21.0", "brand-luma")
	retired.Active = false
	soldOut := accessory("acc-sold-out", "Leather Pouch", "7.5")
	soldOut.InStock = false

	return []domain.Product{
		frame("frame-aviator", "Aviator Classic Frame", "33.9", "brand-sol"),
		frame("frame-round", "Round Metal Frame", "14.9", "brand-sol"),
		frame("frame-wayfarer", "Wayfarer Acetate Frame", "16.9", "brand-luma"),
		accessory("acc-case", "Hard Shell Case", "5.0"),
		accessory("acc-cloth", "Microfiber Cloth", "0"),
		accessory("acc-chain", "Glasses Chain", "3.5"),
		retired,
		soldOut,
	}
}

func DefaultCoupons() []domain.Coupon {
	dec := decimal.RequireFromString
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2099, 12, 31, 23, 59, 59, 0, time.UTC)

	return []domain.Coupon{
		{
			ID: "coupon-happy", Code: "HAPPY",
			DiscountType: domain.DiscountPercentage, DiscountValue: dec("10"),
			MinPurchaseAmount: decimal.NewNullDecimal(dec("50")),
			MaxDiscountAmount: decimal.NewNullDecimal(dec("100")),
			ValidFrom:         from, ValidTo: to,
			UsageLimit: 1000, PerUserLimit: 1,
		},
		{
			ID: "coupon-save20", Code: "SAVE20",
			DiscountType: domain.DiscountFixed, DiscountValue: dec("20"),
			MinPurchaseAmount: decimal.NewNullDecimal(dec("100")),
			ValidFrom:         from, ValidTo: to,
			UsageLimit: 500, PerUserLimit: 1,
		},
		{
			ID: "coupon-welcome5", Code: "WELCOME5",
			DiscountType: domain.DiscountPercentage, DiscountValue: dec("5"),
		},
		{
			ID: "coupon-expired10", Code: "EXPIRED10",
			DiscountType: domain.DiscountPercentage, DiscountValue: dec("10"),
			MaxDiscountAmount: decimal.NewNullDecimal(dec("50")),
			ValidFrom:         time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
			ValidTo:           time.Date(2020, 12, 31, 23, 59, 59, 0, time.UTC),
			UsageLimit:        100, UsedCount: 100, PerUserLimit: 1,
		},
	}
}
