package catalog

import (
	"context"
	"errors"

	"github.com/fjod/go_cart/pricing-service/internal/domain"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrCouponNotFound  = errors.New("coupon not found")
)

// Catalog is the read-only reference data the cart depends on: products for
// price snapshots and coupons for discount rules.
type Catalog interface {
	GetAllProducts(ctx context.Context) ([]*domain.Product, error)
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
	FindCouponByCode(ctx context.Context, code string) (*domain.Coupon, error)
}
