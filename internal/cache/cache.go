package cache

import (
	"context"
	"errors"

	"github.com/fjod/go_cart/pricing-service/internal/domain"
)

// CartCache holds read-through copies of priced carts keyed by user.
type CartCache interface {
	Get(ctx context.Context, userID string) (*domain.Cart, error)
	Set(ctx context.Context, userID string, cart *domain.Cart) error
	Delete(ctx context.Context, userID string) error
}

var ErrCacheMiss = errors.New("cache miss")
