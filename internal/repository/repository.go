package repository

import (
	"context"
	"errors"

	"github.com/fjod/go_cart/pricing-service/internal/domain"
)

var ErrCartNotFound = errors.New("cart not found")

// CartRepository stores cart snapshots keyed by user id.
// Consumers define this interface, not the MongoDB implementation
type CartRepository interface {
	GetCart(ctx context.Context, userID string) (*domain.Cart, error)
	UpsertCart(ctx context.Context, cart *domain.Cart) error
	DeleteCart(ctx context.Context, userID string) error
}
