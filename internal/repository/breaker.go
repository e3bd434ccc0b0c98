package repository

import (
	"context"
	"errors"
	"time"

	"github.com/fjod/go_cart/pricing-service/internal/domain"
	"github.com/sony/gobreaker/v2"
)

type BreakerSettings struct {
	Name             string
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	ConsecutiveFails uint32
}

// breakerRepository guards a CartRepository with a circuit breaker. A missing
// cart is a normal answer and does not count as a failure.
type breakerRepository struct {
	next CartRepository
	cb   *gobreaker.CircuitBreaker[*domain.Cart]
}

func NewBreakerRepository(next CartRepository, s BreakerSettings) CartRepository {
	cb := gobreaker.NewCircuitBreaker[*domain.Cart](gobreaker.Settings{
		Name:        s.Name,
		MaxRequests: s.MaxRequests,
		Interval:    s.Interval,
		Timeout:     s.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= s.ConsecutiveFails
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrCartNotFound)
		},
	})
	return &breakerRepository{next: next, cb: cb}
}

func (b *breakerRepository) GetCart(ctx context.Context, userID string) (*domain.Cart, error) {
	return b.cb.Execute(func() (*domain.Cart, error) {
		return b.next.GetCart(ctx, userID)
	})
}

func (b *breakerRepository) UpsertCart(ctx context.Context, cart *domain.Cart) error {
	_, err := b.cb.Execute(func() (*domain.Cart, error) {
		return nil, b.next.UpsertCart(ctx, cart)
	})
	return err
}

func (b *breakerRepository) DeleteCart(ctx context.Context, userID string) error {
	_, err := b.cb.Execute(func() (*domain.Cart, error) {
		return nil, b.next.DeleteCart(ctx, userID)
	})
	return err
}
