package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/fjod/go_cart/pricing-service/internal/catalog"
	"github.com/fjod/go_cart/pricing-service/internal/domain"
	"github.com/fjod/go_cart/pricing-service/internal/pricing"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CouponRegistry resolves a coupon code to its discount rule.
// Implementations return catalog.ErrCouponNotFound for unknown codes.
type CouponRegistry interface {
	FindCouponByCode(ctx context.Context, code string) (*domain.Coupon, error)
}

// ApplyCouponResult is the envelope returned by ApplyCoupon. Cart is set
// only on success.
type ApplyCouponResult struct {
	Success bool         `json:"success"`
	Message string       `json:"message"`
	Cart    *domain.Cart `json:"cart,omitempty"`
}

// Store owns a single cart. Every mutation runs mutate -> recalculate -> copy
// under one lock, so the summary always matches the item tree and coupon.
type Store struct {
	mu   sync.Mutex
	cart domain.Cart

	coupons       CouponRegistry
	lenient       bool
	enforceCoupon bool
	now           func() time.Time
}

type Option func(*Store)

// WithLenientLookup turns operations on unknown item ids into no-ops that
// return the unchanged cart instead of ErrItemNotFound.
func WithLenientLookup(lenient bool) Option {
	return func(s *Store) { s.lenient = lenient }
}

// WithCouponRules makes ApplyCoupon reject coupons outside their validity
// window or below their minimum purchase amount.
func WithCouponRules(enforce bool) Option {
	return func(s *Store) { s.enforceCoupon = enforce }
}

func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// New creates a store holding a copy of initial. The summary is derived
// immediately, so any summary on initial other than the pass-through fields
// is ignored.
func New(initial domain.Cart, coupons CouponRegistry, opts ...Option) *Store {
	s := &Store{
		cart:    initial.Clone(),
		coupons: coupons,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.cart.ID == "" {
		s.cart.ID = uuid.NewString()
	}
	if s.cart.Status == "" {
		s.cart.Status = domain.CartStatusActive
	}
	if s.cart.CreatedAt.IsZero() {
		s.cart.CreatedAt = s.now()
		s.cart.UpdatedAt = s.cart.CreatedAt
	}
	s.recalculate()
	return s
}

// Cart returns a copy of the current cart.
func (s *Store) Cart() domain.Cart {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.Clone()
}

// SetItemQuantity replaces the quantity of the item with itemID, wherever it
// sits in the tree. Children keep their own quantities.
func (s *Store) SetItemQuantity(itemID string, quantity int) (domain.Cart, error) {
	if quantity < 1 {
		return domain.Cart{}, ErrInvalidQuantity
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if !setQuantity(s.cart.Items, itemID, quantity, now) {
		return s.missing()
	}
	s.cart.UpdatedAt = now
	return s.commit(), nil
}

// RemoveItem drops the item with itemID together with its whole subtree.
func (s *Store) RemoveItem(itemID string) (domain.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items, removed := removeItem(s.cart.Items, itemID)
	if !removed {
		return s.missing()
	}
	s.cart.Items = items
	s.cart.UpdatedAt = s.now()
	return s.commit(), nil
}

// AddItem inserts a single node, at the top level when ParentItemID is empty
// or under the item it names. Children of item are discarded.
func (s *Store) AddItem(item domain.CartItem) (domain.Cart, error) {
	if item.Quantity < 1 {
		return domain.Cart{}, ErrInvalidQuantity
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	item.CartID = s.cart.ID
	item.Children = nil
	item.CreatedAt = now
	item.UpdatedAt = now

	if item.ParentItemID == "" {
		s.cart.Items = append(s.cart.Items, item)
	} else if !attach(s.cart.Items, item.ParentItemID, item) {
		return s.missing()
	}
	s.cart.UpdatedAt = now
	return s.commit(), nil
}

// ApplyCoupon looks code up case-insensitively and makes it the only active
// coupon. An unknown code leaves the cart untouched and reports failure in
// the result; the returned error is reserved for registry failures.
func (s *Store) ApplyCoupon(ctx context.Context, code string) (ApplyCouponResult, error) {
	coupon, err := s.coupons.FindCouponByCode(ctx, strings.TrimSpace(code))
	if errors.Is(err, catalog.ErrCouponNotFound) {
		return ApplyCouponResult{Success: false, Message: MsgInvalidCoupon}, nil
	}
	if err != nil {
		return ApplyCouponResult{}, fmt.Errorf("failed to find coupon: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if s.enforceCoupon {
		if errRules := checkCouponRules(*coupon, pricing.Subtotal(s.cart.Items), now); errRules != nil {
			return ApplyCouponResult{Success: false, Message: couponMessage(errRules)}, nil
		}
	}

	applied := *coupon
	s.cart.AppliedCoupon = &applied
	s.cart.UpdatedAt = now
	cart := s.commit()
	return ApplyCouponResult{Success: true, Message: MsgCouponApplied, Cart: &cart}, nil
}

// RemoveCoupon clears the active coupon, if any.
func (s *Store) RemoveCoupon() domain.Cart {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cart.AppliedCoupon = nil
	s.cart.UpdatedAt = s.now()
	return s.commit()
}

// Clear empties the item tree and drops the coupon.
func (s *Store) Clear() domain.Cart {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cart.Items = nil
	s.cart.AppliedCoupon = nil
	s.cart.UpdatedAt = s.now()
	return s.commit()
}

// SetCharges sets the shipping fee and tax amount carried into the total.
func (s *Store) SetCharges(shipping, tax decimal.Decimal) domain.Cart {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cart.Summary.ShippingFee = shipping
	s.cart.Summary.TaxAmount = tax
	s.cart.UpdatedAt = s.now()
	return s.commit()
}

func (s *Store) recalculate() {
	s.cart.Summary = pricing.Recalculate(s.cart.Items, s.cart.AppliedCoupon, s.cart.Summary)
}

// commit must be called with mu held.
func (s *Store) commit() domain.Cart {
	s.recalculate()
	return s.cart.Clone()
}

// missing must be called with mu held.
func (s *Store) missing() (domain.Cart, error) {
	if s.lenient {
		return s.commit(), nil
	}
	return domain.Cart{}, ErrItemNotFound
}

func setQuantity(items []domain.CartItem, itemID string, quantity int, now time.Time) bool {
	for i := range items {
		if items[i].ID == itemID {
			items[i].Quantity = quantity
			items[i].UpdatedAt = now
			return true
		}
		if setQuantity(items[i].Children, itemID, quantity, now) {
			return true
		}
	}
	return false
}

func removeItem(items []domain.CartItem, itemID string) ([]domain.CartItem, bool) {
	removed := false
	out := make([]domain.CartItem, 0, len(items))
	for _, item := range items {
		if item.ID == itemID {
			removed = true
			continue
		}
		if children, ok := removeItem(item.Children, itemID); ok {
			item.Children = children
			removed = true
		}
		out = append(out, item)
	}
	if !removed {
		return items, false
	}
	return out, true
}

func attach(items []domain.CartItem, parentID string, child domain.CartItem) bool {
	for i := range items {
		if items[i].ID == parentID {
			items[i].Children = append(items[i].Children, child)
			return true
		}
		if attach(items[i].Children, parentID, child) {
			return true
		}
	}
	return false
}

func checkCouponRules(coupon domain.Coupon, subtotal decimal.Decimal, now time.Time) error {
	if !coupon.ActiveAt(now) {
		return ErrCouponExpired
	}
	if !coupon.MeetsMinimum(subtotal) {
		return ErrCouponBelowMinimum
	}
	return nil
}

func couponMessage(err error) string {
	switch {
	case errors.Is(err, ErrCouponExpired):
		return MsgCouponExpired
	case errors.Is(err, ErrCouponBelowMinimum):
		return MsgCouponBelowMinimum
	default:
		return MsgInvalidCoupon
	}
}
